package sales

import (
	"context"
	"time"

	"stockflow/internal/core/id"
)

// Filter narrows sale listings.
type Filter struct {
	OutletID  *id.ID
	ProductID *id.ID
	SoldByID  *id.ID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Repository defines sale persistence. Sale records are append-mostly:
// written at checkout and reversal, hard-deleted only by transaction delete
// and product purge.
type Repository interface {
	CreateBatch(ctx context.Context, sales []Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	GetByTransaction(ctx context.Context, transactionID id.ID) ([]Sale, error)
	List(ctx context.Context, f Filter) ([]Sale, error)

	// HasReversal reports whether a reversal record referencing the sale
	// already exists.
	HasReversal(ctx context.Context, saleID id.ID) (bool, error)

	// HasReversalsInTransaction reports whether any line of the
	// transaction has been reversed, or the transaction itself contains
	// reversal records.
	HasReversalsInTransaction(ctx context.Context, transactionID id.ID) (bool, error)

	DeleteByTransaction(ctx context.Context, transactionID id.ID) (int, error)
	DeleteByProduct(ctx context.Context, productID id.ID) (int, error)
	DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error)
}
