package layaway

import (
	"context"

	"stockflow/internal/core/id"
)

// Filter narrows layaway listings.
type Filter struct {
	OutletID *id.ID
	Status   *Status
	Limit    int
	Offset   int
}

// Repository defines layaway persistence. Items and payments travel with
// the layaway as embedded documents.
type Repository interface {
	Create(ctx context.Context, l *Layaway) error
	GetByID(ctx context.Context, layawayID id.ID) (*Layaway, error)
	Update(ctx context.Context, l *Layaway) error
	List(ctx context.Context, f Filter) ([]Layaway, error)
	DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error)
}
