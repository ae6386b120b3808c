package shipment

import (
	"context"

	"stockflow/internal/core/id"
)

// Filter narrows shipment listings.
type Filter struct {
	Status     *Status
	LocationID *id.ID // matches either endpoint
	ProductID  *id.ID // matches any line
	Limit      int
	Offset     int
}

// Repository defines shipment persistence.
type Repository interface {
	Create(ctx context.Context, sh *Shipment) error
	GetByID(ctx context.Context, shipmentID id.ID) (*Shipment, error)
	List(ctx context.Context, f Filter) ([]Shipment, error)

	// UpdateStatusIf transitions the status only when the current status
	// equals from (atomic conditional update). When no row matches, the
	// shipment was already transitioned concurrently: fails with
	// ALREADY_PROCESSED, never applies the transition twice.
	UpdateStatusIf(ctx context.Context, shipmentID id.ID, from, to Status) error

	// UpdateDestination replaces the destination endpoint and notes while
	// the shipment is still mutable.
	UpdateDestination(ctx context.Context, shipmentID id.ID, to Endpoint, notes string) error

	// StripProductLines removes every line for the product from all
	// shipments and deletes shipments left with zero lines. Returns the
	// number of shipments touched.
	StripProductLines(ctx context.Context, productID id.ID) (int, error)

	// ListActiveByLocation returns in-transit shipments with the location
	// at either endpoint.
	ListActiveByLocation(ctx context.Context, locationID id.ID) ([]Shipment, error)

	// DeleteByLocation removes all shipment records referencing the
	// location at either endpoint. Returns the number deleted.
	DeleteByLocation(ctx context.Context, locationID id.ID) (int, error)
}
