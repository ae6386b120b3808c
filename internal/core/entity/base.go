// Package entity provides core domain entities shared across services.
package entity

import (
	"context"
	"time"

	"stockflow/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all aggregates.
type BaseEntity struct {
	// ID is the primary key (UUIDv7), application-assigned
	ID id.ID `db:"id" json:"id"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// LastUpdated is stamped on every aggregate mutation
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}

// NewBaseEntity creates a new BaseEntity with generated ID and timestamps.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:          id.New(),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Touch updates the LastUpdated timestamp.
func (b *BaseEntity) Touch() {
	b.LastUpdated = time.Now().UTC()
}

// LocationType identifies a node in the distribution chain.
type LocationType string

const (
	LocationCompany   LocationType = "company"
	LocationWarehouse LocationType = "warehouse"
	LocationOutlet    LocationType = "outlet"
)

// Valid reports whether t is a known location type.
func (t LocationType) Valid() bool {
	switch t {
	case LocationCompany, LocationWarehouse, LocationOutlet:
		return true
	}
	return false
}

// StockStatus marks an inventory row or product as sellable or exhausted.
type StockStatus string

const (
	StockStatusIn  StockStatus = "inStock"
	StockStatusOut StockStatus = "outOfStock"
)

// StatusForQty derives the stock status from an on-hand quantity.
func StatusForQty(qty int64) StockStatus {
	if qty > 0 {
		return StockStatusIn
	}
	return StockStatusOut
}
