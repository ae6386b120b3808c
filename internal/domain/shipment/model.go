// Package shipment models the shipment lifecycle: stock dispatched from the
// company or a warehouse travels in transit until it is received, rejected,
// or cancelled. All three terminal transitions are valid only from in_transit.
package shipment

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Status is the shipment lifecycle state.
type Status string

const (
	StatusInTransit Status = "in_transit"
	StatusReceived  Status = "received"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusReceived || s == StatusRejected || s == StatusCancelled
}

// Action is a requested transition out of in_transit.
type Action string

const (
	ActionReceive Action = "receive"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// Target returns the status the action transitions to.
func (a Action) Target() (Status, error) {
	switch a {
	case ActionReceive:
		return StatusReceived, nil
	case ActionReject:
		return StatusRejected, nil
	case ActionCancel:
		return StatusCancelled, nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown shipment action %q", a))
}

// Endpoint identifies one end of a shipment. ID is nil for the company.
type Endpoint struct {
	Type entity.LocationType `json:"type"`
	ID   id.ID               `json:"id,omitempty"`
	Name string              `json:"name"`
}

// Same reports whether two endpoints refer to the same node.
func (e Endpoint) Same(other Endpoint) bool {
	return e.Type == other.Type && e.ID == other.ID
}

// Line is one product line. Quantities and the unitPrice/sku/name snapshot
// are frozen at create time; transitions move exactly these quantities.
type Line struct {
	ProductID id.ID          `json:"productId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Qty       types.Quantity `json:"qty"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// Shipment is a stock transfer between two nodes of the distribution chain.
type Shipment struct {
	entity.BaseEntity

	From   Endpoint `db:"from_endpoint" json:"from"`
	To     Endpoint `db:"to_endpoint" json:"to"`
	Lines  []Line   `db:"lines" json:"lines"`
	Status Status   `db:"status" json:"status"`

	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
	Notes     string `db:"notes" json:"notes,omitempty"`
}

// TotalQty returns the summed line quantities.
func (sh *Shipment) TotalQty() types.Quantity {
	var total types.Quantity
	for _, l := range sh.Lines {
		total += l.Qty
	}
	return total
}

// Validate checks shipment invariants.
func (sh *Shipment) Validate(ctx context.Context) error {
	if sh.From.Type != entity.LocationCompany && sh.From.Type != entity.LocationWarehouse {
		return apperror.NewValidation(fmt.Sprintf("invalid source type %q", sh.From.Type))
	}
	if sh.To.Type != entity.LocationWarehouse && sh.To.Type != entity.LocationOutlet {
		return apperror.NewValidation(fmt.Sprintf("invalid destination type %q", sh.To.Type))
	}
	if sh.From.Type == entity.LocationWarehouse && id.IsNil(sh.From.ID) {
		return apperror.NewValidation("source warehouse id is required")
	}
	if id.IsNil(sh.To.ID) {
		return apperror.NewValidation("destination id is required")
	}
	if sh.From.Same(sh.To) {
		return apperror.NewValidation("shipment source and destination must differ")
	}
	if len(sh.Lines) == 0 {
		return apperror.NewValidation("shipment requires at least one product line")
	}
	for i, l := range sh.Lines {
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("line %d: product_id is required", i))
		}
		if !l.Qty.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("line %d: qty must be positive", i))
		}
	}
	return nil
}
