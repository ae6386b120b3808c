// Package sales groups sale line items into atomically committed
// transactions and supports reversal, edit, and deletion, each routed
// through the movement engine so aggregate totals never drift.
package sales

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Sale is one line item of a checkout. All lines of one checkout share a
// TransactionID. A reversal is a separate record with negated quantity and
// amount pointing back at the original.
type Sale struct {
	entity.BaseEntity

	TransactionID id.ID `db:"transaction_id" json:"transactionId"`
	OutletID      id.ID `db:"outlet_id" json:"outletId"`

	// WarehouseID is the provenance warehouse of the sold stock, frozen
	// from the outlet inventory row at sale time.
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`

	QtySold     types.Quantity `db:"qty_sold" json:"qtySold"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`
	TotalAmount types.Money    `db:"total_amount" json:"totalAmount"`

	SoldBy   string `db:"sold_by" json:"soldBy,omitempty"`
	SoldByID id.ID  `db:"sold_by_id" json:"soldById,omitempty"`

	IsReversal     bool  `db:"is_reversal" json:"isReversal"`
	ReversedSaleID id.ID `db:"reversed_sale_id" json:"reversedSaleId,omitempty"`
}

// Transaction is the read-side grouping of sale lines sharing one
// TransactionID: one checkout event.
type Transaction struct {
	TransactionID id.ID          `json:"transactionId"`
	OutletID      id.ID          `json:"outletId"`
	Date          time.Time      `json:"date"`
	SoldBy        string         `json:"soldBy,omitempty"`
	TotalQty      types.Quantity `json:"totalQty"`
	TotalAmount   types.Money    `json:"totalAmount"`
	Sales         []Sale         `json:"sales"`
}

// LineInput is one requested sale line. UnitPrice is supplied by the caller
// and frozen onto the record; it is never re-derived from the current
// product price afterwards.
type LineInput struct {
	ProductID id.ID
	QtySold   types.Quantity
	UnitPrice types.Money
}

// Validate checks a line's invariants.
func (l LineInput) Validate(ctx context.Context) error {
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation("product_id is required")
	}
	if !l.QtySold.IsPositive() {
		return apperror.NewValidation(fmt.Sprintf("qty_sold must be positive, got %s", l.QtySold))
	}
	if l.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit_price must not be negative")
	}
	return nil
}

// Receipt summarizes one committed checkout.
type Receipt struct {
	TransactionID id.ID       `json:"transactionId"`
	TotalAmount   types.Money `json:"totalAmount"`
	Sales         []Sale      `json:"sales"`
}
