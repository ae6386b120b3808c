// Package layaway handles deferred-payment orders. A layaway reserves
// intent, not stock: availability is checked at create and edit time, but
// nothing is deducted until completion converts it into a sale transaction.
package layaway

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Status is the layaway lifecycle state.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusFullPaid       Status = "full_paid_pending_pickup"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Open reports whether the layaway can still be paid, edited, or completed.
func (s Status) Open() bool {
	return s == StatusPendingPayment || s == StatusFullPaid
}

// Item is one reserved line, frozen at create or edit time. Completion
// sells exactly these items at exactly these prices.
type Item struct {
	ProductID id.ID          `json:"productId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Qty       types.Quantity `json:"qty"`
	UnitPrice types.Money    `json:"unitPrice"`
	LineTotal types.Money    `json:"lineTotal"`
}

// Payment is one entry of the payment history.
type Payment struct {
	Amount     types.Money `json:"amount"`
	Method     string      `json:"method,omitempty"`
	ReceivedBy string      `json:"receivedBy,omitempty"`
	Date       time.Time   `json:"date"`
}

// Layaway is a deferred-payment order at an outlet.
type Layaway struct {
	entity.BaseEntity

	OutletID      id.ID  `db:"outlet_id" json:"outletId"`
	CustomerName  string `db:"customer_name" json:"customerName"`
	CustomerPhone string `db:"customer_phone" json:"customerPhone,omitempty"`

	Items []Item `db:"items" json:"items"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
	PaidAmount  types.Money `db:"paid_amount" json:"paidAmount"`
	Balance     types.Money `db:"balance" json:"balance"`

	Status   Status    `db:"status" json:"status"`
	Payments []Payment `db:"payments" json:"payments"`

	// SaleTransactionID links to the sale transaction created at
	// completion. Nil until completed.
	SaleTransactionID id.ID `db:"sale_transaction_id" json:"saleTransactionId,omitempty"`

	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
}

// Recalculate derives totals, balance, and payment status from items and
// payments. Status only moves between the two open states here; terminal
// states are set by Complete and Cancel.
func (l *Layaway) Recalculate() {
	total := types.ZeroMoney()
	for i := range l.Items {
		l.Items[i].LineTotal = l.Items[i].Qty.LineTotal(l.Items[i].UnitPrice)
		total = total.Add(l.Items[i].LineTotal)
	}
	paid := types.ZeroMoney()
	for _, p := range l.Payments {
		paid = paid.Add(p.Amount)
	}
	l.TotalAmount = total
	l.PaidAmount = paid
	l.Balance = total.Sub(paid)

	if l.Status.Open() {
		if l.Balance.LessThanOrEqual(types.ZeroMoney()) {
			l.Status = StatusFullPaid
		} else {
			l.Status = StatusPendingPayment
		}
	}
}

// Validate checks layaway invariants.
func (l *Layaway) Validate(ctx context.Context) error {
	if id.IsNil(l.OutletID) {
		return apperror.NewValidation("outlet_id is required")
	}
	if l.CustomerName == "" {
		return apperror.NewValidation("customer_name is required")
	}
	if len(l.Items) == 0 {
		return apperror.NewValidation("layaway requires at least one item")
	}
	for i, item := range l.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("item %d: product_id is required", i))
		}
		if !item.Qty.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("item %d: qty must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("item %d: unit_price must not be negative", i))
		}
	}
	return nil
}
