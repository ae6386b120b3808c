package dto

import (
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/layaway"
)

// LayawayItemRequest is one requested layaway line. A zero unitPrice means
// "use the outlet row's current price".
type LayawayItemRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	Qty       types.Quantity `json:"qty" binding:"required,gt=0"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// LayawayPaymentRequest is one payment entry.
type LayawayPaymentRequest struct {
	Amount types.Money `json:"amount" binding:"required"`
	Method string      `json:"method"`
}

// CreateLayawayRequest opens a layaway at an outlet.
type CreateLayawayRequest struct {
	OutletID       id.ID                  `json:"outletId" binding:"required"`
	CustomerName   string                 `json:"customerName" binding:"required"`
	CustomerPhone  string                 `json:"customerPhone"`
	Items          []LayawayItemRequest   `json:"items" binding:"required,min=1,dive"`
	InitialPayment *LayawayPaymentRequest `json:"initialPayment"`
}

// ToInput converts to service input.
func (r CreateLayawayRequest) ToInput(createdBy string) layaway.CreateInput {
	in := layaway.CreateInput{
		OutletID:      r.OutletID,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		CreatedBy:     createdBy,
	}
	in.Items = toItemInputs(r.Items)
	if r.InitialPayment != nil {
		in.InitialPayment = &layaway.PaymentInput{
			Amount:     r.InitialPayment.Amount,
			Method:     r.InitialPayment.Method,
			ReceivedBy: createdBy,
		}
	}
	return in
}

// UpdateLayawayItemsRequest replaces the item list of an open layaway.
type UpdateLayawayItemsRequest struct {
	Items []LayawayItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToItems converts to service item inputs.
func (r UpdateLayawayItemsRequest) ToItems() []layaway.ItemInput {
	return toItemInputs(r.Items)
}

func toItemInputs(items []LayawayItemRequest) []layaway.ItemInput {
	out := make([]layaway.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, layaway.ItemInput{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	return out
}
