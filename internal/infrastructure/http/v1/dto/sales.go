package dto

import (
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/sales"
)

// SaleLineRequest is one requested sale line. UnitPrice is frozen onto the
// record as supplied; it must be present, but an explicit zero is a valid
// price (giveaways, warranty replacements).
type SaleLineRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	QtySold   types.Quantity `json:"qtySold" binding:"required,gt=0"`
	UnitPrice *types.Money   `json:"unitPrice" binding:"required"`
}

// RecordSaleRequest commits one checkout at an outlet.
type RecordSaleRequest struct {
	OutletID id.ID             `json:"outletId" binding:"required"`
	Lines    []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts to service input.
func (r RecordSaleRequest) ToInput(soldBy string, soldByID id.ID) sales.RecordInput {
	in := sales.RecordInput{
		OutletID: r.OutletID,
		SoldBy:   soldBy,
		SoldByID: soldByID,
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, sales.LineInput{
			ProductID: l.ProductID,
			QtySold:   l.QtySold,
			UnitPrice: *l.UnitPrice,
		})
	}
	return in
}

// EditTransactionRequest replaces a checkout's lines wholesale.
type EditTransactionRequest struct {
	Lines []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToLines converts to service line inputs.
func (r EditTransactionRequest) ToLines() []sales.LineInput {
	lines := make([]sales.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, sales.LineInput{
			ProductID: l.ProductID,
			QtySold:   l.QtySold,
			UnitPrice: *l.UnitPrice,
		})
	}
	return lines
}
