package dto

import (
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/shipment"
)

// ShipmentLineRequest is one requested product line.
type ShipmentLineRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	Qty       types.Quantity `json:"qty" binding:"required,gt=0"`
}

// CreateShipmentRequest dispatches stock between locations.
type CreateShipmentRequest struct {
	FromType entity.LocationType   `json:"fromType" binding:"required"`
	FromID   id.ID                 `json:"fromId" binding:"required"`
	ToType   entity.LocationType   `json:"toType" binding:"required"`
	ToID     id.ID                 `json:"toId" binding:"required"`
	Lines    []ShipmentLineRequest `json:"lines" binding:"required,min=1,dive"`
	Notes    string                `json:"notes"`
}

// ToInput converts to service input.
func (r CreateShipmentRequest) ToInput(createdBy string) shipment.CreateInput {
	in := shipment.CreateInput{
		FromType:  r.FromType,
		FromID:    r.FromID,
		ToType:    r.ToType,
		ToID:      r.ToID,
		CreatedBy: createdBy,
		Notes:     r.Notes,
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, shipment.LineInput{ProductID: l.ProductID, Qty: l.Qty})
	}
	return in
}

// EditShipmentRequest redirects an in-transit shipment.
type EditShipmentRequest struct {
	ToType entity.LocationType `json:"toType" binding:"required"`
	ToID   id.ID               `json:"toId" binding:"required"`
	Notes  string              `json:"notes"`
}

// ToInput converts to service input.
func (r EditShipmentRequest) ToInput() shipment.EditInput {
	return shipment.EditInput(r)
}
