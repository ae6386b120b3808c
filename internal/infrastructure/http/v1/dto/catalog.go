package dto

import (
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/catalogs/company"
	"stockflow/internal/domain/catalogs/outlet"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/warehouse"
)

// --- Company ---

// UpdateCompanyRequest edits company descriptive fields.
type UpdateCompanyRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Address  string `json:"address"`
}

// ToInput converts to service input.
func (r UpdateCompanyRequest) ToInput() company.UpdateInput {
	return company.UpdateInput(r)
}

// --- Product ---

// CreateProductRequest registers a product with initial company stock.
type CreateProductRequest struct {
	SKU       string         `json:"sku" binding:"required"`
	Name      string         `json:"name" binding:"required"`
	Qty       types.Quantity `json:"qty" binding:"min=0"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// ToInput converts to service input.
func (r CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput(r)
}

// UpdateProductRequest edits product info. Quantity changes go through
// restock.
type UpdateProductRequest struct {
	Name      string       `json:"name"`
	UnitPrice *types.Money `json:"unitPrice"`
}

// ToInput converts to service input.
func (r UpdateProductRequest) ToInput() product.UpdateInput {
	return product.UpdateInput(r)
}

// RestockRequest adds company-held stock.
type RestockRequest struct {
	AddedQty types.Quantity `json:"addedQty" binding:"required,gt=0"`
	Notes    string         `json:"notes"`
}

// --- Warehouse ---

// CreateWarehouseRequest registers a warehouse.
type CreateWarehouseRequest struct {
	Name        string `json:"name" binding:"required"`
	Location    string `json:"location"`
	Address     string `json:"address"`
	ManagerID   string `json:"managerId"`
	ManagerName string `json:"managerName"`
}

// ToInput converts to service input.
func (r CreateWarehouseRequest) ToInput() warehouse.CreateInput {
	return warehouse.CreateInput(r)
}

// UpdateWarehouseRequest edits warehouse info.
type UpdateWarehouseRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Address     string `json:"address"`
	ManagerID   string `json:"managerId"`
	ManagerName string `json:"managerName"`
}

// ToInput converts to service input.
func (r UpdateWarehouseRequest) ToInput() warehouse.UpdateInput {
	return warehouse.UpdateInput(r)
}

// --- Outlet ---

// CreateOutletRequest registers an outlet under a warehouse.
type CreateOutletRequest struct {
	Name        string  `json:"name" binding:"required"`
	WarehouseID id.ID   `json:"warehouseId" binding:"required"`
	Location    string  `json:"location"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone"`
	RepIDs      []id.ID `json:"repIds"`
}

// ToInput converts to service input.
func (r CreateOutletRequest) ToInput() outlet.CreateInput {
	return outlet.CreateInput(r)
}

// UpdateOutletRequest edits outlet info.
type UpdateOutletRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// ToInput converts to service input.
func (r UpdateOutletRequest) ToInput() outlet.UpdateInput {
	return outlet.UpdateInput(r)
}

// AssignRepRequest attaches a rep to an outlet.
type AssignRepRequest struct {
	RepID id.ID `json:"repId" binding:"required"`
}
