// Package ledger provides the atomic increment primitives for the five
// aggregate families: Company, Product, Warehouse, WarehouseItem, Outlet,
// OutletItem. Every mutation is a single atomic find-and-modify; callers
// compute all deltas before invocation and run inside one transaction.
package ledger

import (
	"context"

	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// CompanyDelta is a signed delta against the singleton company totals.
// Zero fields leave their counter untouched.
type CompanyDelta struct {
	TotalStock     types.Quantity
	TotalUnitsSold types.Quantity
	InTransit      types.Quantity

	TotalProducts   int
	TotalShipments  int
	TotalWarehouses int
	TotalOutlets    int
	TotalWorkers    int

	TotalRevenue types.Money
}

// WarehouseDelta is a signed delta against warehouse totals.
type WarehouseDelta struct {
	TotalStock     types.Quantity
	TotalProducts  int
	TotalShipments int
	TotalOutlets   int
	TotalRevenue   types.Money
}

// OutletDelta is a signed delta against outlet totals.
type OutletDelta struct {
	TotalStock    types.Quantity
	TotalProducts int
	TotalSales    types.Quantity
	Revenue       types.Money
}

// ItemDelta is a signed delta against one inventory row
// (warehouse or outlet).
type ItemDelta struct {
	Qty           types.Quantity
	InTransit     types.Quantity
	TotalShipped  types.Quantity
	TotalReceived types.Quantity
	TotalSold     types.Quantity
	Revenue       types.Money
}

// ItemSnapshot carries the product identity frozen onto an inventory row
// when it is first created (upsert-on-receive).
type ItemSnapshot struct {
	SKU       string
	Name      string
	UnitPrice types.Money
}

// Repository defines the ledger primitives. Implementations must apply each
// delta as one atomic increment (no read-modify-write), stamp last_updated
// on every mutated aggregate, and fail with NOT_FOUND when the target is
// absent except where upsert is explicitly provided. Decrements below zero
// on qty or in_transit are guarded and surface as CONSISTENCY_ERROR; the
// movement engine is responsible for checking availability first.
type Repository interface {
	// Company singleton

	GetCompany(ctx context.Context) (*entity.Company, error)
	IncrementCompany(ctx context.Context, delta CompanyDelta) error

	// Company-level product snapshot (denormalized cache of Product rows)

	InsertCompanyProduct(ctx context.Context, row entity.CompanyProduct) error
	GetCompanyProduct(ctx context.Context, productID id.ID) (*entity.CompanyProduct, error)
	IncrementCompanyProduct(ctx context.Context, productID id.ID, qty, inTransit types.Quantity) error
	UpdateCompanyProductInfo(ctx context.Context, productID id.ID, name string, unitPrice types.Money) error
	SetCompanyProductQty(ctx context.Context, productID id.ID, qty types.Quantity) error
	DeleteCompanyProduct(ctx context.Context, productID id.ID) error

	// Product (company-held stock)

	GetProductForUpdate(ctx context.Context, productID id.ID) (*entity.Product, error)
	IncrementProductQty(ctx context.Context, productID id.ID, delta types.Quantity) error

	// Warehouse totals and inventory rows

	IncrementWarehouse(ctx context.Context, warehouseID id.ID, delta WarehouseDelta) error
	GetWarehouseItem(ctx context.Context, warehouseID, productID id.ID) (*entity.WarehouseItem, error)
	GetWarehouseItemForUpdate(ctx context.Context, warehouseID, productID id.ID) (*entity.WarehouseItem, error)
	IncrementWarehouseItem(ctx context.Context, warehouseID, productID id.ID, delta ItemDelta) error
	// UpsertWarehouseItem creates the row when absent (freezing snap) and
	// applies delta; reports whether the row was newly created.
	UpsertWarehouseItem(ctx context.Context, warehouseID, productID id.ID, snap ItemSnapshot, delta ItemDelta) (created bool, err error)

	// Outlet totals and inventory rows

	IncrementOutlet(ctx context.Context, outletID id.ID, delta OutletDelta) error
	GetOutletItem(ctx context.Context, outletID, productID id.ID) (*entity.OutletItem, error)
	GetOutletItemForUpdate(ctx context.Context, outletID, productID id.ID) (*entity.OutletItem, error)
	IncrementOutletItem(ctx context.Context, outletID, productID id.ID, delta ItemDelta) error
	UpsertOutletItem(ctx context.Context, outletID, productID, warehouseID id.ID, snap ItemSnapshot, delta ItemDelta) (created bool, err error)

	// Bulk row access for cascading cleanup

	ListWarehouseItemsByProduct(ctx context.Context, productID id.ID) ([]entity.WarehouseItem, error)
	ListOutletItemsByProduct(ctx context.Context, productID id.ID) ([]entity.OutletItem, error)
	DeleteWarehouseItem(ctx context.Context, warehouseID, productID id.ID) error
	DeleteOutletItem(ctx context.Context, outletID, productID id.ID) error
	DeleteWarehouseItemsByWarehouse(ctx context.Context, warehouseID id.ID) ([]entity.WarehouseItem, error)
	DeleteOutletItemsByOutlet(ctx context.Context, outletID id.ID) ([]entity.OutletItem, error)
}
