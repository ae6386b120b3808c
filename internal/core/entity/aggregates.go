package entity

import (
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Company is the single top-level tenant owning all stock before distribution.
// Exactly one row exists; it is created at bootstrap and never deleted.
// All counters are denormalized running totals maintained by the movement
// engine, never recomputed on read.
type Company struct {
	BaseEntity

	Name      string `db:"name" json:"name"`
	Location  string `db:"location" json:"location"`
	Address   string `db:"address" json:"address,omitempty"`
	AdminID   string `db:"admin_id" json:"adminId"`
	AdminName string `db:"admin_name" json:"adminName"`

	TotalStock      types.Quantity `db:"total_stock" json:"totalStock"`
	TotalProducts   int            `db:"total_products" json:"totalProducts"`
	TotalUnitsSold  types.Quantity `db:"total_units_sold" json:"totalUnitsSold"`
	TotalShipments  int            `db:"total_shipments" json:"totalShipments"`
	TotalWarehouses int            `db:"total_warehouses" json:"totalWarehouses"`
	TotalOutlets    int            `db:"total_outlets" json:"totalOutlets"`
	TotalWorkers    int            `db:"total_workers" json:"totalWorkers"`
	TotalRevenue    types.Money    `db:"total_revenue" json:"totalRevenue"`

	// InTransit is the reserve counter for company-sourced shipments:
	// stock deducted from products but not yet applied at a destination.
	InTransit types.Quantity `db:"in_transit" json:"inTransit"`
}

// CompanyProduct is the denormalized company-level snapshot of a product,
// kept in sync with the Product row on every mutation.
type CompanyProduct struct {
	ProductID   id.ID          `db:"product_id" json:"productId"`
	SKU         string         `db:"sku" json:"sku"`
	Name        string         `db:"name" json:"name"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`
	Qty         types.Quantity `db:"qty" json:"qty"`
	InTransit   types.Quantity `db:"in_transit" json:"inTransit"`
	LastUpdated time.Time      `db:"last_updated" json:"lastUpdated"`
}

// Product is a catalog item. Qty is stock held at company level,
// not yet shipped to any warehouse.
type Product struct {
	BaseEntity

	SKU       string         `db:"sku" json:"sku"`
	Name      string         `db:"name" json:"name"`
	Qty       types.Quantity `db:"qty" json:"qty"`
	CompanyID id.ID          `db:"company_id" json:"companyId"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Status    StockStatus    `db:"status" json:"status"`
}

// Warehouse is a mid-tier distribution node with denormalized totals.
type Warehouse struct {
	BaseEntity

	Name        string `db:"name" json:"name"`
	Location    string `db:"location" json:"location"`
	Address     string `db:"address" json:"address,omitempty"`
	ManagerID   string `db:"manager_id" json:"managerId,omitempty"`
	ManagerName string `db:"manager_name" json:"managerName,omitempty"`

	TotalOutlets   int            `db:"total_outlets" json:"totalOutlets"`
	TotalProducts  int            `db:"total_products" json:"totalProducts"`
	TotalShipments int            `db:"total_shipments" json:"totalShipments"`
	TotalStock     types.Quantity `db:"total_stock" json:"totalStock"`
	TotalRevenue   types.Money    `db:"total_revenue" json:"totalRevenue"`

	Status string `db:"status" json:"status"`
}

// WarehouseItem is one inventory row per (warehouseId, productId).
// Unique compound key; created lazily on first shipment receive.
type WarehouseItem struct {
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID  `db:"product_id" json:"productId"`
	SKU         string `db:"sku" json:"sku"`
	Name        string `db:"name" json:"name"`

	// Qty is on-hand; InTransit is reserved for outbound shipments.
	Qty       types.Quantity `db:"qty" json:"qty"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	InTransit types.Quantity `db:"in_transit" json:"inTransit"`

	TotalShipped  types.Quantity `db:"total_shipped" json:"totalShipped"`
	TotalReceived types.Quantity `db:"total_received" json:"totalReceived"`
	Revenue       types.Money    `db:"revenue" json:"revenue"`

	Status      StockStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	LastUpdated time.Time   `db:"last_updated" json:"lastUpdated"`
}

// Outlet is a point of sale attached to a parent warehouse.
type Outlet struct {
	BaseEntity

	Name          string  `db:"name" json:"name"`
	WarehouseID   id.ID   `db:"warehouse_id" json:"warehouseId"`
	WarehouseName string  `db:"warehouse_name" json:"warehouseName"`
	RepIDs        []id.ID `db:"rep_ids" json:"repIds"`
	Location      string  `db:"location" json:"location"`
	Address       string  `db:"address" json:"address,omitempty"`
	Phone         string  `db:"phone" json:"phone,omitempty"`

	TotalStock    types.Quantity `db:"total_stock" json:"totalStock"`
	TotalProducts int            `db:"total_products" json:"totalProducts"`
	TotalSales    types.Quantity `db:"total_sales" json:"totalSales"`
	Revenue       types.Money    `db:"revenue" json:"revenue"`

	Status string `db:"status" json:"status"`
}

// OutletItem is one inventory row per (outletId, productId).
// WarehouseID records provenance: the warehouse that stocked this outlet.
type OutletItem struct {
	OutletID  id.ID  `db:"outlet_id" json:"outletId"`
	ProductID id.ID  `db:"product_id" json:"productId"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`

	Qty       types.Quantity `db:"qty" json:"qty"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`

	TotalReceived types.Quantity `db:"total_received" json:"totalReceived"`
	TotalSold     types.Quantity `db:"total_sold" json:"totalSold"`
	Revenue       types.Money    `db:"revenue" json:"revenue"`

	WarehouseID id.ID       `db:"warehouse_id" json:"warehouseId"`
	Status      StockStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	LastUpdated time.Time   `db:"last_updated" json:"lastUpdated"`
}

// RestockLog is an immutable append-only record of company-level restocks.
// Audit trail only; it participates in no running-total invariant.
type RestockLog struct {
	ID            id.ID          `db:"id" json:"id"`
	ProductID     id.ID          `db:"product_id" json:"productId"`
	ProductName   string         `db:"product_name" json:"productName"`
	AddedQty      types.Quantity `db:"added_qty" json:"addedQty"`
	RestockedBy   string         `db:"restocked_by" json:"restockedBy"`
	RestockedByID string         `db:"restocked_by_id" json:"restockedById,omitempty"`
	Date          time.Time      `db:"date" json:"date"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
}
