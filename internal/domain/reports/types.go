// Package reports provides read-only summary views over the ledger.
package reports

import (
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// --- Company overview ---

// CompanyOverview is the top-level dashboard view.
type CompanyOverview struct {
	Name            string         `json:"name"`
	TotalStock      types.Quantity `json:"totalStock"`
	TotalProducts   int            `json:"totalProducts"`
	TotalUnitsSold  types.Quantity `json:"totalUnitsSold"`
	TotalRevenue    types.Money    `json:"totalRevenue"`
	InTransit       types.Quantity `json:"inTransit"`
	TotalShipments  int            `json:"totalShipments"`
	TotalWarehouses int            `json:"totalWarehouses"`
	TotalOutlets    int            `json:"totalOutlets"`
	TotalWorkers    int            `json:"totalWorkers"`
}

// --- Sales summary ---

// SalesSummaryFilter scopes the sales summary.
type SalesSummaryFilter struct {
	OutletID *id.ID
	SoldByID *id.ID
	From     *time.Time
	To       *time.Time
}

// SalesSummaryRow aggregates sales per product.
type SalesSummaryRow struct {
	ProductID id.ID          `json:"productId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	UnitsSold types.Quantity `json:"unitsSold"`
	Revenue   types.Money    `json:"revenue"`
}

// SalesSummary aggregates sales over a period.
type SalesSummary struct {
	From         *time.Time        `json:"from,omitempty"`
	To           *time.Time        `json:"to,omitempty"`
	Transactions int               `json:"transactions"`
	UnitsSold    types.Quantity    `json:"unitsSold"`
	Revenue      types.Money       `json:"revenue"`
	Rows         []SalesSummaryRow `json:"rows"`
}

// --- Warehouse stock ---

// WarehouseStockFilter scopes the warehouse stock report.
type WarehouseStockFilter struct {
	WarehouseID id.ID
	ExcludeZero bool
	Limit       int
	Offset      int
}

// WarehouseStockRow is one inventory row in the report.
type WarehouseStockRow struct {
	ProductID id.ID          `json:"productId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Qty       types.Quantity `json:"qty"`
	InTransit types.Quantity `json:"inTransit"`
	Revenue   types.Money    `json:"revenue"`
}

// WarehouseStockReport lists a warehouse's holdings with totals.
type WarehouseStockReport struct {
	WarehouseID   id.ID               `json:"warehouseId"`
	WarehouseName string              `json:"warehouseName"`
	TotalStock    types.Quantity      `json:"totalStock"`
	TotalRevenue  types.Money         `json:"totalRevenue"`
	Rows          []WarehouseStockRow `json:"rows"`
	TotalRows     int                 `json:"totalRows"`
}

// --- Outlet overview ---

// OutletOverviewFilter scopes the outlet overview.
type OutletOverviewFilter struct {
	OutletID id.ID
	// Day bounds the "today" figures; service defaults it to the current day.
	Day      time.Time
	TopLimit int
}

// OutletTopItem is a best-selling row at an outlet.
type OutletTopItem struct {
	ProductID id.ID          `json:"productId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Qty       types.Quantity `json:"qty"`
	TotalSold types.Quantity `json:"totalSold"`
	Revenue   types.Money    `json:"revenue"`
}

// OutletOverview is the per-outlet dashboard view.
type OutletOverview struct {
	OutletID         id.ID           `json:"outletId"`
	OutletName       string          `json:"outletName"`
	TotalStock       types.Quantity  `json:"totalStock"`
	TotalProducts    int             `json:"totalProducts"`
	Revenue          types.Money     `json:"revenue"`
	TodayUnitsSold   types.Quantity  `json:"todayUnitsSold"`
	TodayRevenue     types.Money     `json:"todayRevenue"`
	PendingShipments int             `json:"pendingShipments"`
	TopItems         []OutletTopItem `json:"topItems"`
}
