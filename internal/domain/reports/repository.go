package reports

import (
	"context"
)

// Repository defines report data access interface. Implementations read
// the same tables the write side maintains; no report mutates state.
type Repository interface {
	GetCompanyOverview(ctx context.Context) (*CompanyOverview, error)
	GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummary, error)
	GetWarehouseStock(ctx context.Context, filter WarehouseStockFilter) (*WarehouseStockReport, error)
	GetOutletOverview(ctx context.Context, filter OutletOverviewFilter) (*OutletOverview, error)
}
