// Package report_repo provides the PostgreSQL report repository. All
// queries are read-only aggregations over the tables the write side
// maintains.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/reports"
	"stockflow/internal/domain/shipment"
	"stockflow/internal/infrastructure/storage/postgres"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetCompanyOverview returns the company counters as a dashboard view.
func (r *ReportRepo) GetCompanyOverview(ctx context.Context) (*reports.CompanyOverview, error) {
	const query = `
		SELECT name, total_stock, total_products, total_units_sold,
		       total_revenue, in_transit, total_shipments,
		       total_warehouses, total_outlets, total_workers
		FROM company
		LIMIT 1`

	var ov reports.CompanyOverview
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &ov, query); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company", "singleton")
		}
		return nil, fmt.Errorf("get company overview: %w", err)
	}
	return &ov, nil
}

// GetSalesSummary aggregates sale lines per product. Reversal lines carry
// negated quantities and amounts, so plain sums net out reversed sales.
func (r *ReportRepo) GetSalesSummary(ctx context.Context, f reports.SalesSummaryFilter) (*reports.SalesSummary, error) {
	q := r.builder.Select(
		"product_id",
		"min(sku) AS sku",
		"min(name) AS name",
		"coalesce(sum(qty_sold), 0) AS units_sold",
		"coalesce(sum(total_amount), 0) AS revenue",
	).From("sales")

	if f.OutletID != nil {
		q = q.Where(squirrel.Eq{"outlet_id": *f.OutletID})
	}
	if f.SoldByID != nil {
		q = q.Where(squirrel.Eq{"sold_by_id": *f.SoldByID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
	}

	q = q.GroupBy("product_id").OrderBy("revenue DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []reports.SalesSummaryRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales summary: %w", err)
	}

	summary := &reports.SalesSummary{
		From:    f.From,
		To:      f.To,
		Revenue: types.ZeroMoney(),
		Rows:    rows,
	}
	for _, row := range rows {
		summary.UnitsSold += row.UnitsSold
		summary.Revenue = summary.Revenue.Add(row.Revenue)
	}

	// Transactions counted separately; the per-product grouping above
	// cannot distinguish checkouts.
	countSQL, countArgs, err := r.transactionCountQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&summary.Transactions); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	return summary, nil
}

func (r *ReportRepo) transactionCountQuery(f reports.SalesSummaryFilter) squirrel.SelectBuilder {
	q := r.builder.Select("count(DISTINCT transaction_id)").
		From("sales").
		Where(squirrel.Eq{"is_reversal": false})
	if f.OutletID != nil {
		q = q.Where(squirrel.Eq{"outlet_id": *f.OutletID})
	}
	if f.SoldByID != nil {
		q = q.Where(squirrel.Eq{"sold_by_id": *f.SoldByID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
	}
	return q
}

// GetWarehouseStock returns a warehouse's inventory rows with totals.
func (r *ReportRepo) GetWarehouseStock(ctx context.Context, f reports.WarehouseStockFilter) (*reports.WarehouseStockReport, error) {
	const headerQuery = `
		SELECT id AS warehouse_id, name AS warehouse_name,
		       total_stock, total_revenue
		FROM warehouses
		WHERE id = $1`

	var report reports.WarehouseStockReport
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &report, headerQuery, f.WarehouseID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", f.WarehouseID)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}

	q := r.builder.Select("product_id", "sku", "name", "qty", "in_transit", "revenue").
		From("warehouse_items").
		Where(squirrel.Eq{"warehouse_id": f.WarehouseID})
	if f.ExcludeZero {
		q = q.Where(squirrel.Gt{"qty": 0})
	}
	q = q.OrderBy("qty DESC, sku")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &report.Rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouse items: %w", err)
	}

	countQ := r.builder.Select("count(*)").
		From("warehouse_items").
		Where(squirrel.Eq{"warehouse_id": f.WarehouseID})
	if f.ExcludeZero {
		countQ = countQ.Where(squirrel.Gt{"qty": 0})
	}
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&report.TotalRows); err != nil {
		return nil, fmt.Errorf("count warehouse items: %w", err)
	}
	return &report, nil
}

// GetOutletOverview returns the per-outlet dashboard view. The Day bound
// in the filter is taken as the start of the reporting day.
func (r *ReportRepo) GetOutletOverview(ctx context.Context, f reports.OutletOverviewFilter) (*reports.OutletOverview, error) {
	const headerQuery = `
		SELECT id AS outlet_id, name AS outlet_name,
		       total_stock, total_products, revenue
		FROM outlets
		WHERE id = $1`

	var ov reports.OutletOverview
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &ov, headerQuery, f.OutletID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("outlet", f.OutletID)
		}
		return nil, fmt.Errorf("get outlet: %w", err)
	}

	dayStart := f.Day
	dayEnd := dayStart.AddDate(0, 0, 1)

	const todayQuery = `
		SELECT coalesce(sum(qty_sold), 0), coalesce(sum(total_amount), 0)
		FROM sales
		WHERE outlet_id = $1 AND created_at >= $2 AND created_at < $3`
	if err := querier.QueryRow(ctx, todayQuery, f.OutletID, dayStart, dayEnd).
		Scan(&ov.TodayUnitsSold, &ov.TodayRevenue); err != nil {
		return nil, fmt.Errorf("sum today sales: %w", err)
	}

	const pendingQuery = `
		SELECT count(*)
		FROM shipments
		WHERE status = $1 AND to_endpoint->>'id' = $2`
	if err := querier.QueryRow(ctx, pendingQuery, shipment.StatusInTransit, f.OutletID.String()).
		Scan(&ov.PendingShipments); err != nil {
		return nil, fmt.Errorf("count pending shipments: %w", err)
	}

	topQ := r.builder.Select("product_id", "sku", "name", "qty", "total_sold", "revenue").
		From("outlet_items").
		Where(squirrel.Eq{"outlet_id": f.OutletID}).
		OrderBy("total_sold DESC, revenue DESC").
		Limit(uint64(f.TopLimit))

	sql, args, err := topQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &ov.TopItems, sql, args...); err != nil {
		return nil, fmt.Errorf("select top items: %w", err)
	}
	return &ov, nil
}
