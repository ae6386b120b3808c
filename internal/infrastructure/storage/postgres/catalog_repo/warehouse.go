package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/warehouse"
	"stockflow/internal/infrastructure/storage/postgres"
)

const warehousesTable = "warehouses"

var warehouseCols = []string{
	"id", "name", "location", "address", "manager_id", "manager_name",
	"total_outlets", "total_products", "total_shipments", "total_stock",
	"total_revenue", "status", "created_at", "last_updated",
}

var _ warehouse.Repository = (*WarehouseRepo)(nil)

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txm *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new warehouse.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	q := r.builder.Insert(warehousesTable).
		Columns(warehouseCols...).
		Values(
			w.ID, w.Name, w.Location, w.Address, w.ManagerID, w.ManagerName,
			w.TotalOutlets, w.TotalProducts, w.TotalShipments, w.TotalStock,
			w.TotalRevenue, w.Status, w.CreatedAt, w.LastUpdated,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID returns a warehouse by ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*entity.Warehouse, error) {
	q := r.builder.Select(warehouseCols...).
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w entity.Warehouse
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", warehouseID)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// UpdateInfo updates descriptive fields; counters belong to the ledger.
func (r *WarehouseRepo) UpdateInfo(ctx context.Context, w *entity.Warehouse) error {
	q := r.builder.Update(warehousesTable).
		Set("name", w.Name).
		Set("location", w.Location).
		Set("address", w.Address).
		Set("manager_id", w.ManagerID).
		Set("manager_name", w.ManagerName).
		Set("status", w.Status).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": w.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("warehouse", w.ID)
	}
	return nil
}

// Delete removes a warehouse row.
func (r *WarehouseRepo) Delete(ctx context.Context, warehouseID id.ID) error {
	q := r.builder.Delete(warehousesTable).Where(squirrel.Eq{"id": warehouseID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete warehouse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("warehouse", warehouseID)
	}
	return nil
}

// List returns warehouses matching the filter.
func (r *WarehouseRepo) List(ctx context.Context, f warehouse.Filter) ([]entity.Warehouse, error) {
	q := r.builder.Select(warehouseCols...).From(warehousesTable)

	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}

	q = q.OrderBy("created_at")
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

	var warehouses []entity.Warehouse
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouses: %w", err)
	}
	return warehouses, nil
}
