package catalog_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/outlet"
	"stockflow/internal/infrastructure/storage/postgres"
)

const outletsTable = "outlets"

var outletCols = []string{
	"id", "name", "warehouse_id", "warehouse_name", "rep_ids",
	"location", "address", "phone",
	"total_stock", "total_products", "total_sales", "revenue",
	"status", "created_at", "last_updated",
}

var _ outlet.Repository = (*OutletRepo)(nil)

// OutletRepo implements outlet.Repository. Rep assignments are stored as
// a JSONB array of account IDs.
type OutletRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewOutletRepo creates a new outlet repository.
func NewOutletRepo(txm *postgres.TxManager) *OutletRepo {
	return &OutletRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func repIDsJSON(repIDs []id.ID) (json.RawMessage, error) {
	if repIDs == nil {
		repIDs = []id.ID{}
	}
	raw, err := json.Marshal(repIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal rep ids: %w", err)
	}
	return raw, nil
}

// Create inserts a new outlet.
func (r *OutletRepo) Create(ctx context.Context, o *entity.Outlet) error {
	reps, err := repIDsJSON(o.RepIDs)
	if err != nil {
		return err
	}

	q := r.builder.Insert(outletsTable).
		Columns(outletCols...).
		Values(
			o.ID, o.Name, o.WarehouseID, o.WarehouseName, reps,
			o.Location, o.Address, o.Phone,
			o.TotalStock, o.TotalProducts, o.TotalSales, o.Revenue,
			o.Status, o.CreatedAt, o.LastUpdated,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert outlet: %w", err)
	}
	return nil
}

// GetByID returns an outlet by ID.
func (r *OutletRepo) GetByID(ctx context.Context, outletID id.ID) (*entity.Outlet, error) {
	q := r.builder.Select(outletCols...).
		From(outletsTable).
		Where(squirrel.Eq{"id": outletID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o entity.Outlet
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("outlet", outletID)
		}
		return nil, fmt.Errorf("get outlet: %w", err)
	}
	return &o, nil
}

// UpdateInfo updates descriptive fields and rep assignments.
func (r *OutletRepo) UpdateInfo(ctx context.Context, o *entity.Outlet) error {
	reps, err := repIDsJSON(o.RepIDs)
	if err != nil {
		return err
	}

	q := r.builder.Update(outletsTable).
		Set("name", o.Name).
		Set("warehouse_id", o.WarehouseID).
		Set("warehouse_name", o.WarehouseName).
		Set("rep_ids", reps).
		Set("location", o.Location).
		Set("address", o.Address).
		Set("phone", o.Phone).
		Set("status", o.Status).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": o.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update outlet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("outlet", o.ID)
	}
	return nil
}

// Delete removes an outlet row.
func (r *OutletRepo) Delete(ctx context.Context, outletID id.ID) error {
	q := r.builder.Delete(outletsTable).Where(squirrel.Eq{"id": outletID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete outlet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("outlet", outletID)
	}
	return nil
}

// List returns outlets matching the filter.
func (r *OutletRepo) List(ctx context.Context, f outlet.Filter) ([]entity.Outlet, error) {
	q := r.builder.Select(outletCols...).From(outletsTable)

	if f.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *f.WarehouseID})
	}
	if f.RepID != nil {
		member, err := json.Marshal([]id.ID{*f.RepID})
		if err != nil {
			return nil, fmt.Errorf("marshal rep id: %w", err)
		}
		q = q.Where(squirrel.Expr("rep_ids @> ?", json.RawMessage(member)))
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

	var outlets []entity.Outlet
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &outlets, sql, args...); err != nil {
		return nil, fmt.Errorf("select outlets: %w", err)
	}
	return outlets, nil
}

// ListByWarehouse returns the child outlets of a warehouse.
func (r *OutletRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]entity.Outlet, error) {
	return r.List(ctx, outlet.Filter{WarehouseID: &warehouseID})
}
