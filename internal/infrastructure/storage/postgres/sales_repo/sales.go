// Package sales_repo provides the PostgreSQL sales history repository.
// Rows are immutable once written; edits replace whole transactions.
package sales_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/sales"
	"stockflow/internal/infrastructure/storage/postgres"
)

const salesTable = "sales"

var saleCols = []string{
	"id", "transaction_id", "outlet_id", "warehouse_id",
	"product_id", "sku", "name",
	"qty_sold", "unit_price", "total_amount",
	"sold_by", "sold_by_id",
	"is_reversal", "reversed_sale_id",
	"created_at", "last_updated",
}

var _ sales.Repository = (*SalesRepo)(nil)

// SalesRepo implements sales.Repository.
type SalesRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSalesRepo creates a new sales repository.
func NewSalesRepo(txm *postgres.TxManager) *SalesRepo {
	return &SalesRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateBatch inserts all rows of one transaction.
func (r *SalesRepo) CreateBatch(ctx context.Context, batch []sales.Sale) error {
	if len(batch) == 0 {
		return nil
	}

	q := r.builder.Insert(salesTable).Columns(saleCols...)
	for _, s := range batch {
		q = q.Values(
			s.ID, s.TransactionID, s.OutletID, s.WarehouseID,
			s.ProductID, s.SKU, s.Name,
			s.QtySold, s.UnitPrice, s.TotalAmount,
			s.SoldBy, s.SoldByID,
			s.IsReversal, s.ReversedSaleID,
			s.CreatedAt, s.LastUpdated,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		// The partial unique index on reversed_sale_id makes the loser of
		// a concurrent double-reversal fail here rather than double-return
		// stock.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_sales_reversed" {
			for _, s := range batch {
				if s.IsReversal {
					return apperror.NewAlreadyReversed(s.ReversedSaleID)
				}
			}
			return apperror.NewAlreadyReversed(nil)
		}
		return fmt.Errorf("insert sales: %w", err)
	}
	return nil
}

// GetByID returns one sale record.
func (r *SalesRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	q := r.builder.Select(saleCols...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sales.Sale
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

// GetByTransaction returns all rows of a transaction in creation order.
func (r *SalesRepo) GetByTransaction(ctx context.Context, transactionID id.ID) ([]sales.Sale, error) {
	q := r.builder.Select(saleCols...).
		From(salesTable).
		Where(squirrel.Eq{"transaction_id": transactionID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []sales.Sale
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	return rows, nil
}

// List returns sale rows matching the filter, newest first.
func (r *SalesRepo) List(ctx context.Context, f sales.Filter) ([]sales.Sale, error) {
	q := r.builder.Select(saleCols...).From(salesTable)

	if f.OutletID != nil {
		q = q.Where(squirrel.Eq{"outlet_id": *f.OutletID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
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

	q = q.OrderBy("created_at DESC")
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

	var rows []sales.Sale
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	return rows, nil
}

// HasReversal reports whether a reversal referencing the sale exists.
func (r *SalesRepo) HasReversal(ctx context.Context, saleID id.ID) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM sales WHERE is_reversal AND reversed_sale_id = $1)`

	var exists bool
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, saleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check reversal: %w", err)
	}
	return exists, nil
}

// HasReversalsInTransaction reports whether the transaction contains
// reversal rows or any of its rows has been reversed elsewhere.
func (r *SalesRepo) HasReversalsInTransaction(ctx context.Context, transactionID id.ID) (bool, error) {
	sql := `
		SELECT EXISTS (
			SELECT 1 FROM sales WHERE transaction_id = $1 AND is_reversal
		) OR EXISTS (
			SELECT 1 FROM sales r
			WHERE r.is_reversal
			  AND r.reversed_sale_id IN (SELECT id FROM sales WHERE transaction_id = $1)
		)
	`

	var entangled bool
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, transactionID).Scan(&entangled); err != nil {
		return false, fmt.Errorf("check transaction reversals: %w", err)
	}
	return entangled, nil
}

// DeleteByTransaction removes all rows of a transaction.
func (r *SalesRepo) DeleteByTransaction(ctx context.Context, transactionID id.ID) (int, error) {
	return r.deleteWhere(ctx, squirrel.Eq{"transaction_id": transactionID})
}

// DeleteByProduct removes the product's entire sale history.
func (r *SalesRepo) DeleteByProduct(ctx context.Context, productID id.ID) (int, error) {
	return r.deleteWhere(ctx, squirrel.Eq{"product_id": productID})
}

// DeleteByOutlet removes the outlet's entire sale history.
func (r *SalesRepo) DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error) {
	return r.deleteWhere(ctx, squirrel.Eq{"outlet_id": outletID})
}

func (r *SalesRepo) deleteWhere(ctx context.Context, where squirrel.Eq) (int, error) {
	q := r.builder.Delete(salesTable).Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete sales: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
