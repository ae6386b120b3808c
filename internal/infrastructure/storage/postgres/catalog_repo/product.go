package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	productsTable    = "products"
	restockLogsTable = "restock_logs"
)

var productCols = []string{
	"id", "sku", "name", "qty", "company_id", "unit_price", "status",
	"created_at", "last_updated",
}

var restockLogCols = []string{
	"id", "product_id", "product_name", "added_qty",
	"restocked_by", "restocked_by_id", "date", "notes",
}

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productCols...).
		Values(p.ID, p.SKU, p.Name, p.Qty, p.CompanyID, p.UnitPrice, p.Status,
			p.CreatedAt, p.LastUpdated)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID returns a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*entity.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID}, productID)
}

// GetBySKU returns a product by SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"sku": sku}, sku)
}

func (r *ProductRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*entity.Product, error) {
	q := r.builder.Select(productCols...).From(productsTable).Where(where).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p entity.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpdateInfo updates descriptive fields; qty belongs to the ledger.
func (r *ProductRepo) UpdateInfo(ctx context.Context, p *entity.Product) error {
	q := r.builder.Update(productsTable).
		Set("name", p.Name).
		Set("unit_price", p.UnitPrice).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product row.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	q := r.builder.Delete(productsTable).Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

// List returns products matching the filter.
func (r *ProductRepo) List(ctx context.Context, f product.Filter) ([]entity.Product, error) {
	q := r.builder.Select(productCols...).From(productsTable)

	if f.SKU != nil {
		q = q.Where(squirrel.Eq{"sku": *f.SKU})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
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

	var products []entity.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

// CreateRestockLog appends an immutable restock record.
func (r *ProductRepo) CreateRestockLog(ctx context.Context, log *entity.RestockLog) error {
	q := r.builder.Insert(restockLogsTable).
		Columns(restockLogCols...).
		Values(log.ID, log.ProductID, log.ProductName, log.AddedQty,
			log.RestockedBy, log.RestockedByID, log.Date, log.Notes)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert restock log: %w", err)
	}
	return nil
}

// ListRestockLogs returns restock history for a product, newest first.
func (r *ProductRepo) ListRestockLogs(ctx context.Context, productID id.ID, limit, offset int) ([]entity.RestockLog, error) {
	q := r.builder.Select(restockLogCols...).
		From(restockLogsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("date DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var logs []entity.RestockLog
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &logs, sql, args...); err != nil {
		return nil, fmt.Errorf("select restock logs: %w", err)
	}
	return logs, nil
}
