// Package catalog_repo provides PostgreSQL implementations for the
// catalog repositories: company, products, warehouses and outlets.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/domain/catalogs/company"
	"stockflow/internal/infrastructure/storage/postgres"
)

const companyTable = "company"

var companyCols = []string{
	"id", "name", "location", "address", "admin_id", "admin_name",
	"total_stock", "total_products", "total_units_sold", "total_shipments",
	"total_warehouses", "total_outlets", "total_workers", "total_revenue",
	"in_transit", "created_at", "last_updated",
}

var _ company.Repository = (*CompanyRepo)(nil)

// CompanyRepo implements company.Repository.
type CompanyRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCompanyRepo creates a new company repository.
func NewCompanyRepo(txm *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the singleton company row.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	q := r.builder.Insert(companyTable).
		Columns(companyCols...).
		Values(
			c.ID, c.Name, c.Location, c.Address, c.AdminID, c.AdminName,
			c.TotalStock, c.TotalProducts, c.TotalUnitsSold, c.TotalShipments,
			c.TotalWarehouses, c.TotalOutlets, c.TotalWorkers, c.TotalRevenue,
			c.InTransit, c.CreatedAt, c.LastUpdated,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// Get returns the singleton company row.
func (r *CompanyRepo) Get(ctx context.Context) (*entity.Company, error) {
	q := r.builder.Select(companyCols...).From(companyTable).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c entity.Company
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company", nil)
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// Exists reports whether the company row is present.
func (r *CompanyRepo) Exists(ctx context.Context) (bool, error) {
	var exists bool
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM company)").Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check company exists: %w", err)
	}
	return exists, nil
}

// UpdateInfo updates descriptive fields only.
func (r *CompanyRepo) UpdateInfo(ctx context.Context, c *entity.Company) error {
	q := r.builder.Update(companyTable).
		Set("name", c.Name).
		Set("location", c.Location).
		Set("address", c.Address).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": c.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("company", c.ID)
	}
	return nil
}
