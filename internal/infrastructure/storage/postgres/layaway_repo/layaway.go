// Package layaway_repo provides the PostgreSQL layaway repository.
// Items and payments travel as JSONB documents with the layaway row.
package layaway_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/layaway"
	"stockflow/internal/infrastructure/storage/postgres"
)

const layawaysTable = "layaways"

var layawayCols = []string{
	"id", "outlet_id", "customer_name", "customer_phone",
	"items", "total_amount", "paid_amount", "balance",
	"status", "payments", "sale_transaction_id", "created_by",
	"created_at", "last_updated",
}

var _ layaway.Repository = (*LayawayRepo)(nil)

// LayawayRepo implements layaway.Repository.
type LayawayRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLayawayRepo creates a new layaway repository.
func NewLayawayRepo(txm *postgres.TxManager) *LayawayRepo {
	return &LayawayRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func docsJSON(l *layaway.Layaway) (items, payments json.RawMessage, err error) {
	items, err = json.Marshal(l.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	if l.Payments == nil {
		payments = json.RawMessage("[]")
	} else if payments, err = json.Marshal(l.Payments); err != nil {
		return nil, nil, fmt.Errorf("marshal payments: %w", err)
	}
	return items, payments, nil
}

// Create inserts a new layaway.
func (r *LayawayRepo) Create(ctx context.Context, l *layaway.Layaway) error {
	items, payments, err := docsJSON(l)
	if err != nil {
		return err
	}

	q := r.builder.Insert(layawaysTable).
		Columns(layawayCols...).
		Values(
			l.ID, l.OutletID, l.CustomerName, l.CustomerPhone,
			items, l.TotalAmount, l.PaidAmount, l.Balance,
			l.Status, payments, l.SaleTransactionID, l.CreatedBy,
			l.CreatedAt, l.LastUpdated,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert layaway: %w", err)
	}
	return nil
}

// GetByID returns a layaway by ID.
func (r *LayawayRepo) GetByID(ctx context.Context, layawayID id.ID) (*layaway.Layaway, error) {
	q := r.builder.Select(layawayCols...).
		From(layawaysTable).
		Where(squirrel.Eq{"id": layawayID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var l layaway.Layaway
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("layaway", layawayID)
		}
		return nil, fmt.Errorf("get layaway: %w", err)
	}
	return &l, nil
}

// Update replaces the mutable state of a layaway.
func (r *LayawayRepo) Update(ctx context.Context, l *layaway.Layaway) error {
	items, payments, err := docsJSON(l)
	if err != nil {
		return err
	}

	q := r.builder.Update(layawaysTable).
		Set("customer_name", l.CustomerName).
		Set("customer_phone", l.CustomerPhone).
		Set("items", items).
		Set("total_amount", l.TotalAmount).
		Set("paid_amount", l.PaidAmount).
		Set("balance", l.Balance).
		Set("status", l.Status).
		Set("payments", payments).
		Set("sale_transaction_id", l.SaleTransactionID).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": l.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update layaway: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("layaway", l.ID)
	}
	return nil
}

// List returns layaways matching the filter, newest first.
func (r *LayawayRepo) List(ctx context.Context, f layaway.Filter) ([]layaway.Layaway, error) {
	q := r.builder.Select(layawayCols...).From(layawaysTable)

	if f.OutletID != nil {
		q = q.Where(squirrel.Eq{"outlet_id": *f.OutletID})
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

	var layaways []layaway.Layaway
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &layaways, sql, args...); err != nil {
		return nil, fmt.Errorf("select layaways: %w", err)
	}
	return layaways, nil
}

// DeleteByOutlet removes all layaways of an outlet.
func (r *LayawayRepo) DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error) {
	q := r.builder.Delete(layawaysTable).Where(squirrel.Eq{"outlet_id": outletID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete layaways: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
