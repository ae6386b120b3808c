// Package account_repo provides the PostgreSQL account repository.
package account_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/account"
	"stockflow/internal/infrastructure/storage/postgres"
)

const accountsTable = "accounts"

var accountCols = []string{
	"id", "email", "password_hash", "name", "phone", "role",
	"is_active", "last_login_at", "failed_login_attempts", "locked_until",
	"created_at", "updated_at",
}

var _ account.Repository = (*AccountRepo)(nil)

// AccountRepo implements account.Repository.
type AccountRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *account.Account) error {
	q := r.builder.Insert(accountsTable).
		Columns(accountCols...).
		Values(
			a.ID, a.Email, a.PasswordHash, a.Name, a.Phone, a.Role,
			a.IsActive, a.LastLoginAt, a.FailedLoginAttempts, a.LockedUntil,
			a.CreatedAt, a.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("account", "email", a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID returns an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, accountID id.ID) (*account.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"id": accountID}, accountID)
}

// GetByEmail returns an account by email (case-insensitive).
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.getOne(ctx, squirrel.Expr("lower(email) = lower(?)", email), email)
}

func (r *AccountRepo) getOne(ctx context.Context, where squirrel.Sqlizer, key any) (*account.Account, error) {
	q := r.builder.Select(accountCols...).
		From(accountsTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a account.Account
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("account", key)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// Exists reports whether an account with the email exists.
func (r *AccountRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM accounts WHERE lower(email) = lower($1))", email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}

// Update replaces the mutable state of an account.
func (r *AccountRepo) Update(ctx context.Context, a *account.Account) error {
	q := r.builder.Update(accountsTable).
		Set("password_hash", a.PasswordHash).
		Set("name", a.Name).
		Set("phone", a.Phone).
		Set("role", a.Role).
		Set("is_active", a.IsActive).
		Set("last_login_at", a.LastLoginAt).
		Set("failed_login_attempts", a.FailedLoginAttempts).
		Set("locked_until", a.LockedUntil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("account", a.ID)
	}
	return nil
}

// Delete removes an account row.
func (r *AccountRepo) Delete(ctx context.Context, accountID id.ID) error {
	q := r.builder.Delete(accountsTable).Where(squirrel.Eq{"id": accountID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("account", accountID)
	}
	return nil
}

// List returns accounts matching the filter.
func (r *AccountRepo) List(ctx context.Context, f account.Filter) ([]account.Account, error) {
	q := r.builder.Select(accountCols...).From(accountsTable)

	if f.Role != nil {
		q = q.Where(squirrel.Eq{"role": *f.Role})
	}
	if f.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *f.IsActive})
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

	var accounts []account.Account
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &accounts, sql, args...); err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return accounts, nil
}
