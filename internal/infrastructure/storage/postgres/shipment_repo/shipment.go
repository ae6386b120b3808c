// Package shipment_repo provides the PostgreSQL shipment repository.
// Endpoints and lines are stored as JSONB; line quantities are frozen at
// create time and never updated in place.
package shipment_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/shipment"
	"stockflow/internal/infrastructure/storage/postgres"
)

const shipmentsTable = "shipments"

var shipmentCols = []string{
	"id", "from_endpoint", "to_endpoint", "lines", "status",
	"created_by", "notes", "created_at", "last_updated",
}

var _ shipment.Repository = (*ShipmentRepo)(nil)

// ShipmentRepo implements shipment.Repository.
type ShipmentRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewShipmentRepo creates a new shipment repository.
func NewShipmentRepo(txm *postgres.TxManager) *ShipmentRepo {
	return &ShipmentRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func marshalJSON(v any, what string) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", what, err)
	}
	return raw, nil
}

// Create inserts a new shipment.
func (r *ShipmentRepo) Create(ctx context.Context, sh *shipment.Shipment) error {
	from, err := marshalJSON(sh.From, "from endpoint")
	if err != nil {
		return err
	}
	to, err := marshalJSON(sh.To, "to endpoint")
	if err != nil {
		return err
	}
	lines, err := marshalJSON(sh.Lines, "lines")
	if err != nil {
		return err
	}

	q := r.builder.Insert(shipmentsTable).
		Columns(shipmentCols...).
		Values(sh.ID, from, to, lines, sh.Status,
			sh.CreatedBy, sh.Notes, sh.CreatedAt, sh.LastUpdated)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// GetByID returns a shipment by ID.
func (r *ShipmentRepo) GetByID(ctx context.Context, shipmentID id.ID) (*shipment.Shipment, error) {
	q := r.builder.Select(shipmentCols...).
		From(shipmentsTable).
		Where(squirrel.Eq{"id": shipmentID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sh shipment.Shipment
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &sh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("shipment", shipmentID)
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return &sh, nil
}

// List returns shipments matching the filter, newest first.
func (r *ShipmentRepo) List(ctx context.Context, f shipment.Filter) ([]shipment.Shipment, error) {
	q := r.builder.Select(shipmentCols...).From(shipmentsTable)

	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.LocationID != nil {
		q = q.Where(squirrel.Expr(
			"(from_endpoint->>'id' = ? OR to_endpoint->>'id' = ?)",
			f.LocationID.String(), f.LocationID.String(),
		))
	}
	if f.ProductID != nil {
		member, err := marshalJSON([]map[string]string{{"productId": f.ProductID.String()}}, "product filter")
		if err != nil {
			return nil, err
		}
		q = q.Where(squirrel.Expr("lines @> ?", member))
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

	var shipments []shipment.Shipment
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &shipments, sql, args...); err != nil {
		return nil, fmt.Errorf("select shipments: %w", err)
	}
	return shipments, nil
}

// UpdateStatusIf transitions the status atomically. Zero rows affected
// means a concurrent transition won; the caller must not apply movements.
func (r *ShipmentRepo) UpdateStatusIf(ctx context.Context, shipmentID id.ID, from, to shipment.Status) error {
	sql := `
		UPDATE shipments SET status = $3, last_updated = now()
		WHERE id = $1 AND status = $2
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, shipmentID, from, to)
	if err != nil {
		return fmt.Errorf("update shipment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewAlreadyProcessed("shipment", shipmentID)
	}
	return nil
}

// UpdateDestination replaces the destination endpoint and notes.
func (r *ShipmentRepo) UpdateDestination(ctx context.Context, shipmentID id.ID, to shipment.Endpoint, notes string) error {
	raw, err := marshalJSON(to, "to endpoint")
	if err != nil {
		return err
	}

	q := r.builder.Update(shipmentsTable).
		Set("to_endpoint", raw).
		Set("notes", notes).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": shipmentID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update shipment destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("shipment", shipmentID)
	}
	return nil
}

// StripProductLines removes the product's lines from every shipment and
// deletes shipments left empty. Returns the number of shipments touched.
func (r *ShipmentRepo) StripProductLines(ctx context.Context, productID id.ID) (int, error) {
	member, err := marshalJSON([]map[string]string{{"productId": productID.String()}}, "product filter")
	if err != nil {
		return 0, err
	}

	querier := r.txm.GetQuerier(ctx)

	stripSQL := `
		UPDATE shipments SET
			lines = (
				SELECT COALESCE(jsonb_agg(line), '[]'::jsonb)
				FROM jsonb_array_elements(lines) AS line
				WHERE line->>'productId' <> $2
			),
			last_updated = now()
		WHERE lines @> $1
	`
	tag, err := querier.Exec(ctx, stripSQL, member, productID.String())
	if err != nil {
		return 0, fmt.Errorf("strip shipment lines: %w", err)
	}
	touched := int(tag.RowsAffected())

	if _, err := querier.Exec(ctx, "DELETE FROM shipments WHERE lines = '[]'::jsonb"); err != nil {
		return touched, fmt.Errorf("delete empty shipments: %w", err)
	}
	return touched, nil
}

// ListActiveByLocation returns in-transit shipments touching the location.
func (r *ShipmentRepo) ListActiveByLocation(ctx context.Context, locationID id.ID) ([]shipment.Shipment, error) {
	status := shipment.StatusInTransit
	return r.List(ctx, shipment.Filter{Status: &status, LocationID: &locationID})
}

// DeleteByLocation removes all shipments referencing the location.
func (r *ShipmentRepo) DeleteByLocation(ctx context.Context, locationID id.ID) (int, error) {
	sql := `
		DELETE FROM shipments
		WHERE from_endpoint->>'id' = $1 OR to_endpoint->>'id' = $1
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, locationID.String())
	if err != nil {
		return 0, fmt.Errorf("delete shipments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
