package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
)

// AuditAction identifies the kind of audited operation.
type AuditAction string

const (
	AuditActionUpdate     AuditAction = "update"
	AuditActionPurge      AuditAction = "purge"
	AuditActionCancel     AuditAction = "cancel"
	AuditActionDeactivate AuditAction = "deactivate"
	AuditActionDelete     AuditAction = "delete"
)

// CompressionAlgo names the compression applied to the details payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry is one row of the audit trail.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            AuditAction     `db:"action"`
	UserID            string          `db:"user_id"`
	UserName          string          `db:"user_name"`
	Details           json.RawMessage `db:"details"`
	DetailsCompressed []byte          `db:"details_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditTrail records destructive and administrative operations. Large
// detail payloads are stored zstd-compressed. Writes join the caller's
// transaction, so a rolled-back purge leaves no trail row.
type AuditTrail struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditTrail creates an audit trail backed by the audit_log table.
func NewAuditTrail(txm *TxManager) (*AuditTrail, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditTrail{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record writes one audit entry. Missing actor fields are filled from the
// authenticated user in context.
func (t *AuditTrail) Record(ctx context.Context, entry AuditEntry) error {
	if user := appctx.GetUser(ctx); user != nil {
		if entry.UserID == "" {
			entry.UserID = user.UserID
		}
		if entry.UserName == "" {
			entry.UserName = user.Name
		}
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Details) > t.compressThreshold {
		entry.DetailsCompressed = t.encoder.EncodeAll(entry.Details, nil)
		entry.Details = nil
		entry.CompressionAlgo = CompressionZstd
	}

	query := `
		INSERT INTO audit_log (
			id, entity_type, entity_id, action, user_id, user_name,
			details, details_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	querier := t.txm.GetQuerier(ctx)
	_, err := querier.Exec(ctx, query,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action,
		entry.UserID, entry.UserName,
		entry.Details, entry.DetailsCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// RecordChange marshals details and records them against an entity.
func (t *AuditTrail) RecordChange(ctx context.Context, entityType string, entityID id.ID, action AuditAction, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	return t.Record(ctx, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    payload,
	})
}

// EntityHistory returns the newest audit entries for an entity, with
// compressed payloads expanded.
func (t *AuditTrail) EntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, user_id, user_name,
		       details, details_compressed, compression_algo, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	var entries []AuditEntry
	querier := t.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, query, entityType, entityID, limit); err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		if e.CompressionAlgo == CompressionZstd && len(e.DetailsCompressed) > 0 {
			expanded, err := t.decoder.DecodeAll(e.DetailsCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit details: %w", err)
			}
			e.Details = expanded
			e.DetailsCompressed = nil
		}
	}
	return entries, nil
}
