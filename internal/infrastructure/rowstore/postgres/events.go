package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

// EventRepository persists the audit trail written by the worker.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082902)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documento_eventos (
	id BIGSERIAL PRIMARY KEY,
	kind TEXT NOT NULL,
	document_id TEXT,
	message TEXT,
	reconciliation TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documento_eventos_document_id ON documento_eventos(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *EventRepository) Append(ctx context.Context, evt domain.Event) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documento_eventos (kind, document_id, message, reconciliation, created_at)
VALUES ($1,$2,$3,$4,$5)
`, string(evt.Kind), evt.DocumentID, evt.Message, evt.Reconciliation, evt.At)
	if err != nil {
		return fmt.Errorf("insert evento: %w", err)
	}
	return nil
}
