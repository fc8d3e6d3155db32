package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documentos (
	id BIGSERIAL PRIMARY KEY,
	titulo TEXT,
	file_name TEXT,
	archivo_url TEXT,
	tipo_documento TEXT,
	urgencia TEXT,
	estado TEXT,
	descripcion_ia TEXT,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	assigned_to TEXT,
	assigned_area TEXT
);

CREATE INDEX IF NOT EXISTS idx_documentos_estado ON documentos(estado);
CREATE INDEX IF NOT EXISTS idx_documentos_created_at ON documentos(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const selectColumns = `id, titulo, file_name, archivo_url, tipo_documento, urgencia, estado, descripcion_ia, tags, created_at, assigned_to, assigned_area`

func (r *DocumentRepository) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+selectColumns+`
FROM documentos
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list documentos: %w", err)
	}
	defer rows.Close()

	var records []domain.DocumentRecord
	for rows.Next() {
		var row Row
		err := rows.Scan(
			&row.ID, &row.Titulo, &row.FileName, &row.ArchivoURL, &row.TipoDocumento,
			&row.Urgencia, &row.Estado, &row.DescripcionIA, &row.Tags, &row.CreatedAt,
			&row.AssignedTo, &row.AssignedArea,
		)
		if err != nil {
			return nil, fmt.Errorf("scan documento: %w", err)
		}
		records = append(records, FromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documentos: %w", err)
	}
	return records, nil
}

// Insert writes the remote field set; id and created_at are store-assigned.
func (r *DocumentRepository) Insert(ctx context.Context, rec domain.DocumentRecord) error {
	row := ToRow(rec)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documentos (
	titulo, file_name, archivo_url, tipo_documento, urgencia, estado, descripcion_ia, tags, assigned_to, assigned_area
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		row.Titulo, row.FileName, row.ArchivoURL, row.TipoDocumento, row.Urgencia,
		row.Estado, row.DescripcionIA, row.Tags, row.AssignedTo, row.AssignedArea,
	)
	if err != nil {
		return fmt.Errorf("insert documento: %w", err)
	}
	return nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documentos SET estado = $2 WHERE id = $1
`, id, string(status))
	if err != nil {
		return fmt.Errorf("update estado: %w", err)
	}
	return requireRow(result, "update estado", id)
}

func (r *DocumentRepository) UpdateAssignment(ctx context.Context, id int64, assignee, area string, status domain.Status) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documentos SET assigned_to = $2, assigned_area = $3, estado = $4 WHERE id = $1
`, id, assignee, area, string(status))
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return requireRow(result, "update assignment", id)
}

func (r *DocumentRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documentos SET titulo = $2 WHERE id = $1
`, id, title)
	if err != nil {
		return fmt.Errorf("update titulo: %w", err)
	}
	return requireRow(result, "update titulo", id)
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM documentos WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("delete documento: %w", err)
	}
	return requireRow(result, "delete documento", id)
}

func requireRow(result sql.Result, operation string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %d", id))
	}
	return nil
}
