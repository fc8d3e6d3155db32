package postgres

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

// Row mirrors the documentos table contract. The remote schema is looser
// than the domain: every field except id and created_at is nullable, so the
// mapper owns the defaulting.
type Row struct {
	ID            int64
	Titulo        sql.NullString
	FileName      sql.NullString
	ArchivoURL    sql.NullString
	TipoDocumento sql.NullString
	Urgencia      sql.NullString
	Estado        sql.NullString
	DescripcionIA sql.NullString
	Tags          []byte
	CreatedAt     time.Time
	AssignedTo    sql.NullString
	AssignedArea  sql.NullString
}

// FromRow is total: every missing remote field gets a defined default.
func FromRow(r Row) domain.DocumentRecord {
	title := r.Titulo.String
	if title == "" {
		title = "Sin Título"
	}
	fileName := r.FileName.String
	if fileName == "" {
		fileName = "documento.pdf"
	}

	tags := []string{}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &tags); err != nil {
			tags = []string{}
		}
	}

	return domain.DocumentRecord{
		ID:       strconv.FormatInt(r.ID, 10),
		Title:    title,
		FileName: fileName,
		FileURL:  r.ArchivoURL.String,
		Type:     domain.ParseDocumentType(r.TipoDocumento.String),
		Urgency:  domain.ParseUrgency(r.Urgencia.String),
		Status:   domain.ParseStatus(r.Estado.String),
		Summary:  r.DescripcionIA.String,
		// The remote schema has no last_modified column; created_at is the
		// closest proxy.
		CreatedAt:    r.CreatedAt,
		LastModified: r.CreatedAt,
		Tags:         tags,
		AssignedTo:   r.AssignedTo.String,
		AssignedArea: r.AssignedArea.String,
	}
}

// ToRow emits exactly the remote field set; client-only state (LastModified)
// is dropped. A non-numeric record id maps to zero — the store assigns real
// ids on insert.
func ToRow(rec domain.DocumentRecord) Row {
	id, err := strconv.ParseInt(rec.ID, 10, 64)
	if err != nil {
		id = 0
	}

	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		tagsJSON = []byte("[]")
	}

	return Row{
		ID:            id,
		Titulo:        nullable(rec.Title),
		FileName:      nullable(rec.FileName),
		ArchivoURL:    nullable(rec.FileURL),
		TipoDocumento: nullable(string(rec.Type)),
		Urgencia:      nullable(string(rec.Urgency)),
		Estado:        nullable(string(rec.Status)),
		DescripcionIA: nullable(rec.Summary),
		Tags:          tagsJSON,
		CreatedAt:     rec.CreatedAt,
		AssignedTo:    nullable(rec.AssignedTo),
		AssignedArea:  nullable(rec.AssignedArea),
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
