package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestListMapsRowsWithDefaults(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "titulo", "file_name", "archivo_url", "tipo_documento", "urgencia",
		"estado", "descripcion_ia", "tags", "created_at", "assigned_to", "assigned_area",
	}).
		AddRow(int64(12), "Oficio Circular", "oficio.pdf", "https://x/oficio.pdf", "Oficio", "Media",
			"Recibido", "Actualiza protocolos.", []byte(`["TI"]`), created, "Por Asignar", "TI").
		AddRow(int64(11), nil, nil, nil, nil, nil, nil, nil, []byte(`[]`), created, nil, nil)

	mock.ExpectQuery("SELECT id, titulo, file_name").WillReturnRows(rows)

	records, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "12" || records[0].Type != domain.TypeOficio {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].Title != "Sin Título" || records[1].Status != domain.StatusRecibido {
		t.Fatalf("null row must map to defaults, got %+v", records[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertSendsRemoteFieldSetOnly(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO documentos").
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), domain.DocumentRecord{
		ID:       "DOC-2026-4811",
		Title:    "Memorando APEC",
		FileName: "memo.docx",
		Type:     domain.TypeMemorando,
		Urgency:  domain.UrgencyMedia,
		Status:   domain.StatusRecibido,
		Tags:     []string{"Presupuesto"},
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documentos SET estado").
		WithArgs(int64(99), string(domain.StatusArchivado)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 99, domain.StatusArchivado)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM documentos").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateAssignmentForcesReviewStatus(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documentos SET assigned_to").
		WithArgs(int64(3), "Dr. Ricardo Solís", "Asuntos Legales", string(domain.StatusEnRevision)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateAssignment(context.Background(), 3, "Dr. Ricardo Solís", "Asuntos Legales", domain.StatusEnRevision)
	if err != nil {
		t.Fatalf("UpdateAssignment() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
