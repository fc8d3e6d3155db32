package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/expedium/mesa-partes/internal/core/domain"
	"github.com/expedium/mesa-partes/internal/core/ports"
	"github.com/expedium/mesa-partes/internal/infrastructure/resilience"
)

type fakeRows struct {
	listed  []domain.DocumentRecord
	listErr error

	insertErr error
	inserted  []domain.DocumentRecord

	statusErr   error
	statusCalls []int64
	assignErr   error
	assignCalls []int64
	titleErr    error
	titleCalls  []int64
	deleteErr   error
	deleteCalls []int64
}

func (f *fakeRows) List(context.Context) ([]domain.DocumentRecord, error) {
	return f.listed, f.listErr
}

func (f *fakeRows) Insert(_ context.Context, rec domain.DocumentRecord) error {
	f.inserted = append(f.inserted, rec)
	return f.insertErr
}

func (f *fakeRows) UpdateStatus(_ context.Context, id int64, _ domain.Status) error {
	f.statusCalls = append(f.statusCalls, id)
	return f.statusErr
}

func (f *fakeRows) UpdateAssignment(_ context.Context, id int64, _, _ string, _ domain.Status) error {
	f.assignCalls = append(f.assignCalls, id)
	return f.assignErr
}

func (f *fakeRows) UpdateTitle(_ context.Context, id int64, _ string) error {
	f.titleCalls = append(f.titleCalls, id)
	return f.titleErr
}

func (f *fakeRows) Delete(_ context.Context, id int64) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

type fakeSink struct {
	events []domain.Event
}

func (f *fakeSink) Publish(_ context.Context, evt domain.Event) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeSink) notices() []string {
	var out []string
	for _, evt := range f.events {
		if evt.Kind == domain.EventNotice {
			out = append(out, evt.Message)
		}
	}
	return out
}

func newTestStore(rows *fakeRows, sink *fakeSink) *Store {
	var r ports.DocumentRows
	if rows != nil {
		r = rows
	}
	var e ports.EventSink
	if sink != nil {
		e = sink
	}
	return New(r, e, resilience.NewGuard(resilience.Config{}))
}

func record(id string, status domain.Status, urgency domain.Urgency, createdAt time.Time) domain.DocumentRecord {
	return domain.DocumentRecord{
		ID:        id,
		Title:     "Documento " + id,
		FileName:  id + ".pdf",
		Type:      domain.TypeOficio,
		Urgency:   urgency,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestAddRefreshesAfterSuccessfulInsert(t *testing.T) {
	serverCopy := record("42", domain.StatusRecibido, domain.UrgencyAlta, time.Now())
	rows := &fakeRows{listed: []domain.DocumentRecord{serverCopy}}
	sink := &fakeSink{}
	store := newTestStore(rows, sink)

	outcome, err := store.Add(context.Background(), record("DOC-2026-0001", domain.StatusRecibido, domain.UrgencyAlta, time.Now()))
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if outcome != ReconciliationRefreshed {
		t.Fatalf("outcome = %q, want %q", outcome, ReconciliationRefreshed)
	}
	if len(rows.inserted) != 1 {
		t.Fatalf("inserted %d records, want 1", len(rows.inserted))
	}

	snap := store.Snapshot()
	if len(snap) != 1 || snap[0].ID != "42" {
		t.Fatalf("snapshot after refresh = %+v, want server copy with id 42", snap)
	}
}

func TestAddKeepsLocalRecordWhenInsertFails(t *testing.T) {
	rows := &fakeRows{insertErr: errors.New("connection refused")}
	sink := &fakeSink{}
	store := newTestStore(rows, sink)

	outcome, err := store.Add(context.Background(), record("DOC-2026-0002", domain.StatusRecibido, domain.UrgencyMedia, time.Now()))
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if outcome != ReconciliationKept {
		t.Fatalf("outcome = %q, want %q", outcome, ReconciliationKept)
	}

	snap := store.Snapshot()
	if len(snap) != 1 || snap[0].ID != "DOC-2026-0002" {
		t.Fatalf("local record missing after failed insert: %+v", snap)
	}
	notices := sink.notices()
	if len(notices) != 1 || notices[0] != "Error al guardar en base de datos." {
		t.Fatalf("notices = %v, want save failure notice", notices)
	}
}

func TestUpdateStatusKeepsLocalChangeWhenRemoteFails(t *testing.T) {
	rows := &fakeRows{statusErr: errors.New("timeout")}
	sink := &fakeSink{}
	store := newTestStore(rows, sink)
	store.docs = []domain.DocumentRecord{record("7", domain.StatusRecibido, domain.UrgencyBaja, time.Now())}

	outcome, err := store.UpdateStatus(context.Background(), "7", domain.StatusArchivado)
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if outcome != ReconciliationKept {
		t.Fatalf("outcome = %q, want %q", outcome, ReconciliationKept)
	}

	rec, err := store.Get("7")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != domain.StatusArchivado {
		t.Fatalf("status = %q, drifted local change should stand", rec.Status)
	}
	notices := sink.notices()
	if len(notices) != 1 || notices[0] != "No se pudo actualizar el estado en el servidor." {
		t.Fatalf("notices = %v", notices)
	}
}

func TestUpdateStatusSkipsRemoteForTemporaryID(t *testing.T) {
	rows := &fakeRows{}
	store := newTestStore(rows, &fakeSink{})
	store.docs = []domain.DocumentRecord{record("DOC-2026-0400", domain.StatusRecibido, domain.UrgencyBaja, time.Now())}

	outcome, err := store.UpdateStatus(context.Background(), "DOC-2026-0400", domain.StatusEnRevision)
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if outcome != ReconciliationSkipped {
		t.Fatalf("outcome = %q, want %q", outcome, ReconciliationSkipped)
	}
	if len(rows.statusCalls) != 0 {
		t.Fatalf("remote UpdateStatus called %d times for a temporary id", len(rows.statusCalls))
	}

	rec, _ := store.Get("DOC-2026-0400")
	if rec.Status != domain.StatusEnRevision {
		t.Fatalf("local change not applied, status = %q", rec.Status)
	}
}

func TestDeleteRollsBackByRefreshingWhenRemoteFails(t *testing.T) {
	kept := record("9", domain.StatusEnRevision, domain.UrgencyAlta, time.Now())
	rows := &fakeRows{
		deleteErr: errors.New("permission denied"),
		listed:    []domain.DocumentRecord{kept},
	}
	sink := &fakeSink{}
	store := newTestStore(rows, sink)
	store.docs = []domain.DocumentRecord{kept}

	outcome, err := store.Delete(context.Background(), "9")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if outcome != ReconciliationRolledBack {
		t.Fatalf("outcome = %q, want %q", outcome, ReconciliationRolledBack)
	}

	if _, err := store.Get("9"); err != nil {
		t.Fatalf("record should be restored after rollback, got %v", err)
	}
	notices := sink.notices()
	if len(notices) != 1 || notices[0] != "Error al eliminar documento." {
		t.Fatalf("notices = %v", notices)
	}
}

func TestRenameRollsBackWhenRemoteFails(t *testing.T) {
	original := record("11", domain.StatusRecibido, domain.UrgencyMedia, time.Now())
	rows := &fakeRows{
		titleErr: errors.New("deadlock"),
		listed:   []domain.DocumentRecord{original},
	}
	store := newTestStore(rows, &fakeSink{})
	store.docs = []domain.DocumentRecord{original}

	outcome, err := store.Rename(context.Background(), "11", "Título corregido")
	if err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	if outcome != ReconciliationRolledBack {
		t.Fatalf("outcome = %q, want %q", outcome, ReconciliationRolledBack)
	}

	rec, _ := store.Get("11")
	if rec.Title != original.Title {
		t.Fatalf("title = %q, want original %q restored", rec.Title, original.Title)
	}
}

func TestRenameRejectsEmptyTitle(t *testing.T) {
	store := newTestStore(nil, nil)
	store.docs = []domain.DocumentRecord{record("1", domain.StatusRecibido, domain.UrgencyBaja, time.Now())}

	if _, err := store.Rename(context.Background(), "1", "   "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestReassignReopensArchivedRecord(t *testing.T) {
	rows := &fakeRows{}
	store := newTestStore(rows, &fakeSink{})
	store.docs = []domain.DocumentRecord{record("5", domain.StatusArchivado, domain.UrgencyBaja, time.Now())}

	outcome, err := store.Reassign(context.Background(), "5", "Mariana Rodríguez", "Asuntos Consulares")
	if err != nil {
		t.Fatalf("Reassign returned error: %v", err)
	}
	if outcome != ReconciliationConfirmed {
		t.Fatalf("outcome = %q, want %q", outcome, ReconciliationConfirmed)
	}

	rec, _ := store.Get("5")
	if rec.Status != domain.StatusEnRevision {
		t.Fatalf("status = %q, reassignment must reopen the record", rec.Status)
	}
	if rec.AssignedTo != "Mariana Rodríguez" || rec.AssignedArea != "Asuntos Consulares" {
		t.Fatalf("assignment not applied: %+v", rec)
	}
}

func TestMutationsOnUnknownIDReturnNotFound(t *testing.T) {
	store := newTestStore(nil, nil)
	ctx := context.Background()

	if _, err := store.UpdateStatus(ctx, "999", domain.StatusArchivado); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("UpdateStatus err = %v, want ErrDocumentNotFound", err)
	}
	if _, err := store.Delete(ctx, "999"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("Delete err = %v, want ErrDocumentNotFound", err)
	}
	if _, err := store.Reassign(ctx, "999", "x", "y"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("Reassign err = %v, want ErrDocumentNotFound", err)
	}
}

func TestInboxOrdersByUrgencyThenRecency(t *testing.T) {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	a := record("1", domain.StatusRecibido, domain.UrgencyBaja, base)
	b := record("2", domain.StatusRecibido, domain.UrgencyAlta, base.Add(time.Hour))
	c := record("3", domain.StatusRecibido, domain.UrgencyAlta, base.Add(2*time.Hour))
	archived := record("4", domain.StatusArchivado, domain.UrgencyAlta, base.Add(3*time.Hour))

	store := newTestStore(nil, nil)
	store.docs = []domain.DocumentRecord{a, b, c, archived}

	got := store.Inbox("")
	want := []string{"3", "2", "1"}
	if len(got) != len(want) {
		t.Fatalf("inbox size = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("inbox[%d] = %q, want %q (full order %+v)", i, got[i].ID, id, got)
		}
	}
}

func TestInboxFiltersByType(t *testing.T) {
	carta := record("1", domain.StatusRecibido, domain.UrgencyMedia, time.Now())
	carta.Type = domain.TypeCarta
	oficio := record("2", domain.StatusRecibido, domain.UrgencyMedia, time.Now())

	store := newTestStore(nil, nil)
	store.docs = []domain.DocumentRecord{carta, oficio}

	got := store.Inbox(domain.TypeCarta)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("filtered inbox = %+v, want only the carta", got)
	}
}

func TestSearchMatchesTitleAndID(t *testing.T) {
	first := record("12", domain.StatusRecibido, domain.UrgencyBaja, time.Now())
	first.Title = "Oficio sobre presupuesto anual"
	second := record("34", domain.StatusArchivado, domain.UrgencyBaja, time.Now())
	second.Title = "Carta de agradecimiento"

	store := newTestStore(nil, nil)
	store.docs = []domain.DocumentRecord{first, second}

	if got := store.Search("PRESUPUESTO", "", ""); len(got) != 1 || got[0].ID != "12" {
		t.Fatalf("title search = %+v", got)
	}
	if got := store.Search("34", "", ""); len(got) != 1 || got[0].ID != "34" {
		t.Fatalf("id search = %+v", got)
	}
	if got := store.Search("", "", domain.StatusArchivado); len(got) != 1 || got[0].ID != "34" {
		t.Fatalf("status filter = %+v", got)
	}
}

func TestSummarizeCountsByStatus(t *testing.T) {
	store := newTestStore(nil, nil)
	store.docs = []domain.DocumentRecord{
		record("1", domain.StatusRecibido, domain.UrgencyBaja, time.Now()),
		record("2", domain.StatusRecibido, domain.UrgencyBaja, time.Now()),
		record("3", domain.StatusEnRevision, domain.UrgencyBaja, time.Now()),
		record("4", domain.StatusArchivado, domain.UrgencyBaja, time.Now()),
	}

	sum := store.Summarize()
	if sum.Total != 4 || sum.Recibidos != 2 || sum.EnRevision != 1 || sum.Archivados != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}
