// Package docstore keeps the working set of document records in memory and
// mirrors every mutation to the remote row store. Mutations apply locally
// first so the dashboard never waits on the database; the remote write runs
// afterwards and its outcome decides whether the local state is confirmed,
// reloaded, or kept as-is with a notice.
package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/expedium/mesa-partes/internal/core/domain"
	"github.com/expedium/mesa-partes/internal/core/ports"
	"github.com/expedium/mesa-partes/internal/infrastructure/resilience"
)

// Reconciliation names how a mutation's local and remote states settled.
type Reconciliation string

const (
	// ReconciliationConfirmed: the remote write succeeded, local state stands.
	ReconciliationConfirmed Reconciliation = "confirmed"
	// ReconciliationRefreshed: the working set was reloaded from the remote
	// store after the write, replacing the local copy.
	ReconciliationRefreshed Reconciliation = "refreshed"
	// ReconciliationRolledBack: the remote write failed and the working set
	// was reloaded, undoing the local change.
	ReconciliationRolledBack Reconciliation = "rolled_back"
	// ReconciliationKept: the remote write failed but the local change stays;
	// a notice tells the operator about the drift.
	ReconciliationKept Reconciliation = "kept"
	// ReconciliationSkipped: no remote write was attempted, either because the
	// store is offline or the record never had a remote row.
	ReconciliationSkipped Reconciliation = "skipped"
)

// Store is the in-memory document collection. rows may be nil (offline mode:
// every mutation reconciles as skipped) and events may be nil (notices are
// dropped). All methods are safe for concurrent use; concurrent writers to
// the same record settle last-writer-wins under the store mutex.
type Store struct {
	mu     sync.Mutex
	docs   []domain.DocumentRecord
	rows   ports.DocumentRows
	events ports.EventSink
	guard  *resilience.Guard

	observe func(operation string, outcome Reconciliation)
	now     func() time.Time
}

func New(rows ports.DocumentRows, events ports.EventSink, guard *resilience.Guard) *Store {
	return &Store{
		rows:   rows,
		events: events,
		guard:  guard,
		now:    time.Now,
	}
}

// Observe registers a callback invoked once per mutation with its settled
// reconciliation outcome. Used to feed metrics.
func (s *Store) Observe(fn func(operation string, outcome Reconciliation)) {
	s.observe = fn
}

// Refresh replaces the working set with the remote rows. A nil row store
// leaves the local set untouched.
func (s *Store) Refresh(ctx context.Context) error {
	if s.rows == nil {
		return nil
	}

	var fetched []domain.DocumentRecord
	err := s.guard.Do(ctx, "rows.list", func(ctx context.Context) error {
		var listErr error
		fetched, listErr = s.rows.List(ctx)
		return listErr
	})
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "refresh documents", err)
	}

	s.mu.Lock()
	s.docs = fetched
	s.mu.Unlock()
	return nil
}

// Add prepends the record locally, then inserts it remotely. On success the
// working set is reloaded so the record picks up its server-assigned id; on
// failure the local record stays under its temporary id.
func (s *Store) Add(ctx context.Context, rec domain.DocumentRecord) (Reconciliation, error) {
	s.mu.Lock()
	s.docs = append([]domain.DocumentRecord{rec}, s.docs...)
	s.mu.Unlock()

	if s.rows == nil {
		s.publishLifecycle(ctx, domain.EventRegistered, rec.ID, ReconciliationSkipped)
		return ReconciliationSkipped, nil
	}

	err := s.guard.Do(ctx, "rows.insert", func(ctx context.Context) error {
		return s.rows.Insert(ctx, rec)
	})
	if err != nil {
		slog.Warn("document_insert_failed", "document_id", rec.ID, "error", err)
		s.notify(ctx, rec.ID, "Error al guardar en base de datos.")
		s.publishLifecycle(ctx, domain.EventRegistered, rec.ID, ReconciliationKept)
		return ReconciliationKept, nil
	}

	if err := s.Refresh(ctx); err != nil {
		slog.Warn("refresh_after_insert_failed", "document_id", rec.ID, "error", err)
		s.publishLifecycle(ctx, domain.EventRegistered, rec.ID, ReconciliationKept)
		return ReconciliationKept, nil
	}
	s.publishLifecycle(ctx, domain.EventRegistered, rec.ID, ReconciliationRefreshed)
	return ReconciliationRefreshed, nil
}

// UpdateStatus moves the record to the given workflow status. The remote
// write failing keeps the local change and raises a notice.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) (Reconciliation, error) {
	now := s.now()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", domain.WrapError(domain.ErrDocumentNotFound, "update status", fmt.Errorf("document %q", id))
	}
	if err := domain.Transition(&s.docs[idx], status, now); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	outcome := s.commit(ctx, id, "rows.update_status", "No se pudo actualizar el estado en el servidor.", keepOnFailure,
		func(ctx context.Context, remoteID int64) error {
			return s.rows.UpdateStatus(ctx, remoteID, status)
		})
	s.publishLifecycle(ctx, domain.EventStatusChanged, id, outcome)
	return outcome, nil
}

// Reassign hands the record to a new responsible party and reopens it for
// review.
func (s *Store) Reassign(ctx context.Context, id, assignee, area string) (Reconciliation, error) {
	now := s.now()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", domain.WrapError(domain.ErrDocumentNotFound, "reassign", fmt.Errorf("document %q", id))
	}
	domain.Reassign(&s.docs[idx], assignee, area, now)
	s.mu.Unlock()

	outcome := s.commit(ctx, id, "rows.update_assignment", "Error al reasignar en base de datos.", keepOnFailure,
		func(ctx context.Context, remoteID int64) error {
			return s.rows.UpdateAssignment(ctx, remoteID, assignee, area, domain.StatusEnRevision)
		})
	s.publishLifecycle(ctx, domain.EventReassigned, id, outcome)
	return outcome, nil
}

// Rename changes the record title. Unlike status changes, a failed remote
// write rolls the title back by reloading the working set.
func (s *Store) Rename(ctx context.Context, id, title string) (Reconciliation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "rename", fmt.Errorf("empty title"))
	}
	now := s.now()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", domain.WrapError(domain.ErrDocumentNotFound, "rename", fmt.Errorf("document %q", id))
	}
	s.docs[idx].Title = title
	s.docs[idx].LastModified = now
	s.mu.Unlock()

	outcome := s.commit(ctx, id, "rows.update_title", "Error al renombrar el documento.", rollbackOnFailure,
		func(ctx context.Context, remoteID int64) error {
			return s.rows.UpdateTitle(ctx, remoteID, title)
		})
	s.publishLifecycle(ctx, domain.EventRenamed, id, outcome)
	return outcome, nil
}

// Delete removes the record locally, then remotely. A failed remote delete
// reloads the working set, which restores the record.
func (s *Store) Delete(ctx context.Context, id string) (Reconciliation, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", domain.WrapError(domain.ErrDocumentNotFound, "delete", fmt.Errorf("document %q", id))
	}
	s.docs = append(s.docs[:idx], s.docs[idx+1:]...)
	s.mu.Unlock()

	outcome := s.commit(ctx, id, "rows.delete", "Error al eliminar documento.", rollbackOnFailure,
		func(ctx context.Context, remoteID int64) error {
			return s.rows.Delete(ctx, remoteID)
		})
	s.publishLifecycle(ctx, domain.EventDeleted, id, outcome)
	return outcome, nil
}

type failurePolicy int

const (
	keepOnFailure failurePolicy = iota
	rollbackOnFailure
)

// commit runs the remote half of a mutation. Records whose id never became a
// server integer (offline registrations) have no remote row, so the write is
// skipped and the local change stands.
func (s *Store) commit(ctx context.Context, id, operation, notice string, policy failurePolicy, fn func(context.Context, int64) error) Reconciliation {
	if s.rows == nil {
		return ReconciliationSkipped
	}
	remoteID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ReconciliationSkipped
	}

	err = s.guard.Do(ctx, operation, func(ctx context.Context) error {
		return fn(ctx, remoteID)
	})
	if err == nil {
		return ReconciliationConfirmed
	}

	slog.Warn("remote_commit_failed", "operation", operation, "document_id", id, "error", err)
	s.notify(ctx, id, notice)
	if policy == keepOnFailure {
		return ReconciliationKept
	}
	if err := s.Refresh(ctx); err != nil {
		slog.Warn("rollback_refresh_failed", "operation", operation, "document_id", id, "error", err)
		return ReconciliationKept
	}
	return ReconciliationRolledBack
}

// Snapshot returns a copy of the working set in its current order.
func (s *Store) Snapshot() []domain.DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DocumentRecord, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *Store) Get(id string) (domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.DocumentRecord{}, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("document %q", id))
	}
	return s.docs[idx], nil
}

// Inbox returns pending records (status Recibido), most urgent first and
// newest first within the same urgency. typeFilter narrows by document type
// when non-empty.
func (s *Store) Inbox(typeFilter domain.DocumentType) []domain.DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.DocumentRecord
	for _, rec := range s.docs {
		if rec.Status != domain.StatusRecibido {
			continue
		}
		if typeFilter != "" && rec.Type != typeFilter {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgency.Rank() != out[j].Urgency.Rank() {
			return out[i].Urgency.Rank() > out[j].Urgency.Rank()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Search filters the working set by a case-insensitive term matched against
// title and id, plus optional type and status filters. Empty arguments do
// not filter.
func (s *Store) Search(term string, typeFilter domain.DocumentType, statusFilter domain.Status) []domain.DocumentRecord {
	needle := strings.ToLower(strings.TrimSpace(term))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.DocumentRecord, 0, len(s.docs))
	for _, rec := range s.docs {
		if needle != "" &&
			!strings.Contains(strings.ToLower(rec.Title), needle) &&
			!strings.Contains(strings.ToLower(rec.ID), needle) {
			continue
		}
		if typeFilter != "" && rec.Type != typeFilter {
			continue
		}
		if statusFilter != "" && rec.Status != statusFilter {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Summary counts the working set by workflow status.
type Summary struct {
	Total      int `json:"total"`
	Recibidos  int `json:"recibidos"`
	EnRevision int `json:"en_revision"`
	Archivados int `json:"archivados"`
}

func (s *Store) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Total: len(s.docs)}
	for _, rec := range s.docs {
		switch rec.Status {
		case domain.StatusRecibido:
			sum.Recibidos++
		case domain.StatusEnRevision:
			sum.EnRevision++
		case domain.StatusArchivado:
			sum.Archivados++
		}
	}
	return sum
}

func (s *Store) indexLocked(id string) int {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publishLifecycle(ctx context.Context, kind domain.EventKind, id string, outcome Reconciliation) {
	if s.observe != nil {
		s.observe(string(kind), outcome)
	}
	if s.events == nil {
		return
	}
	evt := domain.Event{
		Kind:           kind,
		DocumentID:     id,
		Reconciliation: string(outcome),
		At:             s.now().UTC(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("event_publish_failed", "kind", kind, "document_id", id, "error", err)
	}
}

func (s *Store) notify(ctx context.Context, id, message string) {
	if s.events == nil {
		return
	}
	evt := domain.Event{
		Kind:       domain.EventNotice,
		DocumentID: id,
		Message:    message,
		At:         s.now().UTC(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("notice_publish_failed", "document_id", id, "error", err)
	}
}
