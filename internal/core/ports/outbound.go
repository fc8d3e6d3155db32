package ports

import (
	"context"
	"io"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

// Classifier turns an extracted text snippet plus filename into a verdict.
// Both strategies (remote model, local heuristic) implement this contract so
// the choice is invisible to callers.
type Classifier interface {
	Classify(ctx context.Context, snippet, filename string) (domain.Analysis, error)
}

// BlobStore uploads the source artifact and returns a retrievable URL.
type BlobStore interface {
	Store(ctx context.Context, filename string, data io.Reader) (string, error)
}

// TextExtractor extracts plain text from uploaded bytes.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// DocumentRows is the remote row store: a documentos table keyed by an
// integer id, read back ordered by creation descending.
type DocumentRows interface {
	List(ctx context.Context) ([]domain.DocumentRecord, error)
	Insert(ctx context.Context, rec domain.DocumentRecord) error
	UpdateStatus(ctx context.Context, id int64, status domain.Status) error
	UpdateAssignment(ctx context.Context, id int64, assignee, area string, status domain.Status) error
	UpdateTitle(ctx context.Context, id int64, title string) error
	Delete(ctx context.Context, id int64) error
}

// EventSink receives lifecycle events and user-facing notices.
type EventSink interface {
	Publish(ctx context.Context, evt domain.Event) error
}

// EventArchive persists lifecycle events durably (the audit trail).
type EventArchive interface {
	Append(ctx context.Context, evt domain.Event) error
}
