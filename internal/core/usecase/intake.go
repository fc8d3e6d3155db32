// Package usecase implements the intake flow: analyze an upload into a
// draft, then register the confirmed record.
package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/expedium/mesa-partes/internal/core/docstore"
	"github.com/expedium/mesa-partes/internal/core/domain"
	"github.com/expedium/mesa-partes/internal/core/ports"
)

// maxUploadBytes bounds how much of an upload is read into memory.
const maxUploadBytes = 25 << 20

type Intake struct {
	blobs      ports.BlobStore
	extractor  ports.TextExtractor
	classifier ports.Classifier
	store      *docstore.Store

	snippetMax int
	now        func() time.Time
	randDigits func() int
}

func NewIntake(blobs ports.BlobStore, extractor ports.TextExtractor, classifier ports.Classifier, store *docstore.Store, snippetMax int) *Intake {
	if snippetMax <= 0 {
		snippetMax = 3000
	}
	return &Intake{
		blobs:      blobs,
		extractor:  extractor,
		classifier: classifier,
		store:      store,
		snippetMax: snippetMax,
		now:        time.Now,
		randDigits: func() int { return 1000 + rand.Intn(9000) },
	}
}

// Analyze stores the upload, extracts a text snippet and classifies it. Every
// stage degrades instead of failing: extraction errors classify on the
// filename alone and classification errors fall back to the manual-review
// verdict, so the operator always gets a draft.
func (i *Intake) Analyze(ctx context.Context, filename string, body io.Reader) (*domain.Draft, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze upload", fmt.Errorf("filename is required"))
	}

	data, err := io.ReadAll(io.LimitReader(body, maxUploadBytes))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze upload", fmt.Errorf("read body: %w", err))
	}

	fileURL, err := i.blobs.Store(ctx, filename, bytes.NewReader(data))
	if err != nil {
		// The blob adapter degrades internally; an error here means even the
		// in-memory fallback refused the payload.
		return nil, domain.WrapError(domain.ErrTemporary, "store upload", err)
	}

	snippet, err := i.extractor.Extract(ctx, filename, data)
	if err != nil {
		slog.Warn("text_extraction_failed", "file_name", filename, "error", err)
		snippet = ""
	}
	if len(snippet) > i.snippetMax {
		snippet = snippet[:i.snippetMax]
	}

	analysis, err := i.classifier.Classify(ctx, snippet, filename)
	if err != nil {
		slog.Warn("classification_failed", "file_name", filename, "error", err)
		analysis = domain.DefaultAnalysis()
	}

	return &domain.Draft{
		Title:    titleFromFilename(filename),
		FileName: filename,
		FileURL:  fileURL,
		Analysis: analysis,
		Tags:     []string{"Entrante", "IA-Verificado"},
	}, nil
}

// Register creates the record under a temporary id and hands it to the store,
// which reconciles it against the remote row store.
func (i *Intake) Register(ctx context.Context, in domain.RegisterInput) (*domain.DocumentRecord, error) {
	if strings.TrimSpace(in.FileName) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register document", fmt.Errorf("file_name is required"))
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = titleFromFilename(in.FileName)
	}

	now := i.now()
	rec := domain.DocumentRecord{
		ID:           fmt.Sprintf("DOC-%d-%04d", now.Year(), i.randDigits()),
		Title:        title,
		FileName:     in.FileName,
		FileURL:      in.FileURL,
		Type:         domain.ParseDocumentType(in.Type),
		Urgency:      domain.ParseUrgency(in.Urgency),
		Status:       domain.StatusRecibido,
		Summary:      in.Summary,
		CreatedAt:    now,
		LastModified: now,
		Tags:         in.Tags,
		AssignedTo:   "Por Asignar",
		AssignedArea: "Mesa de Partes",
	}

	if _, err := i.store.Add(ctx, rec); err != nil {
		return nil, err
	}

	// The store may have replaced the working set on refresh; prefer the
	// server copy when the temporary id is gone.
	if stored, err := i.store.Get(rec.ID); err == nil {
		return &stored, nil
	}
	return &rec, nil
}

func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Sin Título"
	}
	return base
}
