// Package classifier holds strategy-agnostic decorators. The intake flow
// always sees the composed chain fallback(observer(timeout(strategy))): a
// bounded call whose failures degrade to the default verdict instead of
// surfacing.
package classifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/expedium/mesa-partes/internal/core/domain"
	"github.com/expedium/mesa-partes/internal/core/ports"
)

type fallback struct {
	inner ports.Classifier
}

// WithFallback converts every strategy failure into the default analysis.
// Callers of the returned classifier never see an error.
func WithFallback(inner ports.Classifier) ports.Classifier {
	return &fallback{inner: inner}
}

func (f *fallback) Classify(ctx context.Context, snippet, filename string) (domain.Analysis, error) {
	analysis, err := f.inner.Classify(ctx, snippet, filename)
	if err != nil {
		slog.Warn("classification_failed", "filename", filename, "error", err)
		return domain.DefaultAnalysis(), nil
	}
	return analysis, nil
}

type timeout struct {
	inner ports.Classifier
	bound time.Duration
}

// WithTimeout bounds a classification call; a hung remote yields a context
// error that the fallback layer turns into the default verdict.
func WithTimeout(inner ports.Classifier, bound time.Duration) ports.Classifier {
	if bound <= 0 {
		bound = 15 * time.Second
	}
	return &timeout{inner: inner, bound: bound}
}

func (t *timeout) Classify(ctx context.Context, snippet, filename string) (domain.Analysis, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, t.bound)
	defer cancel()
	return t.inner.Classify(boundedCtx, snippet, filename)
}

type observed struct {
	inner   ports.Classifier
	observe func(duration time.Duration, err error)
}

// WithObserver reports call duration and outcome, typically into Prometheus.
func WithObserver(inner ports.Classifier, observe func(duration time.Duration, err error)) ports.Classifier {
	if observe == nil {
		return inner
	}
	return &observed{inner: inner, observe: observe}
}

func (o *observed) Classify(ctx context.Context, snippet, filename string) (domain.Analysis, error) {
	start := time.Now()
	analysis, err := o.inner.Classify(ctx, snippet, filename)
	o.observe(time.Since(start), err)
	return analysis, err
}
