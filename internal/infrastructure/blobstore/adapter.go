// Package blobstore composes the remote bucket with the in-memory fallback
// into an uploader that never fails outward: a lost upload degrades to a
// session-lifetime URL instead of blocking intake.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// Uploader is the backend contract; keys are pre-sanitized by the adapter.
type Uploader interface {
	Store(ctx context.Context, key string, data io.Reader) (string, error)
}

type Adapter struct {
	primary  Uploader
	fallback Uploader
	timeout  time.Duration
	now      func() time.Time
}

// NewAdapter builds the never-fails store. primary may be nil when no bucket
// is configured; everything then lands in the fallback.
func NewAdapter(primary, fallback Uploader, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (a *Adapter) Store(ctx context.Context, filename string, data io.Reader) (string, error) {
	// Buffered once so the fallback can replay the bytes after a failed
	// remote attempt. Uploads are interactive dashboard files, size-capped
	// upstream by the HTTP layer.
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	key := fmt.Sprintf("%d_%s", a.now().UnixMilli(), SanitizeFilename(filename))

	if a.primary != nil {
		uploadCtx, cancel := context.WithTimeout(ctx, a.timeout)
		url, err := a.primary.Store(uploadCtx, key, bytes.NewReader(raw))
		cancel()
		if err == nil {
			return url, nil
		}
		slog.Warn("blob_upload_failed_falling_back", "key", key, "error", err)
	}

	url, err := a.fallback.Store(ctx, key, bytes.NewReader(raw))
	if err != nil {
		// The in-memory fallback cannot realistically fail; guard anyway.
		return "", fmt.Errorf("fallback store: %w", err)
	}
	return url, nil
}

// SanitizeFilename keeps letters, digits, dots and dashes; everything else
// becomes an underscore.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "documento.bin"
	}
	return base
}
