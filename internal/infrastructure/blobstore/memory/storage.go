// Package memory is the session-lifetime fallback blob store. Its mem://
// URLs resolve only inside this process; nothing here survives a restart.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

func (s *Store) Store(_ context.Context, key string, data io.Reader) (string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read fallback object: %w", err)
	}

	s.mu.Lock()
	s.objects[key] = raw
	s.mu.Unlock()

	return "mem://expedientes/" + key, nil
}

// Open serves the retained bytes back, mainly for tests and debugging.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	raw, ok := s.objects[key]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("fallback object not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}
