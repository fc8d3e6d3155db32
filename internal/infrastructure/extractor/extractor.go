// Package extractor pulls plain text out of uploaded artifacts so the
// classifier has a snippet to work with. PDF pages go through ledongthuc/pdf;
// anything else is accepted as-is when it is valid UTF-8 text.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, filename string, data []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return extractPDF(filename, data)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("unsupported binary format: %s", filename)
	}
	return strings.TrimSpace(string(data)), nil
}

func extractPDF(filename string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", filename, err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", filename, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("copy pdf text %s: %w", filename, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
