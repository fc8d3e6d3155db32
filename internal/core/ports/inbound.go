package ports

import (
	"context"
	"io"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

// DocumentIntake is the inbound contract for the upload-analyze-register flow.
type DocumentIntake interface {
	Analyze(ctx context.Context, filename string, body io.Reader) (*domain.Draft, error)
	Register(ctx context.Context, in domain.RegisterInput) (*domain.DocumentRecord, error)
}
