package port

import (
	"context"

	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// FileStorage keeps the invoice and supporting files uploaded for an invoice.
// Stored paths are relative and name the invoice and artifact kind they
// belong to.
type FileStorage interface {
	SaveArtifact(ctx context.Context, invoiceID int64, kind entity.ArtifactKind, fileName string, content []byte) (string, error)
	ReadArtifact(ctx context.Context, storedPath string) ([]byte, error)
	DeleteArtifact(ctx context.Context, storedPath string) error
}

// PreviewHandle is a local, releasable reference to a downloaded artifact
type PreviewHandle struct {
	ID        string
	Path      string
	MediaType string
}

// PreviewStorage keeps downloaded artifacts available for rendering until released
type PreviewStorage interface {
	Store(ctx context.Context, data []byte, mediaType string) (PreviewHandle, error)
	Release(handle PreviewHandle) error
}
