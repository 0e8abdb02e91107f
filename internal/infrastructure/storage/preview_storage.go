package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// LocalPreviewStorage writes downloaded artifacts to a scratch directory so
// they can be rendered, and removes them when the preview is released.
type LocalPreviewStorage struct {
	dir    string
	logger *zap.Logger

	mu   sync.Mutex
	live map[string]string
}

// NewLocalPreviewStorage creates a new LocalPreviewStorage rooted at dir
func NewLocalPreviewStorage(dir string, logger *zap.Logger) *LocalPreviewStorage {
	return &LocalPreviewStorage{
		dir:    dir,
		logger: logger,
		live:   make(map[string]string),
	}
}

// Store writes data under a fresh name and returns its handle
func (s *LocalPreviewStorage) Store(ctx context.Context, data []byte, mediaType string) (port.PreviewHandle, error) {
	if err := ctx.Err(); err != nil {
		return port.PreviewHandle{}, err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return port.PreviewHandle{}, fmt.Errorf("failed to create preview directory: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+extensionFor(mediaType))
	if err := os.WriteFile(path, data, 0600); err != nil {
		s.logger.Error("Failed to write preview file",
			zap.String("path", path),
			zap.Error(err))
		return port.PreviewHandle{}, fmt.Errorf("failed to write preview: %w", err)
	}

	s.mu.Lock()
	s.live[id] = path
	s.mu.Unlock()

	s.logger.Debug("Preview stored",
		zap.String("id", id),
		zap.String("media_type", mediaType),
		zap.Int("size", len(data)))

	return port.PreviewHandle{ID: id, Path: path, MediaType: mediaType}, nil
}

// Release deletes the preview file. Releasing twice is a no-op.
func (s *LocalPreviewStorage) Release(handle port.PreviewHandle) error {
	s.mu.Lock()
	path, ok := s.live[handle.ID]
	delete(s.live, handle.ID)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release preview %s: %w", handle.ID, err)
	}
	return nil
}

// Live returns the number of previews not yet released
func (s *LocalPreviewStorage) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case entity.MediaTypePDF:
		return ".pdf"
	case entity.MediaTypePNG:
		return ".png"
	case entity.MediaTypeJPEG:
		return ".jpg"
	case entity.MediaTypeXLSX:
		return ".xlsx"
	default:
		return ".bin"
	}
}

var _ port.PreviewStorage = (*LocalPreviewStorage)(nil)
