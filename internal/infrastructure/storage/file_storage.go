// Package storage keeps invoice artifacts and preview files on local disk
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

const artifactRoot = "invoices"

// LocalFileStorage implements port.FileStorage on the local filesystem.
// Artifacts live at <baseDir>/invoices/<invoice id>/<kind>/<file name>.
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

var _ port.FileStorage = (*LocalFileStorage)(nil)

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// ArtifactPath returns the stored path of an uploaded file. Only the base
// name of fileName is kept, with Windows separators honoured; an empty name
// becomes <kind>_<invoice id>.
func ArtifactPath(invoiceID int64, kind entity.ArtifactKind, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("%s_%d", kind, invoiceID)
	}
	return path.Join(artifactRoot, strconv.FormatInt(invoiceID, 10), string(kind), name)
}

// SaveArtifact writes an uploaded file under its invoice and kind and
// returns the stored path
func (s *LocalFileStorage) SaveArtifact(ctx context.Context, invoiceID int64, kind entity.ArtifactKind, fileName string, content []byte) (string, error) {
	if invoiceID <= 0 {
		return "", apperr.NewValidationError("invoice_id", "Invoice ID must be positive")
	}
	if !kind.IsValid() {
		return "", apperr.NewValidationError("kind", fmt.Sprintf("unknown file kind %q", kind))
	}

	relPath := ArtifactPath(invoiceID, kind, fileName)
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create artifact directory",
			zap.Int64("invoice_id", invoiceID),
			zap.String("kind", string(kind)),
			zap.String("path", dir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	// Replace via rename so a reader never sees a half-written file
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		s.logger.Error("Failed to store artifact",
			zap.Int64("invoice_id", invoiceID),
			zap.String("kind", string(kind)),
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.Debug("Artifact saved",
		zap.Int64("invoice_id", invoiceID),
		zap.String("kind", string(kind)),
		zap.String("path", relPath),
		zap.Int("size", len(content)))

	return relPath, nil
}

// ReadArtifact reads a file previously returned by SaveArtifact
func (s *LocalFileStorage) ReadArtifact(ctx context.Context, storedPath string) ([]byte, error) {
	fullPath, err := s.resolve(storedPath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, storedPath)
	}
	if err != nil {
		s.logger.Error("Failed to read artifact",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

// DeleteArtifact removes a stored file. A missing file is not an error.
func (s *LocalFileStorage) DeleteArtifact(ctx context.Context, storedPath string) error {
	fullPath, err := s.resolve(storedPath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("Failed to delete artifact",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.logger.Debug("Artifact deleted", zap.String("path", storedPath))
	return nil
}

// resolve maps a stored path to its location on disk. Only paths under the
// artifact root are accepted.
func (s *LocalFileStorage) resolve(storedPath string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(storedPath, "\\", "/"))
	if clean != artifactRoot && !strings.HasPrefix(clean, artifactRoot+"/") {
		return "", fmt.Errorf("path outside artifact store: %s", storedPath)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath := filepath.Join(absBase, filepath.FromSlash(clean))
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", storedPath)
	}

	return absPath, nil
}
