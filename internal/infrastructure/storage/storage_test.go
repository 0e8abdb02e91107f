package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name     string
		kind     entity.ArtifactKind
		fileName string
		want     string
	}{
		{"plain name", entity.ArtifactInvoice, "scan.pdf", "invoices/7/invoice/scan.pdf"},
		{"windows path", entity.ArtifactSupporting, `C:\Users\me\packing list.xlsx`, "invoices/7/supporting/packing list.xlsx"},
		{"unix path", entity.ArtifactInvoice, "/tmp/up/scan.png", "invoices/7/invoice/scan.png"},
		{"traversal", entity.ArtifactInvoice, "../../etc/passwd", "invoices/7/invoice/passwd"},
		{"empty name", entity.ArtifactSupporting, "", "invoices/7/supporting/supporting_7"},
		{"dot dot only", entity.ArtifactInvoice, "..", "invoices/7/invoice/invoice_7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactPath(7, tt.kind, tt.fileName))
		})
	}
}

func TestLocalFileStorage_SaveReadDelete(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s := NewLocalFileStorage(base, zap.NewNop())

	stored, err := s.SaveArtifact(ctx, 7, entity.ArtifactInvoice, "scan.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "invoices/7/invoice/scan.pdf", stored)
	assert.FileExists(t, filepath.Join(base, "invoices", "7", "invoice", "scan.pdf"))

	content, err := s.ReadArtifact(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), content)

	_, err = s.SaveArtifact(ctx, 7, entity.ArtifactInvoice, "scan.pdf", []byte("%PDF-2"))
	require.NoError(t, err)
	content, err = s.ReadArtifact(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-2"), content)

	entries, err := os.ReadDir(filepath.Join(base, "invoices", "7", "invoice"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.DeleteArtifact(ctx, stored))
	_, err = s.ReadArtifact(ctx, stored)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, s.DeleteArtifact(ctx, stored))
}

func TestLocalFileStorage_KindsAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	inv, err := s.SaveArtifact(ctx, 7, entity.ArtifactInvoice, "doc.pdf", []byte("invoice"))
	require.NoError(t, err)
	sup, err := s.SaveArtifact(ctx, 7, entity.ArtifactSupporting, "doc.pdf", []byte("supporting"))
	require.NoError(t, err)
	assert.NotEqual(t, inv, sup)

	content, err := s.ReadArtifact(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, []byte("invoice"), content)
}

func TestLocalFileStorage_RejectsInvalidArtifact(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	_, err := s.SaveArtifact(ctx, 7, entity.ArtifactKind("receipt"), "r.pdf", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.SaveArtifact(ctx, 0, entity.ArtifactInvoice, "r.pdf", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLocalFileStorage_MissingFileIsNotFound(t *testing.T) {
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	_, err := s.ReadArtifact(context.Background(), "invoices/1/invoice/missing.pdf")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLocalFileStorage_RejectsPathsOutsideStore(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	for _, stored := range []string{"../outside.txt", "invoices/../../outside.txt", "config.yaml", "/etc/passwd"} {
		_, err := s.ReadArtifact(ctx, stored)
		assert.Error(t, err, stored)
		assert.NotErrorIs(t, err, apperr.ErrNotFound, stored)
		assert.Error(t, s.DeleteArtifact(ctx, stored), stored)
	}
}

func TestLocalPreviewStorage_StoreAndRelease(t *testing.T) {
	s := NewLocalPreviewStorage(t.TempDir(), zap.NewNop())

	h, err := s.Store(context.Background(), []byte("%PDF"), entity.MediaTypePDF)
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, entity.MediaTypePDF, h.MediaType)
	assert.FileExists(t, h.Path)
	assert.Equal(t, 1, s.Live())

	require.NoError(t, s.Release(h))
	_, statErr := os.Stat(h.Path)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 0, s.Live())

	assert.NoError(t, s.Release(h))
}

func TestLocalPreviewStorage_DistinctHandles(t *testing.T) {
	s := NewLocalPreviewStorage(t.TempDir(), zap.NewNop())

	a, err := s.Store(context.Background(), []byte("a"), entity.MediaTypePNG)
	require.NoError(t, err)
	b, err := s.Store(context.Background(), []byte("b"), entity.MediaTypePNG)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Path, b.Path)
}
