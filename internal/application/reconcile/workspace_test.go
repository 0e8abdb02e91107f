package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockRecordStore struct {
	fetchRecordFunc func(ctx context.Context, id int64) (*entity.Invoice, error)
	saveRecordFunc  func(ctx context.Context, id int64, draft *entity.Invoice) (*entity.Invoice, error)
}

func (m *mockRecordStore) FetchRecord(ctx context.Context, id int64) (*entity.Invoice, error) {
	return m.fetchRecordFunc(ctx, id)
}

func (m *mockRecordStore) SaveRecord(ctx context.Context, id int64, draft *entity.Invoice) (*entity.Invoice, error) {
	if m.saveRecordFunc != nil {
		return m.saveRecordFunc(ctx, id, draft)
	}
	return draft.Clone(), nil
}

type mockArtifactStore struct {
	calls                   atomic.Int32
	fetchBinaryArtifactFunc func(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error)
}

func (m *mockArtifactStore) FetchBinaryArtifact(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error) {
	m.calls.Add(1)
	return m.fetchBinaryArtifactFunc(ctx, id, kind)
}

type mockTrackerStore struct {
	checks                 atomic.Int32
	creates                atomic.Int32
	checkTrackerExistsFunc func(ctx context.Context, invoiceID int64) (bool, error)
	createTrackerEntryFunc func(ctx context.Context, intake *entity.TrackerIntake) (*entity.TrackerEntry, error)
}

func (m *mockTrackerStore) CheckTrackerExists(ctx context.Context, invoiceID int64) (bool, error) {
	m.checks.Add(1)
	if m.checkTrackerExistsFunc != nil {
		return m.checkTrackerExistsFunc(ctx, invoiceID)
	}
	return false, nil
}

func (m *mockTrackerStore) CreateTrackerEntry(ctx context.Context, intake *entity.TrackerIntake) (*entity.TrackerEntry, error) {
	m.creates.Add(1)
	if m.createTrackerEntryFunc != nil {
		return m.createTrackerEntryFunc(ctx, intake)
	}
	return &entity.TrackerEntry{ID: 1, InvoiceID: intake.InvoiceID, SerialNumber: "RET-24-0001"}, nil
}

type mockPreviewStorage struct {
	mu       sync.Mutex
	stored   []port.PreviewHandle
	released []port.PreviewHandle
}

func (m *mockPreviewStorage) Store(ctx context.Context, data []byte, mediaType string) (port.PreviewHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("preview-%d", len(m.stored)+1)
	h := port.PreviewHandle{ID: id, Path: "/tmp/" + id, MediaType: mediaType}
	m.stored = append(m.stored, h)
	return h, nil
}

func (m *mockPreviewStorage) Release(handle port.PreviewHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, handle)
	return nil
}

type mockInspector struct {
	pages int
	err   error
}

func (m *mockInspector) PageCount(data []byte) (int, error) {
	return m.pages, m.err
}

type fixture struct {
	records   *mockRecordStore
	artifacts *mockArtifactStore
	trackers  *mockTrackerStore
	previews  *mockPreviewStorage
	inspector *mockInspector
}

func newFixture() *fixture {
	return &fixture{
		records: &mockRecordStore{
			fetchRecordFunc: func(ctx context.Context, id int64) (*entity.Invoice, error) {
				return &entity.Invoice{
					ID:                 id,
					InvoiceNumber:      "INV-9",
					InvoiceFilePath:    "uploads/invoices/scan.PDF",
					SupportingFilePath: "",
				}, nil
			},
		},
		artifacts: &mockArtifactStore{
			fetchBinaryArtifactFunc: func(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error) {
				return &port.Artifact{Data: []byte("%PDF-1.7"), MediaType: "application/octet-stream"}, nil
			},
		},
		trackers:  &mockTrackerStore{},
		previews:  &mockPreviewStorage{},
		inspector: &mockInspector{pages: 3},
	}
}

func (f *fixture) workspace() *Workspace {
	return NewWorkspace(Deps{
		Records:   f.records,
		Artifacts: f.artifacts,
		Trackers:  f.trackers,
		Previews:  f.previews,
		Inspector: f.inspector,
	}, &mockLogger{})
}

func validIntake() entity.TrackerIntake {
	return entity.TrackerIntake{
		DateOfRequest:  "2024-03-18",
		TicketNo:       "T-1",
		ShipmentNo:     "S-1",
		ShipmentStatus: entity.ShipmentPending,
	}
}

func TestWorkspace_LoadPreparesPreview(t *testing.T) {
	f := newFixture()
	w := f.workspace()

	require.NoError(t, w.Load(context.Background(), 9))

	preview, err := w.Preview()
	require.NoError(t, err)
	assert.True(t, preview.Ready())
	assert.Equal(t, entity.MediaTypePDF, preview.Handle.MediaType)
	assert.Equal(t, 3, preview.Pages)
	assert.False(t, w.Tracked())

	session, err := w.Session()
	require.NoError(t, err)
	assert.Equal(t, "INV-9", session.Clean().InvoiceNumber)
}

func TestWorkspace_LoadNotFoundMakesNoFurtherCalls(t *testing.T) {
	for _, sentinel := range []error{apperr.ErrNotFound, apperr.ErrUnauthorized} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			f := newFixture()
			f.records.fetchRecordFunc = func(ctx context.Context, id int64) (*entity.Invoice, error) {
				return nil, sentinel
			}
			w := f.workspace()

			err := w.Load(context.Background(), 9)

			assert.ErrorIs(t, err, sentinel)
			assert.Zero(t, f.trackers.checks.Load())
			assert.Zero(t, f.artifacts.calls.Load())
			_, sessionErr := w.Session()
			assert.ErrorIs(t, sessionErr, ErrNotLoaded)
		})
	}
}

func TestWorkspace_JSONArtifactIsTransportMismatch(t *testing.T) {
	f := newFixture()
	f.artifacts.fetchBinaryArtifactFunc = func(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error) {
		return &port.Artifact{Data: []byte(`{"message":"File not found"}`), MediaType: "application/json; charset=utf-8"}, nil
	}
	w := f.workspace()

	require.NoError(t, w.Load(context.Background(), 9))

	preview, err := w.Preview()
	require.NoError(t, err)
	assert.False(t, preview.Ready())
	assert.ErrorIs(t, preview.Err, apperr.ErrTransportMismatch)
	assert.Empty(t, f.previews.stored)

	_, err = w.Session()
	assert.NoError(t, err)
}

func TestWorkspace_TrackerCheckFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.trackers.checkTrackerExistsFunc = func(ctx context.Context, invoiceID int64) (bool, error) {
		return true, errors.New("connection reset")
	}
	w := f.workspace()

	require.NoError(t, w.Load(context.Background(), 9))
	assert.False(t, w.Tracked())
}

func TestWorkspace_PageCountFailureKeepsPreview(t *testing.T) {
	f := newFixture()
	f.inspector.err = errors.New("broken xref")
	w := f.workspace()

	require.NoError(t, w.Load(context.Background(), 9))

	preview, err := w.Preview()
	require.NoError(t, err)
	assert.True(t, preview.Ready())
	assert.Zero(t, preview.Pages)
}

func TestWorkspace_Download(t *testing.T) {
	f := newFixture()
	w := f.workspace()
	ctx := context.Background()
	require.NoError(t, w.Load(ctx, 9))

	invoiceFile, err := w.Download(ctx, entity.ArtifactInvoice)
	require.NoError(t, err)
	assert.Equal(t, "scan.PDF", invoiceFile.FileName)

	supporting, err := w.Download(ctx, entity.ArtifactSupporting)
	require.NoError(t, err)
	assert.Equal(t, "supporting_9", supporting.FileName)
}

func TestWorkspace_DownloadRefusedWhileEditing(t *testing.T) {
	f := newFixture()
	w := f.workspace()
	ctx := context.Background()
	require.NoError(t, w.Load(ctx, 9))

	session, err := w.Session()
	require.NoError(t, err)
	require.NoError(t, session.ToggleOn(ctx, entity.SectionSummary))
	calls := f.artifacts.calls.Load()

	_, err = w.Download(ctx, entity.ArtifactInvoice)

	assert.ErrorIs(t, err, ErrEditInProgress)
	assert.Equal(t, calls, f.artifacts.calls.Load())
}

func TestWorkspace_AddToTracker(t *testing.T) {
	f := newFixture()
	w := f.workspace()
	ctx := context.Background()
	require.NoError(t, w.Load(ctx, 9))

	entry, err := w.AddToTracker(ctx, validIntake())
	require.NoError(t, err)
	assert.Equal(t, int64(9), entry.InvoiceID)
	assert.True(t, w.Tracked())

	_, err = w.AddToTracker(ctx, validIntake())
	assert.ErrorIs(t, err, apperr.ErrAlreadyTracked)
	assert.Equal(t, int32(1), f.trackers.creates.Load())
}

func TestWorkspace_AddToTrackerValidationMakesNoCall(t *testing.T) {
	f := newFixture()
	w := f.workspace()
	ctx := context.Background()
	require.NoError(t, w.Load(ctx, 9))

	in := validIntake()
	in.SPShipment = true

	_, err := w.AddToTracker(ctx, in)

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, f.trackers.creates.Load())
	assert.False(t, w.Tracked())
}

func TestWorkspace_CloseReleasesPreview(t *testing.T) {
	f := newFixture()
	w := f.workspace()
	require.NoError(t, w.Load(context.Background(), 9))

	w.Close()
	w.Close()

	require.Len(t, f.previews.released, 1)
	assert.Equal(t, "preview-1", f.previews.released[0].ID)
	_, err := w.Preview()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestWorkspace_ReloadReleasesPreviousPreview(t *testing.T) {
	f := newFixture()
	w := f.workspace()
	ctx := context.Background()

	require.NoError(t, w.Load(ctx, 9))
	require.NoError(t, w.Load(ctx, 9))

	require.Len(t, f.previews.released, 1)
	assert.Equal(t, "preview-1", f.previews.released[0].ID)

	preview, err := w.Preview()
	require.NoError(t, err)
	assert.Equal(t, "preview-2", preview.Handle.ID)

	w.Close()
	require.Len(t, f.previews.released, 2)
	assert.Equal(t, "preview-2", f.previews.released[1].ID)
}

func TestWorkspace_LateLoadAfterCloseIsReleased(t *testing.T) {
	f := newFixture()
	w := f.workspace()

	release := make(chan struct{})
	f.artifacts.fetchBinaryArtifactFunc = func(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error) {
		<-release
		return &port.Artifact{Data: []byte("png"), MediaType: entity.MediaTypePNG}, nil
	}

	done := make(chan error, 1)
	go func() { done <- w.Load(context.Background(), 9) }()

	require.Eventually(t, func() bool { return f.artifacts.calls.Load() == 1 }, time.Second, time.Millisecond)
	w.Close()
	close(release)

	assert.Error(t, <-done)
	f.previews.mu.Lock()
	defer f.previews.mu.Unlock()
	assert.Len(t, f.previews.stored, 1)
	assert.Len(t, f.previews.released, 1)
}
