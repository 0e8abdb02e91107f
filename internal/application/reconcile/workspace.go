// Package reconcile loads one invoice for preview and editing and keeps the
// screen state consistent with the remote store: the authoritative record,
// the edit session over it, the invoice file preview and the tracker flag.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/garyjia/invoice-intake/internal/application/editor"
	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/application/tracker"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

var (
	// ErrNotLoaded is returned before Load has succeeded
	ErrNotLoaded = errors.New("invoice is not loaded")

	// ErrEditInProgress is returned for downloads while a section is editing or saving
	ErrEditInProgress = errors.New("finish editing before downloading")
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Deps groups the collaborators of a Workspace
type Deps struct {
	Records   port.RecordStore
	Artifacts port.ArtifactStore
	Trackers  port.TrackerStore
	Previews  port.PreviewStorage
	Inspector port.DocumentInspector
}

// Preview is the invoice file as prepared for rendering. Err is set instead
// of Handle when the file could not be loaded; it does not affect the rest
// of the workspace.
type Preview struct {
	Handle port.PreviewHandle
	Pages  int
	Err    error
}

// Ready reports whether the preview can be rendered
func (p Preview) Ready() bool {
	return p.Err == nil && p.Handle.ID != ""
}

// Download is a binary artifact ready to be saved by the user
type Download struct {
	FileName  string
	MediaType string
	Data      []byte
}

// Workspace is the preview screen of one invoice
type Workspace struct {
	deps      Deps
	logger    Logger
	submitter *tracker.Submitter

	mu      sync.Mutex
	id      int64
	session *editor.Session
	tracked bool
	preview *Preview
	closed  bool
}

// NewWorkspace creates a Workspace
func NewWorkspace(deps Deps, logger Logger) *Workspace {
	return &Workspace{
		deps:      deps,
		logger:    logger,
		submitter: tracker.NewSubmitter(deps.Trackers, logger),
	}
}

// Load fetches the invoice. NotFound and Unauthorized are returned as is and
// nothing else is requested. On success the tracker check and the invoice
// file download run concurrently; neither can fail Load.
func (w *Workspace) Load(ctx context.Context, id int64) error {
	record, err := w.deps.Records.FetchRecord(ctx, id)
	if err != nil {
		w.logger.Error("Failed to load invoice", "invoice_id", id, "error", err)
		return fmt.Errorf("failed to load invoice %d: %w", id, err)
	}
	if record == nil {
		return fmt.Errorf("failed to load invoice %d: %w", id, apperr.ErrNotFound)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return editor.ErrClosed
	}
	w.id = id
	w.session = editor.NewSession(w.deps.Records, record, w.logger)
	w.mu.Unlock()

	var (
		wg      sync.WaitGroup
		tracked bool
		preview Preview
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		tracked = w.checkTracked(ctx, id)
	}()
	go func() {
		defer wg.Done()
		preview = w.loadPreview(ctx, id, record.InvoiceFilePath)
	}()
	wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.release(preview)
		return editor.ErrClosed
	}
	if w.preview != nil {
		w.release(*w.preview)
	}
	w.tracked = tracked
	w.preview = &preview

	w.logger.Info("Invoice loaded",
		"invoice_id", id,
		"items", len(record.Items),
		"tracked", tracked,
		"preview_ready", preview.Ready())
	return nil
}

// Session returns the edit session of the loaded invoice
func (w *Workspace) Session() (*editor.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session == nil {
		return nil, ErrNotLoaded
	}
	return w.session, nil
}

// Preview returns the invoice file preview
func (w *Workspace) Preview() (Preview, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.preview == nil {
		return Preview{}, ErrNotLoaded
	}
	return *w.preview, nil
}

// Tracked reports whether the invoice already has a tracker entry
func (w *Workspace) Tracked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracked
}

// Download fetches the invoice or supporting file. The file name is taken
// from the stored path, falling back to "<kind>_<id>".
func (w *Workspace) Download(ctx context.Context, kind entity.ArtifactKind) (*Download, error) {
	w.mu.Lock()
	id, session := w.id, w.session
	w.mu.Unlock()

	if session == nil {
		return nil, ErrNotLoaded
	}
	if session.Busy() {
		return nil, ErrEditInProgress
	}

	artifact, err := w.fetchArtifact(ctx, id, kind)
	if err != nil {
		w.logger.Error("Failed to download file", "invoice_id", id, "kind", kind, "error", err)
		return nil, err
	}

	clean := session.Clean()
	stored := clean.InvoiceFilePath
	if kind == entity.ArtifactSupporting {
		stored = clean.SupportingFilePath
	}

	return &Download{
		FileName:  downloadName(stored, kind, id),
		MediaType: artifact.MediaType,
		Data:      artifact.Data,
	}, nil
}

// AddToTracker validates and submits the intake form for the loaded invoice
func (w *Workspace) AddToTracker(ctx context.Context, in entity.TrackerIntake) (*entity.TrackerEntry, error) {
	w.mu.Lock()
	id, tracked, loaded := w.id, w.tracked, w.session != nil
	w.mu.Unlock()

	if !loaded {
		return nil, ErrNotLoaded
	}
	if tracked {
		return nil, fmt.Errorf("invoice %d: %w", id, apperr.ErrAlreadyTracked)
	}

	in.InvoiceID = id
	entry, err := w.submitter.Submit(ctx, in)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyTracked) {
			w.setTracked()
		}
		return nil, err
	}

	w.setTracked()
	return entry, nil
}

// Close releases the preview and closes the edit session. Results arriving
// afterwards are discarded.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true

	if w.preview != nil {
		w.release(*w.preview)
		w.preview = nil
	}
	if w.session != nil {
		w.session.Close()
	}
}

func (w *Workspace) setTracked() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked = true
}

func (w *Workspace) checkTracked(ctx context.Context, id int64) bool {
	exists, err := w.deps.Trackers.CheckTrackerExists(ctx, id)
	if err != nil {
		w.logger.Info("Tracker check failed, treating invoice as untracked", "invoice_id", id, "error", err)
		return false
	}
	return exists
}

func (w *Workspace) loadPreview(ctx context.Context, id int64, storedPath string) Preview {
	artifact, err := w.fetchArtifact(ctx, id, entity.ArtifactInvoice)
	if err != nil {
		w.logger.Error("Failed to load invoice file", "invoice_id", id, "error", err)
		return Preview{Err: err}
	}

	mediaType := artifact.MediaType
	if strings.HasSuffix(strings.ToLower(storedPath), ".pdf") {
		mediaType = entity.MediaTypePDF
	}

	handle, err := w.deps.Previews.Store(ctx, artifact.Data, mediaType)
	if err != nil {
		w.logger.Error("Failed to store invoice preview", "invoice_id", id, "error", err)
		return Preview{Err: err}
	}

	pages, err := w.deps.Inspector.PageCount(artifact.Data)
	if err != nil {
		w.logger.Info("Could not read page count", "invoice_id", id, "error", err)
		pages = 0
	}

	return Preview{Handle: handle, Pages: pages}
}

func (w *Workspace) fetchArtifact(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error) {
	artifact, err := w.deps.Artifacts.FetchBinaryArtifact(ctx, id, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s file: %w", kind, err)
	}
	if artifact == nil || isJSON(artifact.MediaType) {
		return nil, fmt.Errorf("%s file of invoice %d: %w", kind, id, apperr.ErrTransportMismatch)
	}
	return artifact, nil
}

// release must be called with w.mu held
func (w *Workspace) release(p Preview) {
	if p.Handle.ID == "" {
		return
	}
	if err := w.deps.Previews.Release(p.Handle); err != nil {
		w.logger.Error("Failed to release preview", "preview_id", p.Handle.ID, "error", err)
	}
}

func isJSON(mediaType string) bool {
	base, _, _ := strings.Cut(mediaType, ";")
	return strings.EqualFold(strings.TrimSpace(base), entity.MediaTypeJSON)
}

func downloadName(storedPath string, kind entity.ArtifactKind, id int64) string {
	if storedPath != "" {
		name := path.Base(strings.ReplaceAll(storedPath, "\\", "/"))
		if name != "." && name != "/" {
			return name
		}
	}
	return fmt.Sprintf("%s_%d", kind, id)
}
