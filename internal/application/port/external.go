package port

import (
	"context"
	"io"

	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// Artifact is a downloaded binary file with the media type the store declared
type Artifact struct {
	Data      []byte
	MediaType string
	FileName  string
}

// RecordStore defines invoice fetch and save operations against the remote store.
// Errors unwrap to apperr.ErrNotFound, apperr.ErrUnauthorized,
// apperr.ErrValidation or apperr.ErrServer.
type RecordStore interface {
	FetchRecord(ctx context.Context, id int64) (*entity.Invoice, error)
	SaveRecord(ctx context.Context, id int64, draft *entity.Invoice) (*entity.Invoice, error)
}

// ArtifactStore defines binary artifact downloads
type ArtifactStore interface {
	FetchBinaryArtifact(ctx context.Context, id int64, kind entity.ArtifactKind) (*Artifact, error)
}

// TrackerStore defines tracker entry operations
type TrackerStore interface {
	CheckTrackerExists(ctx context.Context, invoiceID int64) (bool, error)
	CreateTrackerEntry(ctx context.Context, intake *entity.TrackerIntake) (*entity.TrackerEntry, error)
}

// SessionProvider supplies the bearer token for remote calls and is told
// when the store rejects it
type SessionProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// DocumentInspector reads preview metadata from a downloaded document
type DocumentInspector interface {
	PageCount(data []byte) (int, error)
}

// WorkbookReader extracts barcode/model rows from a supporting workbook
type WorkbookReader interface {
	ReadProductRows(r io.Reader) ([]entity.ProductRow, error)
}

// InvoiceExporter renders an invoice and its items as an ERP import workbook
type InvoiceExporter interface {
	Export(invoice *entity.Invoice) ([]byte, error)
}
