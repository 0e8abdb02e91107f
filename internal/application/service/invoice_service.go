package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Publisher delivers events to subscribers without waiting for them
type Publisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}

// InvoicePatch carries the fields of an update request. Nil fields are left
// unchanged; a nil Items leaves the item list untouched.
type InvoicePatch struct {
	InvoiceNumber *string
	InvoiceDate   *string
	Currency      *string
	TotalAmount   *decimal.Decimal
	Items         *[]entity.LineItem

	// ClearTotalAmount removes the stored total; TotalAmount is then ignored
	ClearTotalAmount bool
}

// InvoiceService serves the invoice record store
type InvoiceService interface {
	Get(ctx context.Context, id int64) (*entity.Invoice, error)
	Create(ctx context.Context, invoice *entity.Invoice) (*entity.Invoice, error)
	Update(ctx context.Context, id int64, patch InvoicePatch) (*entity.Invoice, error)
	AttachFile(ctx context.Context, id int64, kind entity.ArtifactKind, fileName string, content []byte) (*entity.Invoice, error)
	OpenFile(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error)
	Export(ctx context.Context, id int64) (*port.Artifact, error)
	History(ctx context.Context, id int64) ([]*event.Event, error)
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	eventRepo   port.EventRepository
	files       port.FileStorage
	exporter    port.InvoiceExporter
	txManager   port.TransactionManager
	publisher   Publisher
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	eventRepo port.EventRepository,
	files port.FileStorage,
	exporter port.InvoiceExporter,
	txManager port.TransactionManager,
	publisher Publisher,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		eventRepo:   eventRepo,
		files:       files,
		exporter:    exporter,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
	}
}

// Get returns the invoice with its items
func (s *invoiceServiceImpl) Get(ctx context.Context, id int64) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice %d: %w", id, apperr.ErrNotFound)
	}

	items, err := s.invoiceRepo.GetItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	invoice.Items = items
	return invoice, nil
}

// Create stores a new invoice and its items
func (s *invoiceServiceImpl) Create(ctx context.Context, invoice *entity.Invoice) (*entity.Invoice, error) {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
			return err
		}
		for i := range invoice.Items {
			item := invoice.Items[i]
			item.ID = nil
			if item.Season == "" {
				item.Season = entity.DefaultSeason
			}
			if err := s.invoiceRepo.CreateItem(ctx, invoice.ID, &item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create invoice", "invoice_number", invoice.InvoiceNumber, "error", err)
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.logger.Info("Invoice created", "invoice_id", invoice.ID, "items", len(invoice.Items))
	s.publish(ctx, event.NewEvent(event.TypeInvoiceCreated, invoice.ID, map[string]interface{}{
		"invoice_number": invoice.InvoiceNumber,
		"items":          len(invoice.Items),
	}))

	return s.Get(ctx, invoice.ID)
}

// Update applies patch in one transaction. Items are reconciled by id:
// known ids are overwritten, other items are created and stored items
// missing from the list are deleted.
func (s *invoiceServiceImpl) Update(ctx context.Context, id int64, patch InvoicePatch) (*entity.Invoice, error) {
	var created, updated, deleted int

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.invoiceRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return fmt.Errorf("invoice %d: %w", id, apperr.ErrNotFound)
		}

		applyScalars(invoice, patch)
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}

		if patch.Items == nil {
			return nil
		}

		current, err := s.invoiceRepo.GetItems(ctx, id)
		if err != nil {
			return err
		}
		stored := make(map[int64]entity.LineItem, len(current))
		for _, item := range current {
			stored[*item.ID] = item
		}

		kept := make(map[int64]bool, len(*patch.Items))
		for _, item := range *patch.Items {
			if item.ID != nil {
				if existing, ok := stored[*item.ID]; ok {
					if item.Season == "" {
						item.Season = existing.Season
					}
					if err := s.invoiceRepo.UpdateItem(ctx, id, &item); err != nil {
						return err
					}
					kept[*item.ID] = true
					updated++
					continue
				}
			}

			item.ID = nil
			if item.Season == "" {
				item.Season = entity.DefaultSeason
			}
			if err := s.invoiceRepo.CreateItem(ctx, id, &item); err != nil {
				return err
			}
			created++
		}

		for _, item := range current {
			if kept[*item.ID] {
				continue
			}
			if err := s.invoiceRepo.DeleteItem(ctx, id, *item.ID); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update invoice", "invoice_id", id, "error", err)
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	s.logger.Info("Invoice updated",
		"invoice_id", id,
		"items_created", created,
		"items_updated", updated,
		"items_deleted", deleted)
	s.publish(ctx, event.NewEvent(event.TypeInvoiceUpdated, id, map[string]interface{}{
		"items_created": created,
		"items_updated": updated,
		"items_deleted": deleted,
	}))

	return s.Get(ctx, id)
}

// AttachFile stores the invoice or supporting file and records its path.
// A replaced file under a different name is removed once the new path is
// recorded.
func (s *invoiceServiceImpl) AttachFile(ctx context.Context, id int64, kind entity.ArtifactKind, fileName string, content []byte) (*entity.Invoice, error) {
	if !kind.IsValid() {
		return nil, apperr.NewValidationError("kind", fmt.Sprintf("unknown file kind %q", kind))
	}
	if len(content) == 0 {
		return nil, apperr.NewValidationError("file", "File is empty")
	}

	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	relPath, err := s.files.SaveArtifact(ctx, id, kind, fileName, content)
	if err != nil {
		s.logger.Error("Failed to store file", "invoice_id", id, "kind", kind, "error", err)
		return nil, fmt.Errorf("store %s file: %w", kind, err)
	}

	var previous string
	if kind == entity.ArtifactInvoice {
		previous, invoice.InvoiceFilePath = invoice.InvoiceFilePath, relPath
	} else {
		previous, invoice.SupportingFilePath = invoice.SupportingFilePath, relPath
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("record %s file: %w", kind, err)
	}

	if previous != "" && previous != relPath {
		if err := s.files.DeleteArtifact(ctx, previous); err != nil {
			s.logger.Error("Failed to remove replaced file", "invoice_id", id, "kind", kind, "path", previous, "error", err)
		}
	}

	s.logger.Info("Invoice file stored", "invoice_id", id, "kind", kind, "path", relPath, "size", len(content))
	s.publish(ctx, event.NewEvent(event.TypeArtifactStored, id, map[string]interface{}{
		"kind": string(kind),
		"path": relPath,
	}))
	return invoice, nil
}

// OpenFile reads the stored invoice or supporting file
func (s *invoiceServiceImpl) OpenFile(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice %d: %w", id, apperr.ErrNotFound)
	}

	stored := invoice.InvoiceFilePath
	if kind == entity.ArtifactSupporting {
		stored = invoice.SupportingFilePath
	}
	if stored == "" {
		return nil, fmt.Errorf("%s file of invoice %d: %w", kind, id, apperr.ErrNotFound)
	}

	data, err := s.files.ReadArtifact(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("read %s file: %w", kind, err)
	}

	return &port.Artifact{
		Data:      data,
		MediaType: MediaTypeFor(stored),
		FileName:  path.Base(stored),
	}, nil
}

// Export renders the ERP import workbook of the invoice
func (s *invoiceServiceImpl) Export(ctx context.Context, id int64) (*port.Artifact, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.exporter.Export(invoice)
	if err != nil {
		s.logger.Error("Failed to export invoice", "invoice_id", id, "error", err)
		return nil, fmt.Errorf("export invoice: %w", err)
	}

	return &port.Artifact{
		Data:      data,
		MediaType: entity.MediaTypeXLSX,
		FileName:  fmt.Sprintf("Invoice_%s_%s.xlsx", invoice.InvoiceNumber, invoice.InvoiceDate),
	}, nil
}

// History returns the recorded events of the invoice
func (s *invoiceServiceImpl) History(ctx context.Context, id int64) ([]*event.Event, error) {
	events, err := s.eventRepo.ListByInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list invoice events: %w", err)
	}
	return events, nil
}

func (s *invoiceServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.DispatchAsync(context.WithoutCancel(ctx), evt)
}

func applyScalars(invoice *entity.Invoice, patch InvoicePatch) {
	if patch.InvoiceNumber != nil {
		invoice.InvoiceNumber = *patch.InvoiceNumber
	}
	if patch.InvoiceDate != nil {
		invoice.InvoiceDate = *patch.InvoiceDate
	}
	if patch.Currency != nil {
		invoice.Currency = *patch.Currency
	}
	switch {
	case patch.ClearTotalAmount:
		invoice.TotalAmount = nil
	case patch.TotalAmount != nil:
		v := *patch.TotalAmount
		invoice.TotalAmount = &v
	}
}

// MediaTypeFor guesses the media type of a stored file from its extension
func MediaTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return entity.MediaTypePDF
	case ".png":
		return entity.MediaTypePNG
	case ".jpg", ".jpeg":
		return entity.MediaTypeJPEG
	case ".xlsx":
		return entity.MediaTypeXLSX
	default:
		return "application/octet-stream"
	}
}
