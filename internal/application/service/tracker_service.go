package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/application/tracker"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/event"
)

// TrackerService manages LPO tracker entries
type TrackerService interface {
	Add(ctx context.Context, in entity.TrackerIntake) (*entity.TrackerEntry, error)
	GetByInvoice(ctx context.Context, invoiceID int64) (*entity.TrackerEntry, error)
	List(ctx context.Context, countryID int64, businessUnitID *int64) ([]*entity.TrackerEntry, error)
}

type trackerServiceImpl struct {
	trackerRepo port.TrackerRepository
	invoiceRepo port.InvoiceRepository
	txManager   port.TransactionManager
	publisher   Publisher
	logger      Logger
	now         func() time.Time
}

// NewTrackerService creates a new TrackerService
func NewTrackerService(
	trackerRepo port.TrackerRepository,
	invoiceRepo port.InvoiceRepository,
	txManager port.TransactionManager,
	publisher Publisher,
	logger Logger,
) TrackerService {
	return &trackerServiceImpl{
		trackerRepo: trackerRepo,
		invoiceRepo: invoiceRepo,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Add validates the intake form and creates the invoice's tracker entry with
// the next serial number of its business unit for the current year
func (s *trackerServiceImpl) Add(ctx context.Context, in entity.TrackerIntake) (*entity.TrackerEntry, error) {
	in = tracker.Normalize(in)
	if err := tracker.Validate(in); err != nil {
		return nil, err
	}

	var entry *entity.TrackerEntry
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.trackerRepo.GetByInvoiceID(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("invoice %d: %w", in.InvoiceID, apperr.ErrAlreadyTracked)
		}

		invoice, err := s.invoiceRepo.GetByID(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return fmt.Errorf("invoice %d: %w", in.InvoiceID, apperr.ErrNotFound)
		}
		if invoice.BusinessUnit == nil || invoice.BusinessUnit.ID == 0 {
			return apperr.NewValidationError("bu_id", "Invoice must have a Business Unit assigned")
		}

		prefix := SerialPrefix(invoice.BusinessUnit.Code, s.now())
		count, err := s.trackerRepo.CountBySerialPrefix(ctx, invoice.BusinessUnit.ID, prefix)
		if err != nil {
			return err
		}

		entry = &entity.TrackerEntry{
			InvoiceID:               in.InvoiceID,
			SerialNumber:            fmt.Sprintf("%s%04d", prefix, count+1),
			CountryID:               invoice.CountryID,
			BusinessUnitID:          invoice.BusinessUnit.ID,
			DateOfRequest:           in.DateOfRequest,
			TicketNo:                in.TicketNo,
			ShipmentNo:              in.ShipmentNo,
			ShipmentStatus:          in.ShipmentStatus,
			CommunicatedWithCosting: in.CommunicatedWithCosting,
			SPShipment:              in.SPShipment,
			CreatedAt:               s.now().UTC(),
		}
		if in.SPShipment {
			ticket := in.SPTicketNo
			entry.SPTicketNo = &ticket
		}

		return s.trackerRepo.Create(ctx, entry)
	})
	if err != nil {
		s.logger.Error("Failed to add invoice to tracker", "invoice_id", in.InvoiceID, "error", err)
		return nil, fmt.Errorf("add to tracker: %w", err)
	}

	s.logger.Info("Invoice added to tracker", "invoice_id", in.InvoiceID, "serial_number", entry.SerialNumber)
	if s.publisher != nil {
		s.publisher.DispatchAsync(context.WithoutCancel(ctx), event.NewEvent(event.TypeTrackerEntryCreated, in.InvoiceID,
			map[string]interface{}{"serial_number": entry.SerialNumber}))
	}
	return entry, nil
}

// GetByInvoice returns the invoice's entry, or nil when it is not tracked
func (s *trackerServiceImpl) GetByInvoice(ctx context.Context, invoiceID int64) (*entity.TrackerEntry, error) {
	entry, err := s.trackerRepo.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get tracker entry: %w", err)
	}
	return entry, nil
}

// List returns a country's entries, optionally for one business unit
func (s *trackerServiceImpl) List(ctx context.Context, countryID int64, businessUnitID *int64) ([]*entity.TrackerEntry, error) {
	entries, err := s.trackerRepo.List(ctx, countryID, businessUnitID)
	if err != nil {
		return nil, fmt.Errorf("list tracker entries: %w", err)
	}
	return entries, nil
}

// SerialPrefix returns "<BU>-<YY>-" where BU is the first three letters of
// the business unit code, upper-cased
func SerialPrefix(buCode string, at time.Time) string {
	code := strings.ToUpper(strings.TrimSpace(buCode))
	if r := []rune(code); len(r) > 3 {
		code = string(r[:3])
	}
	return fmt.Sprintf("%s-%s-", code, at.Format("06"))
}
