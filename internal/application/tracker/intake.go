// Package tracker validates the "add to tracker" form and submits it.
// Invalid forms never reach the tracker store.
package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/pkg/utils"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

var fieldLabels = map[string]string{
	"invoice_id":      "Invoice",
	"date_of_request": "Date of Request",
	"ticket_no":       "Ticket No.",
	"shipment_no":     "Shipment No.",
	"shipment_status": "Shipment Status",
	"sp_ticket_no":    "SP Ticket No.",
}

// Message renders the form message for a failed field rule
func Message(field, tag string) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}

	switch tag {
	case "required":
		return label + " is required"
	case "required_if":
		return label + " is required when SP Shipment is Yes"
	case "datetime":
		return label + " must be a date (YYYY-MM-DD)"
	case "shipment_status":
		return label + " must be one of Pending, In Transit, Delivered, Cancelled, On Hold"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// Normalize trims every text field of the form
func Normalize(in entity.TrackerIntake) entity.TrackerIntake {
	in.DateOfRequest = strings.TrimSpace(in.DateOfRequest)
	in.TicketNo = strings.TrimSpace(in.TicketNo)
	in.ShipmentNo = strings.TrimSpace(in.ShipmentNo)
	in.ShipmentStatus = entity.ShipmentStatus(strings.TrimSpace(string(in.ShipmentStatus)))
	in.SPTicketNo = strings.TrimSpace(in.SPTicketNo)
	return in
}

// Validate reports the first invalid field in form order as an
// *apperr.ValidationError
func Validate(in entity.TrackerIntake) error {
	return utils.ValidateStruct(Normalize(in), Message)
}

// Submitter validates and submits tracker intake forms
type Submitter struct {
	store  port.TrackerStore
	logger Logger
}

// NewSubmitter creates a Submitter
func NewSubmitter(store port.TrackerStore, logger Logger) *Submitter {
	return &Submitter{store: store, logger: logger}
}

// Submit creates the tracker entry. Validation failures return before any
// call to the store.
func (s *Submitter) Submit(ctx context.Context, in entity.TrackerIntake) (*entity.TrackerEntry, error) {
	in = Normalize(in)
	if err := utils.ValidateStruct(in, Message); err != nil {
		s.logger.Info("Tracker intake rejected", "invoice_id", in.InvoiceID, "reason", err.Error())
		return nil, err
	}

	entry, err := s.store.CreateTrackerEntry(ctx, &in)
	if err != nil {
		s.logger.Error("Failed to create tracker entry", "invoice_id", in.InvoiceID, "error", err)
		return nil, fmt.Errorf("failed to add invoice %d to tracker: %w", in.InvoiceID, err)
	}
	if entry == nil {
		s.logger.Error("Tracker store returned no entry", "invoice_id", in.InvoiceID)
		return nil, fmt.Errorf("failed to add invoice %d to tracker: %w: empty tracker response", in.InvoiceID, apperr.ErrServer)
	}

	s.logger.Info("Invoice added to tracker", "invoice_id", in.InvoiceID, "serial_number", entry.SerialNumber)
	return entry, nil
}
