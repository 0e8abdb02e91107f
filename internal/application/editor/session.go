// Package editor implements section-scoped inline editing of one invoice.
//
// All sections project the same draft. Entering edit mode on any section
// re-snapshots the clean copy into that shared draft, cancelling any section
// resets it, and saving from any section sends the whole draft. Edits made
// through one section are therefore not isolated from another section's
// toggle or cancel.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/clipboard"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/rowbatch"
	"github.com/garyjia/invoice-intake/internal/domain/workflow"
)

var (
	// ErrSaveInFlight is returned when a save for the invoice has not finished yet
	ErrSaveInFlight = errors.New("a save is already in progress for this invoice")

	// ErrNotEditing is returned when a section is not in edit mode
	ErrNotEditing = errors.New("section is not in edit mode")

	// ErrFieldNotExposed is returned when a section does not render the field as an input
	ErrFieldNotExposed = errors.New("field is not editable in this section")

	// ErrUnknownSection is returned for a section name outside entity.AllSections
	ErrUnknownSection = errors.New("unknown section")

	// ErrClosed is returned once the session is closed; late responses are dropped
	ErrClosed = errors.New("edit session is closed")
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Session holds the clean copy, the shared draft and the per-section edit
// state of one invoice. It is safe for concurrent use; the lock is never
// held across a remote call.
type Session struct {
	mu       sync.Mutex
	store    port.RecordStore
	logger   Logger
	clean    *entity.Invoice
	draft    *entity.Invoice
	sections map[entity.Section]workflow.StateMachine
	items    *rowbatch.Editor[entity.LineItem]
	saving   bool
	closed   bool
}

// NewSession starts editing record, the invoice as last confirmed by the store
func NewSession(store port.RecordStore, record *entity.Invoice, logger Logger) *Session {
	s := &Session{
		store:    store,
		logger:   logger,
		clean:    record.Clone(),
		draft:    record.Clone(),
		sections: make(map[entity.Section]workflow.StateMachine, len(entity.AllSections)),
	}

	for _, section := range entity.AllSections {
		s.sections[section] = workflow.NewSectionMachine(s.canEdit)
	}
	s.items = rowbatch.New[entity.LineItem](rowbatch.SetLineItemField, s.blankItem,
		rowbatch.WithClone(entity.LineItem.Clone))

	return s
}

// ToggleOn puts section into edit mode. The clean copy is snapshotted into
// the shared draft and brand/supplier codes are derived onto every item.
func (s *Session) ToggleOn(ctx context.Context, section entity.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machine, err := s.machine(section)
	if err != nil {
		return err
	}

	if err := machine.Fire(ctx, workflow.TriggerToggleOn); err != nil {
		if errors.Is(err, workflow.ErrGuardFailed) {
			return fmt.Errorf("cannot edit %s: %w", section, ErrSaveInFlight)
		}
		return fmt.Errorf("cannot edit %s: %w", section, err)
	}

	s.draft = s.clean.Clone()
	deriveReferenceCodes(s.draft)

	s.logger.Info("Section edit started", "invoice_id", s.clean.ID, "section", section.String())
	return nil
}

// Cancel leaves edit mode and resets the shared draft to the clean copy
func (s *Session) Cancel(ctx context.Context, section entity.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machine, err := s.machine(section)
	if err != nil {
		return err
	}

	if err := machine.Fire(ctx, workflow.TriggerCancel); err != nil {
		if machine.State() == workflow.StateSaving {
			return fmt.Errorf("cannot cancel %s: %w", section, ErrSaveInFlight)
		}
		return fmt.Errorf("cannot cancel %s: %w", section, ErrNotEditing)
	}

	s.draft = s.clean.Clone()

	s.logger.Info("Section edit cancelled", "invoice_id", s.clean.ID, "section", section.String())
	return nil
}

// Save sends the entire draft to the store, whichever section asked for it.
// On success the returned invoice becomes the clean copy and the draft. On
// failure the section stays in edit mode with the draft untouched.
func (s *Session) Save(ctx context.Context, section entity.Section) (*entity.Invoice, error) {
	s.mu.Lock()

	machine, err := s.machine(section)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.saving {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	if err := machine.Fire(ctx, workflow.TriggerSave); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("cannot save %s: %w", section, ErrNotEditing)
	}

	s.saving = true
	id := s.clean.ID
	payload := s.draft.Clone()
	s.mu.Unlock()

	s.logger.Info("Saving invoice", "invoice_id", id, "section", section.String(), "items", len(payload.Items))

	saved, saveErr := s.store.SaveRecord(ctx, id, payload)
	if saveErr == nil && saved == nil {
		saveErr = fmt.Errorf("%w: empty save response", apperr.ErrServer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saving = false

	if s.closed {
		s.logger.Info("Discarding save response for closed session", "invoice_id", id)
		return nil, ErrClosed
	}

	if saveErr != nil {
		_ = machine.Fire(ctx, workflow.TriggerSaveFailed)
		s.logger.Error("Failed to save invoice", "invoice_id", id, "section", section.String(), "error", saveErr)
		return nil, fmt.Errorf("failed to save invoice %d: %w", id, saveErr)
	}

	s.clean = saved.Clone()
	s.draft = saved.Clone()
	_ = machine.Fire(ctx, workflow.TriggerSaveSucceeded)

	s.logger.Info("Invoice saved", "invoice_id", id, "section", section.String())
	return saved.Clone(), nil
}

// SetField writes an invoice-level field through section
func (s *Session) SetField(section entity.Section, field entity.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEditable(section); err != nil {
		return err
	}
	if !section.ExposesInvoiceField(field) {
		return fmt.Errorf("%w: %s in %s", ErrFieldNotExposed, field, section)
	}

	return setInvoiceField(s.draft, field, value)
}

// SetItemCell writes one line item field through section
func (s *Session) SetItemCell(section entity.Section, row int, field entity.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEditable(section); err != nil {
		return err
	}
	if !section.ExposesItemField(field) {
		return fmt.Errorf("%w: %s in %s", ErrFieldNotExposed, field, section)
	}

	items, err := s.items.SetCell(s.draft.Items, row, field, value)
	if err != nil {
		return err
	}
	s.draft.Items = items
	return nil
}

// PasteItems applies clipboard text pasted into column at row anchor.
// Unusable pastes are silently ignored and reported as clipboard.KindNone.
func (s *Session) PasteItems(section entity.Section, column entity.Field, anchor int, raw string) (clipboard.Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEditable(section); err != nil {
		return clipboard.KindNone, err
	}
	if !section.ExposesItemField(column) {
		return clipboard.KindNone, fmt.Errorf("%w: %s in %s", ErrFieldNotExposed, column, section)
	}

	paste := clipboard.Parse(raw, clipboard.Context{
		Column:    column,
		AnchorRow: anchor,
		Layout:    clipboard.LineItemLayout,
	})
	if paste.IsEmpty() {
		return clipboard.KindNone, nil
	}

	items, err := s.items.ApplyBatch(s.draft.Items, paste)
	if err != nil {
		return paste.Kind, err
	}
	s.draft.Items = items
	return paste.Kind, nil
}

// Draft returns a copy of the shared draft
func (s *Session) Draft() *entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Clean returns a copy of the last server-confirmed invoice
func (s *Session) Clean() *entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clean.Clone()
}

// State returns the edit state of section
func (s *Session) State(section entity.Section) workflow.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	machine, ok := s.sections[section]
	if !ok {
		return ""
	}
	return machine.State()
}

// Saving reports whether a save is in flight
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Busy reports whether any section is editing or saving
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, machine := range s.sections {
		if machine.State() != workflow.StateViewing {
			return true
		}
	}
	return false
}

// Dirty reports whether the draft differs from the clean copy
func (s *Session) Dirty() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.draft.Fingerprint()
	if err != nil {
		return false, err
	}
	clean, err := s.clean.Fingerprint()
	if err != nil {
		return false, err
	}
	return string(draft) != string(clean), nil
}

// Close stops the session. Responses to saves still in flight are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) machine(section entity.Section) (workflow.StateMachine, error) {
	if s.closed {
		return nil, ErrClosed
	}
	machine, ok := s.sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	return machine, nil
}

func (s *Session) requireEditable(section entity.Section) error {
	machine, err := s.machine(section)
	if err != nil {
		return err
	}
	if s.saving {
		return ErrSaveInFlight
	}
	if machine.State() != workflow.StateEditing {
		return fmt.Errorf("%w: %s", ErrNotEditing, section)
	}
	return nil
}

// canEdit guards entry into edit mode; called with s.mu held
func (s *Session) canEdit(ctx context.Context) bool {
	return !s.saving
}

// blankItem is appended when a paste runs past the last item; called with s.mu held
func (s *Session) blankItem() entity.LineItem {
	return entity.LineItem{
		BrandCode:    s.draft.BrandCode(),
		SupplierCode: s.draft.SupplierCode(),
	}
}

// deriveReferenceCodes copies the invoice brand and supplier codes onto every
// item. An unset reference keeps the item's own value.
func deriveReferenceCodes(inv *entity.Invoice) {
	brand, supplier := inv.BrandCode(), inv.SupplierCode()
	for i := range inv.Items {
		if brand != "" {
			inv.Items[i].BrandCode = brand
		}
		if supplier != "" {
			inv.Items[i].SupplierCode = supplier
		}
	}
}

func setInvoiceField(inv *entity.Invoice, field entity.Field, value string) error {
	switch field {
	case entity.FieldInvoiceNumber:
		inv.InvoiceNumber = value
	case entity.FieldInvoiceDate:
		inv.InvoiceDate = value
	case entity.FieldCurrency:
		inv.Currency = value
	case entity.FieldTotalAmount:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			inv.TotalAmount = nil
			return nil
		}
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return apperr.NewValidationError(string(field), fmt.Sprintf("%q is not a number", value))
		}
		inv.TotalAmount = &d
	default:
		return fmt.Errorf("%w: %s", ErrFieldNotExposed, field)
	}
	return nil
}
