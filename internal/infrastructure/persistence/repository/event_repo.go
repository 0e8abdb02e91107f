package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/event"
	"github.com/garyjia/invoice-intake/internal/infrastructure/persistence/sqlite"
)

// EventRepository implements port.EventRepository
type EventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) port.EventRepository {
	return &EventRepository{
		db:     db,
		logger: logger,
	}
}

// Append records an event. Appending the same event ID twice is a no-op.
func (r *EventRepository) Append(ctx context.Context, evt *event.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO invoice_events (
			event_id, invoice_id, event_type, payload, correlation_id, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		evt.ID,
		evt.InvoiceID,
		evt.Type,
		string(payload),
		evt.CorrelationID,
		evt.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append event", zap.String("event_id", evt.ID), zap.Error(err))
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListByInvoice returns the invoice's events oldest first
func (r *EventRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*event.Event, error) {
	query := `
		SELECT event_id, invoice_id, event_type, payload, correlation_id, occurred_at
		FROM invoice_events
		WHERE invoice_id = ?
		ORDER BY occurred_at ASC, id ASC
	`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to list events", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*event.Event{}
	for rows.Next() {
		var (
			evt     event.Event
			payload string
		)
		if err := rows.Scan(&evt.ID, &evt.InvoiceID, &evt.Type, &payload, &evt.CorrelationID, &evt.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &evt.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode event payload: %w", err)
		}
		events = append(events, &evt)
	}
	return events, rows.Err()
}

var _ port.EventRepository = (*EventRepository)(nil)
