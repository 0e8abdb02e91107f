package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/infrastructure/persistence/sqlite"
)

// TrackerRepository implements port.TrackerRepository
type TrackerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTrackerRepository creates a new tracker repository
func NewTrackerRepository(db *sql.DB, logger *zap.Logger) port.TrackerRepository {
	return &TrackerRepository{
		db:     db,
		logger: logger,
	}
}

const trackerColumns = `
		id, invoice_id, serial_number, country_id, bu_id, date_of_request, ticket_no,
		shipment_no, shipment_status, communicated_with_costing, sp_shipment, sp_ticket_no,
		created_at, updated_at`

// Create inserts a tracker entry. A second entry for the same invoice is
// rejected with apperr.ErrAlreadyTracked.
func (r *TrackerRepository) Create(ctx context.Context, entry *entity.TrackerEntry) error {
	query := `
		INSERT INTO lpo_trackers (
			invoice_id, serial_number, country_id, bu_id, date_of_request, ticket_no,
			shipment_no, shipment_status, communicated_with_costing, sp_shipment, sp_ticket_no
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		entry.InvoiceID,
		entry.SerialNumber,
		entry.CountryID,
		entry.BusinessUnitID,
		entry.DateOfRequest,
		entry.TicketNo,
		entry.ShipmentNo,
		entry.ShipmentStatus,
		entry.CommunicatedWithCosting,
		entry.SPShipment,
		entry.SPTicketNo,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: lpo_trackers.invoice_id") {
			return fmt.Errorf("invoice %d: %w", entry.InvoiceID, apperr.ErrAlreadyTracked)
		}
		r.logger.Error("Failed to create tracker entry", zap.Int64("invoice_id", entry.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create tracker entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByInvoiceID returns the entry of an invoice, or nil when it has none
func (r *TrackerRepository) GetByInvoiceID(ctx context.Context, invoiceID int64) (*entity.TrackerEntry, error) {
	query := `SELECT ` + trackerColumns + ` FROM lpo_trackers WHERE invoice_id = ?`

	entry, err := scanTracker(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, invoiceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get tracker entry", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get tracker entry: %w", err)
	}
	return entry, nil
}

// CountBySerialPrefix counts the business unit's entries whose serial starts with prefix
func (r *TrackerRepository) CountBySerialPrefix(ctx context.Context, businessUnitID int64, prefix string) (int, error) {
	query := `SELECT COUNT(*) FROM lpo_trackers WHERE bu_id = ? AND serial_number LIKE ? ESCAPE '\'`

	var count int
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, businessUnitID, escapeLike(prefix)+"%").Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count tracker entries", zap.Int64("bu_id", businessUnitID), zap.Error(err))
		return 0, fmt.Errorf("failed to count tracker entries: %w", err)
	}
	return count, nil
}

// List returns a country's entries ordered by serial number, optionally for one business unit
func (r *TrackerRepository) List(ctx context.Context, countryID int64, businessUnitID *int64) ([]*entity.TrackerEntry, error) {
	query := `SELECT ` + trackerColumns + ` FROM lpo_trackers WHERE country_id = ?`
	args := []interface{}{countryID}
	if businessUnitID != nil {
		query += ` AND bu_id = ?`
		args = append(args, *businessUnitID)
	}
	query += ` ORDER BY serial_number ASC`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list tracker entries", zap.Int64("country_id", countryID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tracker entries: %w", err)
	}
	defer rows.Close()

	entries := []*entity.TrackerEntry{}
	for rows.Next() {
		entry, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracker entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTracker(row rowScanner) (*entity.TrackerEntry, error) {
	var (
		entry      entity.TrackerEntry
		spTicketNo sql.NullString
		updatedAt  sql.NullTime
	)

	err := row.Scan(
		&entry.ID,
		&entry.InvoiceID,
		&entry.SerialNumber,
		&entry.CountryID,
		&entry.BusinessUnitID,
		&entry.DateOfRequest,
		&entry.TicketNo,
		&entry.ShipmentNo,
		&entry.ShipmentStatus,
		&entry.CommunicatedWithCosting,
		&entry.SPShipment,
		&spTicketNo,
		&entry.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if spTicketNo.Valid {
		entry.SPTicketNo = &spTicketNo.String
	}
	if updatedAt.Valid {
		entry.UpdatedAt = &updatedAt.Time
	}
	return &entry, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ port.TrackerRepository = (*TrackerRepository)(nil)
