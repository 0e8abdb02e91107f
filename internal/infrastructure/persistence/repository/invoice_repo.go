// Package repository implements the application ports on SQLite
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/infrastructure/persistence/sqlite"
)

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `
		i.id, i.invoice_number, i.invoice_date, i.currency, i.subtotal, i.vat, i.total_amount,
		i.status, i.country_id, i.invoice_file_path, i.supporting_file_path,
		c.id, c.code, c.name,
		b.id, b.bu_code, b.name,
		s.id, s.code, s.name,
		br.id, br.code, br.name`

const invoiceJoins = `
		FROM invoices i
		LEFT JOIN companies c ON c.id = i.company_id
		LEFT JOIN business_units b ON b.id = i.bu_id
		LEFT JOIN suppliers s ON s.id = i.supplier_id
		LEFT JOIN brands br ON br.id = i.brand_id`

// Create creates a new invoice record and its items
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			invoice_number, invoice_date, currency, subtotal, vat, total_amount,
			status, country_id, company_id, bu_id, supplier_id, brand_id,
			invoice_file_path, supporting_file_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	status := invoice.Status
	if status == "" {
		status = entity.InvoiceStatusDraft
	}

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		invoice.InvoiceNumber,
		invoice.InvoiceDate,
		invoice.Currency,
		nullDecimal(invoice.Subtotal),
		nullDecimal(invoice.VAT),
		nullDecimal(invoice.TotalAmount),
		status,
		nullID(invoice.CountryID),
		refID(invoice.Company),
		refID(invoice.BusinessUnit),
		refID(invoice.Supplier),
		refID(invoice.Brand),
		invoice.InvoiceFilePath,
		invoice.SupportingFilePath,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	invoice.ID = id
	invoice.Status = status
	return nil
}

// GetByID retrieves an invoice with its master data references, without items
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + invoiceJoins + ` WHERE i.id = ?`

	var (
		invoice                 entity.Invoice
		subtotal, vat, total    decimal.NullDecimal
		countryID               sql.NullInt64
		company, bu, sup, brand refScan
	)

	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.InvoiceDate,
		&invoice.Currency,
		&subtotal,
		&vat,
		&total,
		&invoice.Status,
		&countryID,
		&invoice.InvoiceFilePath,
		&invoice.SupportingFilePath,
		&company.id, &company.code, &company.name,
		&bu.id, &bu.code, &bu.name,
		&sup.id, &sup.code, &sup.name,
		&brand.id, &brand.code, &brand.name,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	invoice.Subtotal = decimalPtr(subtotal)
	invoice.VAT = decimalPtr(vat)
	invoice.TotalAmount = decimalPtr(total)
	invoice.CountryID = countryID.Int64
	invoice.Company = company.reference()
	invoice.BusinessUnit = bu.reference()
	invoice.Supplier = sup.reference()
	invoice.Brand = brand.reference()

	return &invoice, nil
}

// Update writes the invoice scalars and references
func (r *InvoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices SET
			invoice_number = ?, invoice_date = ?, currency = ?, subtotal = ?, vat = ?,
			total_amount = ?, status = ?, country_id = ?, company_id = ?, bu_id = ?,
			supplier_id = ?, brand_id = ?, invoice_file_path = ?, supporting_file_path = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		invoice.InvoiceNumber,
		invoice.InvoiceDate,
		invoice.Currency,
		nullDecimal(invoice.Subtotal),
		nullDecimal(invoice.VAT),
		nullDecimal(invoice.TotalAmount),
		invoice.Status,
		nullID(invoice.CountryID),
		refID(invoice.Company),
		refID(invoice.BusinessUnit),
		refID(invoice.Supplier),
		refID(invoice.Brand),
		invoice.InvoiceFilePath,
		invoice.SupportingFilePath,
		invoice.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice", zap.Int64("id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	return requireRow(result, "invoice", invoice.ID)
}

// GetItems returns the items of an invoice in list order
func (r *InvoiceRepository) GetItems(ctx context.Context, invoiceID int64) ([]entity.LineItem, error) {
	query := `
		SELECT id, itemcode, color_size, barcode, quantity, unit_cost, unit_retail,
			item_description, mancode, brand_code, season, supplier_code,
			section, family, subfamily, alternate_code
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY position ASC, id ASC
	`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get invoice items", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice items: %w", err)
	}
	defer rows.Close()

	items := []entity.LineItem{}
	for rows.Next() {
		var (
			item                  entity.LineItem
			id                    int64
			qty, cost, unitRetail decimal.NullDecimal
		)
		err := rows.Scan(
			&id,
			&item.ItemCode,
			&item.ColorSize,
			&item.Barcode,
			&qty,
			&cost,
			&unitRetail,
			&item.ItemDescription,
			&item.ManCode,
			&item.BrandCode,
			&item.Season,
			&item.SupplierCode,
			&item.Section,
			&item.Family,
			&item.Subfamily,
			&item.AlternateCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		item.ID = &id
		item.Quantity = decimalPtr(qty)
		item.UnitCost = decimalPtr(cost)
		item.UnitRetail = decimalPtr(unitRetail)
		items = append(items, item)
	}

	return items, rows.Err()
}

// CreateItem appends an item to the end of the invoice's list
func (r *InvoiceRepository) CreateItem(ctx context.Context, invoiceID int64, item *entity.LineItem) error {
	query := `
		INSERT INTO invoice_items (
			invoice_id, position, itemcode, color_size, barcode, quantity, unit_cost,
			unit_retail, item_description, mancode, brand_code, season, supplier_code,
			section, family, subfamily, alternate_code
		) VALUES (
			?, (SELECT COALESCE(MAX(position), -1) + 1 FROM invoice_items WHERE invoice_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		invoiceID,
		invoiceID,
		item.ItemCode,
		item.ColorSize,
		item.Barcode,
		nullDecimal(item.Quantity),
		nullDecimal(item.UnitCost),
		nullDecimal(item.UnitRetail),
		item.ItemDescription,
		item.ManCode,
		item.BrandCode,
		item.Season,
		item.SupplierCode,
		item.Section,
		item.Family,
		item.Subfamily,
		item.AlternateCode,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice item", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return fmt.Errorf("failed to create invoice item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = &id
	return nil
}

// UpdateItem overwrites an item that belongs to invoiceID
func (r *InvoiceRepository) UpdateItem(ctx context.Context, invoiceID int64, item *entity.LineItem) error {
	if item.ID == nil {
		return fmt.Errorf("failed to update invoice item: missing id")
	}

	query := `
		UPDATE invoice_items SET
			itemcode = ?, color_size = ?, barcode = ?, quantity = ?, unit_cost = ?,
			unit_retail = ?, item_description = ?, mancode = ?, brand_code = ?, season = ?,
			supplier_code = ?, section = ?, family = ?, subfamily = ?, alternate_code = ?
		WHERE id = ? AND invoice_id = ?
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		item.ItemCode,
		item.ColorSize,
		item.Barcode,
		nullDecimal(item.Quantity),
		nullDecimal(item.UnitCost),
		nullDecimal(item.UnitRetail),
		item.ItemDescription,
		item.ManCode,
		item.BrandCode,
		item.Season,
		item.SupplierCode,
		item.Section,
		item.Family,
		item.Subfamily,
		item.AlternateCode,
		*item.ID,
		invoiceID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice item", zap.Int64("item_id", *item.ID), zap.Error(err))
		return fmt.Errorf("failed to update invoice item: %w", err)
	}

	return requireRow(result, "invoice item", *item.ID)
}

// DeleteItem removes an item of invoiceID
func (r *InvoiceRepository) DeleteItem(ctx context.Context, invoiceID int64, itemID int64) error {
	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM invoice_items WHERE id = ? AND invoice_id = ?`, itemID, invoiceID)
	if err != nil {
		r.logger.Error("Failed to delete invoice item", zap.Int64("item_id", itemID), zap.Error(err))
		return fmt.Errorf("failed to delete invoice item: %w", err)
	}
	return nil
}

var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
