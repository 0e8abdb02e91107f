package spreadsheet

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

const (
	poSheet = "PO Creation"
	imSheet = "IM Creation"

	descriptionLineLength = 30
	maxColumnWidth        = 50
)

var (
	poHeaders = []interface{}{
		"Company", "Brand", "MCU", "InvoiceNumber", "Albaran", "BOX#",
		"DateYYYYMMDD", "Itemcode", "Color|Size", "Barcode", "QTY",
		"Local FOB", "Foreign Cur", "Foreign FOB", "Unit Retail",
	}
	imHeaders = []interface{}{
		"Itemcode", "Desc. Line 1", "Desc. Line 2", "mancode", "brand",
		"season", "supplier", "section", "family", "subfamily",
		"feature code", "alternate code", "HS Code", "COO",
	}
)

// ExportConfig holds the fixed ERP codes written on every PO row
type ExportConfig struct {
	CompanyCode     string
	BrandCode       string
	DefaultCurrency string
}

// ERPExporter writes the two-sheet workbook imported by the ERP: one PO
// Creation row and one IM Creation row per line item
type ERPExporter struct {
	cfg    ExportConfig
	logger *zap.Logger
}

// NewERPExporter creates a new ERPExporter
func NewERPExporter(cfg ExportConfig, logger *zap.Logger) *ERPExporter {
	return &ERPExporter{cfg: cfg, logger: logger}
}

// Export renders invoice as an .xlsx document
func (e *ERPExporter) Export(invoice *entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", poSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(imSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", imSheet, err)
	}

	poRows := [][]interface{}{poHeaders}
	imRows := [][]interface{}{imHeaders}
	for _, item := range invoice.Items {
		poRows = append(poRows, e.poRow(invoice, item))
		imRows = append(imRows, imRow(item))
	}

	if err := writeSheet(f, poSheet, poRows); err != nil {
		return nil, err
	}
	if err := writeSheet(f, imSheet, imRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Invoice exported",
		zap.Int64("invoice_id", invoice.ID),
		zap.Int("items", len(invoice.Items)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

func (e *ERPExporter) poRow(invoice *entity.Invoice, item entity.LineItem) []interface{} {
	currency := invoice.Currency
	if currency == "" {
		currency = e.cfg.DefaultCurrency
	}

	mcu := ""
	if invoice.BusinessUnit != nil {
		mcu = "    " + invoice.BusinessUnit.Code
	}

	return []interface{}{
		e.cfg.CompanyCode,
		e.cfg.BrandCode,
		mcu,
		invoice.InvoiceNumber,
		"",
		"",
		invoice.InvoiceDate,
		item.ItemCode,
		item.ColorSize,
		item.Barcode,
		number(item.Quantity),
		"",
		currency,
		number(item.UnitCost),
		number(item.UnitRetail),
	}
}

func imRow(item entity.LineItem) []interface{} {
	line1, line2 := splitDescription(item.ItemDescription)
	return []interface{}{
		item.ItemCode,
		line1,
		line2,
		item.ManCode,
		item.BrandCode,
		item.Season,
		item.SupplierCode,
		item.Section,
		item.Family,
		item.Subfamily,
		"",
		item.AlternateCode,
		"",
		"",
	}
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	widths := make([]int, len(rows[0]))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
		for col, v := range row {
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(min(w+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}

// splitDescription breaks descriptions longer than one ERP line in two
func splitDescription(desc string) (string, string) {
	r := []rune(desc)
	if len(r) <= descriptionLineLength {
		return desc, ""
	}
	return string(r[:descriptionLineLength]), string(r[descriptionLineLength:])
}

func number(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

var _ port.InvoiceExporter = (*ERPExporter)(nil)
