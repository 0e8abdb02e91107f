// Package spreadsheet reads barcode/model rows from supporting workbooks
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// headerSearchRows is how many leading rows are scanned for the header row
const headerSearchRows = 15

var (
	barcodeHeaders = []string{"barcode", "ean", "upc", "gtin", "international code"}
	modelHeaders   = []string{"model", "model code", "model #", "item code", "item #", "article #", "article code", "style", "product code"}
)

// WorkbookReader implements port.WorkbookReader with excelize
type WorkbookReader struct {
	logger *zap.Logger
}

// NewWorkbookReader creates a new WorkbookReader
func NewWorkbookReader(logger *zap.Logger) *WorkbookReader {
	return &WorkbookReader{logger: logger}
}

// ReadProductRows reads the active sheet. The header row is located by
// name within the first rows; without one, column A is the barcode, column
// B the model and every row is data. Rows with neither value are skipped.
func (r *WorkbookReader) ReadProductRows(src io.Reader) ([]entity.ProductRow, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	headerRow, barcodeCol, modelCol := findHeader(rows)

	result := make([]entity.ProductRow, 0, len(rows))
	for i := headerRow + 1; i < len(rows); i++ {
		row := entity.ProductRow{
			Barcode: cellText(rows[i], barcodeCol),
			Model:   cellText(rows[i], modelCol),
		}
		if row.IsBlank() {
			continue
		}
		result = append(result, row)
	}

	r.logger.Info("Read product rows from workbook",
		zap.String("sheet", sheet),
		zap.Int("header_row", headerRow+1),
		zap.Int("rows", len(result)))

	return result, nil
}

// findHeader returns the header row index and the barcode/model columns.
// headerRow is -1 when no header was found.
func findHeader(rows [][]string) (headerRow, barcodeCol, modelCol int) {
	limit := headerSearchRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		b, m := -1, -1
		for col, cell := range rows[i] {
			name := strings.ToLower(strings.TrimSpace(cell))
			if b < 0 && matchesHeader(name, barcodeHeaders) {
				b = col
				continue
			}
			if m < 0 && matchesHeader(name, modelHeaders) {
				m = col
			}
		}
		if b >= 0 {
			return i, b, m
		}
	}
	return -1, 0, 1
}

func matchesHeader(name string, candidates []string) bool {
	for _, c := range candidates {
		if name == c || (len(c) > 5 && strings.Contains(name, c)) {
			return true
		}
	}
	return false
}

// cellText returns the trimmed cell value; numeric codes lose a trailing ".0"
func cellText(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[col])
	return strings.TrimSuffix(v, ".0")
}

var _ port.WorkbookReader = (*WorkbookReader)(nil)
