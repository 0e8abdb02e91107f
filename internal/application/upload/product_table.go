// Package upload holds the barcode/model product table of the invoice
// upload screen.
package upload

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/clipboard"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/rowbatch"
)

// ProductTable is the editable barcode/model grid. It always holds at least one row.
type ProductTable struct {
	mu     sync.Mutex
	rows   []entity.ProductRow
	editor *rowbatch.Editor[entity.ProductRow]
}

// NewProductTable creates a table with a single blank row
func NewProductTable() *ProductTable {
	editor := rowbatch.NewProductRowEditor()
	return &ProductTable{
		rows:   editor.Blank(),
		editor: editor,
	}
}

// Rows returns a copy of the table as displayed
func (t *ProductTable) Rows() []entity.ProductRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]entity.ProductRow(nil), t.rows...)
}

// Len returns the number of rows
func (t *ProductTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// SetCell edits one cell
func (t *ProductTable) SetCell(index int, field entity.Field, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.editor.SetCell(t.rows, index, field, value)
	if err != nil {
		return err
	}
	t.rows = rows
	return nil
}

// Paste applies clipboard text pasted into column at row anchor. A delimited
// paste into the barcode column reads barcode|model, into the model column
// model|barcode. Unusable pastes are ignored.
func (t *ProductTable) Paste(column entity.Field, anchor int, raw string) (clipboard.Kind, error) {
	paste := clipboard.Parse(raw, clipboard.Context{
		Column:    column,
		AnchorRow: anchor,
		Layout:    clipboard.ProductTableLayout,
	})
	if paste.IsEmpty() {
		return clipboard.KindNone, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.editor.ApplyBatch(t.rows, paste)
	if err != nil {
		return paste.Kind, err
	}
	t.rows = rows
	return paste.Kind, nil
}

// AddRow appends a blank row
func (t *ProductTable) AddRow() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = t.editor.Append(t.rows)
}

// Clear resets the table to a single blank row
func (t *ProductTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = t.editor.Blank()
}

// ImportWorkbook reads barcode/model rows from a supporting workbook and
// writes them below the last filled row. It returns the number of rows imported.
func (t *ProductTable) ImportWorkbook(reader port.WorkbookReader, src io.Reader) (int, error) {
	imported, err := reader.ReadProductRows(src)
	if err != nil {
		return 0, fmt.Errorf("failed to import workbook: %w", err)
	}
	if len(imported) == 0 {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	anchor := 0
	for i, row := range t.rows {
		if !row.IsBlank() {
			anchor = i + 1
		}
	}

	paste := clipboard.Paste{
		Kind:      clipboard.KindTwoColumn,
		Column:    entity.FieldBarcode,
		Primary:   entity.FieldBarcode,
		Secondary: entity.FieldModel,
		Anchor:    anchor,
		Rows:      make([]clipboard.Row, len(imported)),
	}
	for i, row := range imported {
		paste.Rows[i] = clipboard.Row{
			Index: anchor + i,
			Values: map[entity.Field]string{
				entity.FieldBarcode: row.Barcode,
				entity.FieldModel:   row.Model,
			},
		}
	}

	rows, err := t.editor.ApplyBatch(t.rows, paste)
	if err != nil {
		return 0, err
	}
	t.rows = rows
	return len(imported), nil
}

// Normalized returns the rows sent with the upload: values trimmed and
// blank rows dropped
func (t *ProductTable) Normalized() []entity.ProductRow {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]entity.ProductRow, 0, len(t.rows))
	for _, row := range t.rows {
		if row.IsBlank() {
			continue
		}
		out = append(out, entity.ProductRow{
			Barcode: strings.TrimSpace(row.Barcode),
			Model:   strings.TrimSpace(row.Model),
		})
	}
	return out
}
