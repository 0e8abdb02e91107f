package upload

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-intake/internal/domain/clipboard"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/rowbatch"
)

type mockWorkbookReader struct {
	readFunc func(r io.Reader) ([]entity.ProductRow, error)
}

func (m *mockWorkbookReader) ReadProductRows(r io.Reader) ([]entity.ProductRow, error) {
	return m.readFunc(r)
}

func TestProductTable_StartsWithOneBlankRow(t *testing.T) {
	table := NewProductTable()

	assert.Equal(t, []entity.ProductRow{{}}, table.Rows())
	assert.Empty(t, table.Normalized())
}

func TestProductTable_PasteBarcodeModelPairs(t *testing.T) {
	table := NewProductTable()

	kind, err := table.Paste(entity.FieldBarcode, 0, "123456\tSKU-1\n789012\tSKU-2")

	require.NoError(t, err)
	assert.Equal(t, clipboard.KindTwoColumn, kind)
	assert.Equal(t, []entity.ProductRow{
		{Barcode: "123456", Model: "SKU-1"},
		{Barcode: "789012", Model: "SKU-2"},
	}, table.Rows())
}

func TestProductTable_PasteIntoModelColumnReadsModelFirst(t *testing.T) {
	table := NewProductTable()

	_, err := table.Paste(entity.FieldModel, 0, "SKU-1\t123456")

	require.NoError(t, err)
	assert.Equal(t, []entity.ProductRow{{Barcode: "123456", Model: "SKU-1"}}, table.Rows())
}

func TestProductTable_PasteFillsDownAndAppends(t *testing.T) {
	table := NewProductTable()
	table.AddRow()
	table.AddRow()
	require.NoError(t, table.SetCell(0, entity.FieldBarcode, "keep"))

	kind, err := table.Paste(entity.FieldBarcode, 1, "AAA\nBBB\nCCC")

	require.NoError(t, err)
	assert.Equal(t, clipboard.KindSingleColumn, kind)
	rows := table.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, "keep", rows[0].Barcode)
	assert.Equal(t, "AAA", rows[1].Barcode)
	assert.Equal(t, "BBB", rows[2].Barcode)
	assert.Equal(t, "CCC", rows[3].Barcode)
}

func TestProductTable_ScalarPasteAndEmptyPaste(t *testing.T) {
	table := NewProductTable()

	kind, err := table.Paste(entity.FieldModel, 0, "  SKU-9  ")
	require.NoError(t, err)
	assert.Equal(t, clipboard.KindScalar, kind)
	assert.Equal(t, "SKU-9", table.Rows()[0].Model)

	kind, err = table.Paste(entity.FieldModel, 0, "\r\n")
	require.NoError(t, err)
	assert.Equal(t, clipboard.KindNone, kind)
	assert.Equal(t, 1, table.Len())
}

func TestProductTable_SetCellOutOfRange(t *testing.T) {
	table := NewProductTable()

	err := table.SetCell(3, entity.FieldBarcode, "x")

	assert.ErrorIs(t, err, rowbatch.ErrRowOutOfRange)
}

func TestProductTable_ClearResetsToOneBlankRow(t *testing.T) {
	table := NewProductTable()
	_, err := table.Paste(entity.FieldBarcode, 0, "1\n2\n3")
	require.NoError(t, err)

	table.Clear()

	assert.Equal(t, []entity.ProductRow{{}}, table.Rows())
}

func TestProductTable_Normalized(t *testing.T) {
	table := NewProductTable()
	table.AddRow()
	table.AddRow()
	require.NoError(t, table.SetCell(0, entity.FieldBarcode, " 111 "))
	require.NoError(t, table.SetCell(2, entity.FieldModel, "M-3\t"))

	assert.Equal(t, []entity.ProductRow{
		{Barcode: "111", Model: ""},
		{Barcode: "", Model: "M-3"},
	}, table.Normalized())
}

func TestProductTable_ImportWorkbook(t *testing.T) {
	table := NewProductTable()
	_, err := table.Paste(entity.FieldBarcode, 0, "111\tM-1")
	require.NoError(t, err)
	table.AddRow()

	reader := &mockWorkbookReader{
		readFunc: func(r io.Reader) ([]entity.ProductRow, error) {
			return []entity.ProductRow{{Barcode: "222", Model: "M-2"}, {Barcode: "333", Model: "M-3"}}, nil
		},
	}

	n, err := table.ImportWorkbook(reader, strings.NewReader(""))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []entity.ProductRow{
		{Barcode: "111", Model: "M-1"},
		{Barcode: "222", Model: "M-2"},
		{Barcode: "333", Model: "M-3"},
	}, table.Rows())
}

func TestProductTable_ImportWorkbookError(t *testing.T) {
	table := NewProductTable()
	reader := &mockWorkbookReader{
		readFunc: func(r io.Reader) ([]entity.ProductRow, error) {
			return nil, errors.New("not a workbook")
		},
	}

	n, err := table.ImportWorkbook(reader, strings.NewReader("garbage"))

	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []entity.ProductRow{{}}, table.Rows())
}
