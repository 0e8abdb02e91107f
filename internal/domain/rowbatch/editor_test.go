package rowbatch

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/clipboard"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

func productRows(barcodes ...string) []entity.ProductRow {
	rows := make([]entity.ProductRow, len(barcodes))
	for i, b := range barcodes {
		rows[i] = entity.ProductRow{Barcode: b, Model: "M-" + b}
	}
	return rows
}

func TestApplyBatch_TwoColumnScenario(t *testing.T) {
	editor := NewProductRowEditor()
	rows := []entity.ProductRow{{}}

	paste := clipboard.Parse("123456\tSKU-1\n789012\tSKU-2", clipboard.Context{
		Column: entity.FieldBarcode, AnchorRow: 0, Layout: clipboard.ProductTableLayout,
	})
	out, err := editor.ApplyBatch(rows, paste)

	require.NoError(t, err)
	assert.Equal(t, []entity.ProductRow{
		{Barcode: "123456", Model: "SKU-1"},
		{Barcode: "789012", Model: "SKU-2"},
	}, out)
	assert.Equal(t, []entity.ProductRow{{}}, rows, "input must not be mutated")
}

func TestApplyBatch_SingleColumnScenario(t *testing.T) {
	editor := NewProductRowEditor()
	rows := productRows("r0", "r1", "r2")

	paste := clipboard.Parse("AAA\nBBB\nCCC", clipboard.Context{
		Column: entity.FieldBarcode, AnchorRow: 1, Layout: clipboard.ProductTableLayout,
	})
	out, err := editor.ApplyBatch(rows, paste)

	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, entity.ProductRow{Barcode: "r0", Model: "M-r0"}, out[0])
	assert.Equal(t, entity.ProductRow{Barcode: "AAA", Model: "M-r1"}, out[1])
	assert.Equal(t, entity.ProductRow{Barcode: "BBB", Model: "M-r2"}, out[2])
	assert.Equal(t, entity.ProductRow{Barcode: "CCC"}, out[3])
	assert.Equal(t, productRows("r0", "r1", "r2"), rows)
}

func TestApplyBatch_SingleColumnLength(t *testing.T) {
	editor := NewProductRowEditor()

	tests := []struct {
		name   string
		rows   int
		anchor int
		values []string
	}{
		{"fits inside", 5, 1, []string{"a", "b"}},
		{"ends exactly at the last row", 3, 1, []string{"a", "b"}},
		{"runs past the end", 2, 1, []string{"a", "b", "c"}},
		{"anchor past the end", 2, 4, []string{"a", "b"}},
		{"empty list", 0, 0, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]entity.ProductRow, tt.rows)
			raw := ""
			for _, v := range tt.values {
				raw += v + "\n"
			}
			paste := clipboard.Parse(raw, clipboard.Context{
				Column: entity.FieldModel, AnchorRow: tt.anchor, Layout: clipboard.ProductTableLayout,
			})

			out, err := editor.ApplyBatch(rows, paste)
			require.NoError(t, err)

			want := tt.rows
			if end := tt.anchor + len(tt.values); end > want {
				want = end
			}
			assert.Len(t, out, want)
			for i, v := range tt.values {
				assert.Equal(t, v, out[tt.anchor+i].Model)
			}
		})
	}
}

func TestApplyBatch_TwoColumnFromModelColumnUsesReversedRoles(t *testing.T) {
	editor := NewProductRowEditor()
	rows := productRows("x", "y", "z")

	paste := clipboard.Parse("SKU-9\t999", clipboard.Context{
		Column: entity.FieldModel, AnchorRow: 2, Layout: clipboard.ProductTableLayout,
	})
	out, err := editor.ApplyBatch(rows, paste)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, entity.ProductRow{Barcode: "999", Model: "SKU-9"}, out[2])
}

func TestApplyBatch_MissingSecondValueBlanksField(t *testing.T) {
	editor := NewProductRowEditor()
	rows := productRows("a", "b")

	paste := clipboard.Parse("111\tNEW\n222\n333", clipboard.Context{
		Column: entity.FieldBarcode, Layout: clipboard.ProductTableLayout,
	})
	out, err := editor.ApplyBatch(rows, paste)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, entity.ProductRow{Barcode: "111", Model: "NEW"}, out[0])
	assert.Equal(t, entity.ProductRow{Barcode: "222"}, out[1])
	assert.Equal(t, entity.ProductRow{Barcode: "333"}, out[2])
}

func TestApplyBatch_EmptyPasteIsNoOp(t *testing.T) {
	editor := NewProductRowEditor()
	rows := productRows("a", "b")

	out, err := editor.ApplyBatch(rows, clipboard.Parse("\n\n", clipboard.Context{Column: entity.FieldBarcode}))

	require.NoError(t, err)
	assert.Equal(t, rows, out)
}

func TestApplyBatch_ScalarTargetsOnlyTheAnchorCell(t *testing.T) {
	editor := NewProductRowEditor()
	rows := productRows("a", "b")

	out, err := editor.ApplyBatch(rows, clipboard.Parse("only", clipboard.Context{
		Column: entity.FieldBarcode, AnchorRow: 1, Layout: clipboard.ProductTableLayout,
	}))

	require.NoError(t, err)
	assert.Equal(t, []entity.ProductRow{{Barcode: "a", Model: "M-a"}, {Barcode: "only", Model: "M-b"}}, out)

	_, err = editor.ApplyBatch(rows, clipboard.Parse("only", clipboard.Context{
		Column: entity.FieldBarcode, AnchorRow: 5, Layout: clipboard.ProductTableLayout,
	}))
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestSetCell(t *testing.T) {
	editor := NewProductRowEditor()
	rows := productRows("a", "b")

	out, err := editor.SetCell(rows, 1, entity.FieldModel, "changed")
	require.NoError(t, err)
	assert.Equal(t, "changed", out[1].Model)
	assert.Equal(t, "M-b", rows[1].Model)

	_, err = editor.SetCell(rows, 2, entity.FieldModel, "x")
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	_, err = editor.SetCell(rows, -1, entity.FieldModel, "x")
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	_, err = editor.SetCell(rows, 0, entity.FieldSeason, "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestLineItemEditor_DoesNotShareDecimals(t *testing.T) {
	editor := NewLineItemEditor()
	qty := decimal.NewFromInt(3)
	rows := []entity.LineItem{{Barcode: "1", Quantity: &qty}}

	out, err := editor.SetCell(rows, 0, entity.FieldQuantity, "7.5")
	require.NoError(t, err)

	assert.Equal(t, "7.5", out[0].Quantity.String())
	assert.Equal(t, "3", rows[0].Quantity.String())
}

func TestLineItemEditor_BatchFromBarcodeColumn(t *testing.T) {
	editor := NewLineItemEditor()
	rows := []entity.LineItem{{Barcode: "old", ItemCode: "IC-1"}}

	paste := clipboard.Parse("111\tMAN-1\n222\tMAN-2", clipboard.Context{
		Column: entity.FieldBarcode, Layout: clipboard.LineItemLayout,
	})
	out, err := editor.ApplyBatch(rows, paste)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "111", out[0].Barcode)
	assert.Equal(t, "MAN-1", out[0].ManCode)
	assert.Equal(t, "IC-1", out[0].ItemCode)
	assert.Equal(t, "222", out[1].Barcode)
	assert.Equal(t, "MAN-2", out[1].ManCode)
}

func TestLineItemEditor_ErrorLeavesInputUntouched(t *testing.T) {
	editor := NewLineItemEditor()
	rows := []entity.LineItem{{Barcode: "a"}}

	paste := clipboard.Parse("1\n2\nnot-a-number", clipboard.Context{Column: entity.FieldUnitCost})
	out, err := editor.ApplyBatch(rows, paste)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, rows, out)
	assert.Len(t, rows, 1)
}

func TestSetLineItemField(t *testing.T) {
	tests := []struct {
		name    string
		field   entity.Field
		value   string
		wantErr error
		check   func(t *testing.T, item entity.LineItem)
	}{
		{
			name: "text field", field: entity.FieldItemDescription, value: "Running shoe",
			check: func(t *testing.T, item entity.LineItem) { assert.Equal(t, "Running shoe", item.ItemDescription) },
		},
		{
			name: "decimal field", field: entity.FieldUnitRetail, value: " 19.99 ",
			check: func(t *testing.T, item entity.LineItem) { assert.Equal(t, "19.99", item.UnitRetail.String()) },
		},
		{
			name: "empty decimal clears", field: entity.FieldUnitCost, value: "",
			check: func(t *testing.T, item entity.LineItem) { assert.Nil(t, item.UnitCost) },
		},
		{name: "bad decimal", field: entity.FieldQuantity, value: "abc", wantErr: apperr.ErrValidation},
		{name: "brand code is derived", field: entity.FieldBrandCode, value: "B1", wantErr: apperr.ErrValidation},
		{name: "supplier code is derived", field: entity.FieldSupplierCode, value: "S1", wantErr: apperr.ErrValidation},
		{name: "unknown field", field: entity.FieldModel, value: "x", wantErr: ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost := decimal.NewFromInt(1)
			item := entity.LineItem{UnitCost: &cost}

			err := SetLineItemField(&item, tt.field, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, item)
		})
	}
}

func TestAppendAndBlank(t *testing.T) {
	editor := NewProductRowEditor()
	rows := productRows("a")

	out := editor.Append(rows)
	assert.Len(t, out, 2)
	assert.True(t, out[1].IsBlank())
	assert.Len(t, rows, 1)

	assert.Equal(t, []entity.ProductRow{{}}, editor.Blank())
}
