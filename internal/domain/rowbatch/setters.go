package rowbatch

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// NewLineItemEditor returns an editor for invoice line items
func NewLineItemEditor() *Editor[entity.LineItem] {
	return New[entity.LineItem](SetLineItemField, func() entity.LineItem { return entity.LineItem{} },
		WithClone(entity.LineItem.Clone))
}

// NewProductRowEditor returns an editor for the upload product table
func NewProductRowEditor() *Editor[entity.ProductRow] {
	return New[entity.ProductRow](SetProductRowField, func() entity.ProductRow { return entity.ProductRow{} })
}

// SetLineItemField writes a text value into a line item field. Numeric
// fields are parsed as decimals and an empty value clears them. Brand and
// supplier codes are derived from the invoice and cannot be set.
func SetLineItemField(item *entity.LineItem, field entity.Field, value string) error {
	switch field {
	case entity.FieldItemCode:
		item.ItemCode = value
	case entity.FieldColorSize:
		item.ColorSize = value
	case entity.FieldBarcode:
		item.Barcode = value
	case entity.FieldItemDescription:
		item.ItemDescription = value
	case entity.FieldManCode:
		item.ManCode = value
	case entity.FieldSeason:
		item.Season = value
	case entity.FieldSection:
		item.Section = value
	case entity.FieldFamily:
		item.Family = value
	case entity.FieldSubfamily:
		item.Subfamily = value
	case entity.FieldAlternateCode:
		item.AlternateCode = value
	case entity.FieldQuantity:
		return setDecimal(&item.Quantity, field, value)
	case entity.FieldUnitCost:
		return setDecimal(&item.UnitCost, field, value)
	case entity.FieldUnitRetail:
		return setDecimal(&item.UnitRetail, field, value)
	case entity.FieldBrandCode, entity.FieldSupplierCode:
		return apperr.NewValidationError(string(field), "derived from the invoice and not editable")
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// SetProductRowField writes a value into the barcode or model cell
func SetProductRowField(row *entity.ProductRow, field entity.Field, value string) error {
	switch field {
	case entity.FieldBarcode:
		row.Barcode = value
	case entity.FieldModel:
		row.Model = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

func setDecimal(dst **decimal.Decimal, field entity.Field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		*dst = nil
		return nil
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return apperr.NewValidationError(string(field), fmt.Sprintf("%q is not a number", value))
	}
	*dst = &d
	return nil
}
