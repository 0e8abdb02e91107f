package entity

// Section is a named editable view over an invoice. Every section reads and
// writes the same draft; a section only limits which fields it exposes.
type Section string

const (
	SectionSummary    Section = "summary"
	SectionDetails    Section = "details"
	SectionProducts   Section = "products"
	SectionIMProducts Section = "im_products"
)

// AllSections lists the sections in screen order
var AllSections = []Section{SectionSummary, SectionDetails, SectionProducts, SectionIMProducts}

// IsValid returns true if the section is one of the known sections
func (s Section) IsValid() bool {
	switch s {
	case SectionSummary, SectionDetails, SectionProducts, SectionIMProducts:
		return true
	}
	return false
}

// String returns the string representation of the section
func (s Section) String() string {
	return string(s)
}

// Field names an editable attribute of an invoice, a line item or an
// upload product row. Values match the JSON keys of the record.
type Field string

// Invoice-level fields
const (
	FieldInvoiceNumber Field = "invoice_number"
	FieldInvoiceDate   Field = "invoice_date"
	FieldCurrency      Field = "currency"
	FieldTotalAmount   Field = "total_amount"
)

// Line item fields
const (
	FieldItemCode        Field = "itemcode"
	FieldColorSize       Field = "color_size"
	FieldBarcode         Field = "barcode"
	FieldQuantity        Field = "quantity"
	FieldUnitCost        Field = "unit_cost"
	FieldUnitRetail      Field = "unit_retail"
	FieldItemDescription Field = "item_description"
	FieldManCode         Field = "mancode"
	FieldBrandCode       Field = "brand_code"
	FieldSeason          Field = "season"
	FieldSupplierCode    Field = "supplier_code"
	FieldSection         Field = "section"
	FieldFamily          Field = "family"
	FieldSubfamily       Field = "subfamily"
	FieldAlternateCode   Field = "alternate_code"
)

// Upload product row fields
const (
	FieldModel Field = "model"
)

var sectionInvoiceFields = map[Section][]Field{
	SectionSummary: {FieldInvoiceNumber, FieldInvoiceDate, FieldCurrency, FieldTotalAmount},
	SectionDetails: {},
}

var sectionItemFields = map[Section][]Field{
	SectionProducts: {FieldItemCode, FieldColorSize, FieldBarcode, FieldQuantity, FieldUnitCost, FieldUnitRetail},
	SectionIMProducts: {
		FieldItemCode, FieldItemDescription, FieldManCode, FieldSeason,
		FieldSection, FieldFamily, FieldSubfamily, FieldAlternateCode,
	},
}

// InvoiceFields returns the invoice-level fields the section renders as inputs.
// The details section shows references only and exposes none.
func (s Section) InvoiceFields() []Field {
	return sectionInvoiceFields[s]
}

// ItemFields returns the line item fields the section renders as inputs.
// Brand and supplier codes are derived and never appear here.
func (s Section) ItemFields() []Field {
	return sectionItemFields[s]
}

// ExposesInvoiceField reports whether the section renders f as an input
func (s Section) ExposesInvoiceField(f Field) bool {
	return containsField(sectionInvoiceFields[s], f)
}

// ExposesItemField reports whether the section renders the line item field f as an input
func (s Section) ExposesItemField(f Field) bool {
	return containsField(sectionItemFields[s], f)
}

func containsField(fields []Field, f Field) bool {
	for _, candidate := range fields {
		if candidate == f {
			return true
		}
	}
	return false
}
