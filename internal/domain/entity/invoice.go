package entity

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Reference is a read-mostly link from an invoice to master data
// (company, business unit, supplier, brand).
type Reference struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Invoice is the record previewed and edited on the intake screens.
// Optional scalars are pointers so an absent value survives a round trip
// through the remote store.
type Invoice struct {
	ID                 int64            `json:"id"`
	InvoiceNumber      string           `json:"invoice_number"`
	InvoiceDate        string           `json:"invoice_date"` // YYYYMMDD
	Currency           string           `json:"currency"`
	Subtotal           *decimal.Decimal `json:"subtotal,omitempty"`
	VAT                *decimal.Decimal `json:"vat,omitempty"`
	TotalAmount        *decimal.Decimal `json:"total_amount"`
	Status             InvoiceStatus    `json:"status"`
	CountryID          int64            `json:"country_id"`
	Company            *Reference       `json:"company"`
	BusinessUnit       *Reference       `json:"business_unit"`
	Supplier           *Reference       `json:"supplier"`
	Brand              *Reference       `json:"brand"`
	InvoiceFilePath    string           `json:"invoice_file_path,omitempty"`
	SupportingFilePath string           `json:"supporting_file_path,omitempty"`
	Items              []LineItem       `json:"items"`
}

// LineItem is one ordered entry of an invoice. Fields are grouped by the PO
// and IM creation views; ItemCode belongs to both.
type LineItem struct {
	ID *int64 `json:"id,omitempty"`

	// PO view
	ItemCode   string           `json:"itemcode"`
	ColorSize  string           `json:"color_size"`
	Barcode    string           `json:"barcode"`
	Quantity   *decimal.Decimal `json:"quantity"`
	UnitCost   *decimal.Decimal `json:"unit_cost"`
	UnitRetail *decimal.Decimal `json:"unit_retail"`

	// IM view
	ItemDescription string `json:"item_description"`
	ManCode         string `json:"mancode"`
	BrandCode       string `json:"brand_code"`
	Season          string `json:"season"`
	SupplierCode    string `json:"supplier_code"`
	Section         string `json:"section"`
	Family          string `json:"family"`
	Subfamily       string `json:"subfamily"`
	AlternateCode   string `json:"alternate_code"`
}

// DefaultSeason is stored for items created without a season.
const DefaultSeason = "000"

// Clone returns a deep copy of the invoice. The draft and the clean copy
// never share backing arrays or pointers.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}

	out := *inv
	out.Subtotal = cloneDecimal(inv.Subtotal)
	out.VAT = cloneDecimal(inv.VAT)
	out.TotalAmount = cloneDecimal(inv.TotalAmount)
	out.Company = cloneReference(inv.Company)
	out.BusinessUnit = cloneReference(inv.BusinessUnit)
	out.Supplier = cloneReference(inv.Supplier)
	out.Brand = cloneReference(inv.Brand)

	if inv.Items != nil {
		out.Items = make([]LineItem, len(inv.Items))
		for i := range inv.Items {
			out.Items[i] = inv.Items[i].Clone()
		}
	}

	return &out
}

// Clone returns a deep copy of the line item.
func (li LineItem) Clone() LineItem {
	out := li
	if li.ID != nil {
		id := *li.ID
		out.ID = &id
	}
	out.Quantity = cloneDecimal(li.Quantity)
	out.UnitCost = cloneDecimal(li.UnitCost)
	out.UnitRetail = cloneDecimal(li.UnitRetail)
	return out
}

// Fingerprint returns the canonical JSON encoding of the invoice, used to
// compare a draft against the clean copy.
func (inv *Invoice) Fingerprint() ([]byte, error) {
	data, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice %d: %w", inv.ID, err)
	}
	return data, nil
}

// BrandCode returns the brand reference code or "" when the brand is unset.
func (inv *Invoice) BrandCode() string {
	if inv.Brand == nil {
		return ""
	}
	return inv.Brand.Code
}

// SupplierCode returns the supplier reference code or "" when the supplier is unset.
func (inv *Invoice) SupplierCode() string {
	if inv.Supplier == nil {
		return ""
	}
	return inv.Supplier.Code
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneReference(r *Reference) *Reference {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
