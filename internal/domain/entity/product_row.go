package entity

import "strings"

// ProductRow is one barcode/model line of the upload screen's product table
type ProductRow struct {
	Barcode string `json:"barcode"`
	Model   string `json:"model"`
}

// IsBlank returns true when both cells are empty after trimming
func (r ProductRow) IsBlank() bool {
	return strings.TrimSpace(r.Barcode) == "" && strings.TrimSpace(r.Model) == ""
}
