package entity

// InvoiceStatus is the processing status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft      InvoiceStatus = "draft"
	InvoiceStatusProcessing InvoiceStatus = "processing"
	InvoiceStatusProcessed  InvoiceStatus = "processed"
	InvoiceStatusError      InvoiceStatus = "error"
)

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusProcessing, InvoiceStatusProcessed, InvoiceStatusError:
		return true
	}
	return false
}

// ArtifactKind identifies one of the binary files attached to an invoice
type ArtifactKind string

const (
	ArtifactInvoice    ArtifactKind = "invoice"
	ArtifactSupporting ArtifactKind = "supporting"
)

// IsValid returns true if the kind is a known artifact kind
func (k ArtifactKind) IsValid() bool {
	return k == ArtifactInvoice || k == ArtifactSupporting
}

// Media types handled by the preview pane
const (
	MediaTypeJSON = "application/json"
	MediaTypePDF  = "application/pdf"
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
