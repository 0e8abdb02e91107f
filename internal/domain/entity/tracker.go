package entity

import "time"

// ShipmentStatus is the shipment state recorded on a tracker entry
type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "Pending"
	ShipmentInTransit ShipmentStatus = "In Transit"
	ShipmentDelivered ShipmentStatus = "Delivered"
	ShipmentCancelled ShipmentStatus = "Cancelled"
	ShipmentOnHold    ShipmentStatus = "On Hold"
)

// IsValid returns true if the status is one of the intake form options
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentPending, ShipmentInTransit, ShipmentDelivered, ShipmentCancelled, ShipmentOnHold:
		return true
	}
	return false
}

// TrackerIntake is the payload of the "add to tracker" form.
// Field order matches the order in which the form reports missing values.
type TrackerIntake struct {
	InvoiceID               int64          `json:"invoice_id" validate:"required"`
	DateOfRequest           string         `json:"date_of_request" validate:"required,datetime=2006-01-02"`
	TicketNo                string         `json:"ticket_no" validate:"required"`
	ShipmentNo              string         `json:"shipment_no" validate:"required"`
	ShipmentStatus          ShipmentStatus `json:"shipment_status" validate:"required,shipment_status"`
	CommunicatedWithCosting bool           `json:"communicated_with_costing"`
	SPShipment              bool           `json:"sp_shipment"`
	SPTicketNo              string         `json:"sp_ticket_no" validate:"required_if=SPShipment true"`
}

// TrackerEntry is the shipment tracking record linked to one invoice
type TrackerEntry struct {
	ID                      int64          `json:"id"`
	InvoiceID               int64          `json:"invoice_id"`
	SerialNumber            string         `json:"serial_number"`
	CountryID               int64          `json:"country_id"`
	BusinessUnitID          int64          `json:"bu_id"`
	DateOfRequest           string         `json:"date_of_request"`
	TicketNo                string         `json:"ticket_no"`
	ShipmentNo              string         `json:"shipment_no"`
	ShipmentStatus          ShipmentStatus `json:"shipment_status"`
	CommunicatedWithCosting bool           `json:"communicated_with_costing"`
	SPShipment              bool           `json:"sp_shipment"`
	SPTicketNo              *string        `json:"sp_ticket_no"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               *time.Time     `json:"updated_at,omitempty"`
}
