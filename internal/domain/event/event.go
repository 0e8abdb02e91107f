// Package event defines the invoice lifecycle events recorded by the API server
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is something that happened to one invoice
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	InvoiceID     int64                  `json:"invoice_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates an event that starts its own correlation chain
func NewEvent(eventType Type, invoiceID int64, payload map[string]interface{}) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		InvoiceID:     invoiceID,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
		CorrelationID: id,
	}
}

// Follow creates an event caused by e, sharing its correlation ID
func (e *Event) Follow(eventType Type, payload map[string]interface{}) *Event {
	next := NewEvent(eventType, e.InvoiceID, payload)
	next.CorrelationID = e.CorrelationID
	return next
}

// WithPayload returns a copy of the event with key set in the payload
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	out := *e
	out.Payload = payload
	return &out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload. Numbers decoded
// from JSON arrive as float64.
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
