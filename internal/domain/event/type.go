package event

// Type identifies the type of domain event
type Type string

const (
	TypeInvoiceCreated      Type = "invoice.created"
	TypeInvoiceUpdated      Type = "invoice.updated"
	TypeArtifactStored      Type = "invoice.artifact_stored"
	TypeTrackerEntryCreated Type = "tracker.entry_created"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceCreated,
		TypeInvoiceUpdated,
		TypeArtifactStored,
		TypeTrackerEntryCreated:
		return true
	default:
		return false
	}
}

// AllTypes returns every defined event type
func AllTypes() []Type {
	return []Type{
		TypeInvoiceCreated,
		TypeInvoiceUpdated,
		TypeArtifactStored,
		TypeTrackerEntryCreated,
	}
}
