package port

import (
	"context"

	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/event"
)

// InvoiceRepository defines persistence operations for Invoice and its line items
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetItems(ctx context.Context, invoiceID int64) ([]entity.LineItem, error)
	CreateItem(ctx context.Context, invoiceID int64, item *entity.LineItem) error
	UpdateItem(ctx context.Context, invoiceID int64, item *entity.LineItem) error
	DeleteItem(ctx context.Context, invoiceID int64, itemID int64) error
}

// TrackerRepository defines persistence operations for TrackerEntry
type TrackerRepository interface {
	Create(ctx context.Context, entry *entity.TrackerEntry) error
	GetByInvoiceID(ctx context.Context, invoiceID int64) (*entity.TrackerEntry, error)
	CountBySerialPrefix(ctx context.Context, businessUnitID int64, prefix string) (int, error)
	List(ctx context.Context, countryID int64, businessUnitID *int64) ([]*entity.TrackerEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventRepository records the invoice event history
type EventRepository interface {
	Append(ctx context.Context, evt *event.Event) error
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*event.Event, error)
}
