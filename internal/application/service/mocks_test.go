package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/event"
)

type mockInvoiceRepo struct {
	createFunc     func(ctx context.Context, invoice *entity.Invoice) error
	getByIDFunc    func(ctx context.Context, id int64) (*entity.Invoice, error)
	updateFunc     func(ctx context.Context, invoice *entity.Invoice) error
	getItemsFunc   func(ctx context.Context, invoiceID int64) ([]entity.LineItem, error)
	createItemFunc func(ctx context.Context, invoiceID int64, item *entity.LineItem) error
	updateItemFunc func(ctx context.Context, invoiceID int64, item *entity.LineItem) error
	deleteItemFunc func(ctx context.Context, invoiceID int64, itemID int64) error
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, invoice)
	}
	invoice.ID = 1
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, invoice)
	}
	return nil
}

func (m *mockInvoiceRepo) GetItems(ctx context.Context, invoiceID int64) ([]entity.LineItem, error) {
	if m.getItemsFunc != nil {
		return m.getItemsFunc(ctx, invoiceID)
	}
	return []entity.LineItem{}, nil
}

func (m *mockInvoiceRepo) CreateItem(ctx context.Context, invoiceID int64, item *entity.LineItem) error {
	if m.createItemFunc != nil {
		return m.createItemFunc(ctx, invoiceID, item)
	}
	return nil
}

func (m *mockInvoiceRepo) UpdateItem(ctx context.Context, invoiceID int64, item *entity.LineItem) error {
	if m.updateItemFunc != nil {
		return m.updateItemFunc(ctx, invoiceID, item)
	}
	return nil
}

func (m *mockInvoiceRepo) DeleteItem(ctx context.Context, invoiceID int64, itemID int64) error {
	if m.deleteItemFunc != nil {
		return m.deleteItemFunc(ctx, invoiceID, itemID)
	}
	return nil
}

type mockTrackerRepo struct {
	createFunc              func(ctx context.Context, entry *entity.TrackerEntry) error
	getByInvoiceIDFunc      func(ctx context.Context, invoiceID int64) (*entity.TrackerEntry, error)
	countBySerialPrefixFunc func(ctx context.Context, businessUnitID int64, prefix string) (int, error)
	listFunc                func(ctx context.Context, countryID int64, businessUnitID *int64) ([]*entity.TrackerEntry, error)
}

func (m *mockTrackerRepo) Create(ctx context.Context, entry *entity.TrackerEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	entry.ID = 1
	return nil
}

func (m *mockTrackerRepo) GetByInvoiceID(ctx context.Context, invoiceID int64) (*entity.TrackerEntry, error) {
	if m.getByInvoiceIDFunc != nil {
		return m.getByInvoiceIDFunc(ctx, invoiceID)
	}
	return nil, nil
}

func (m *mockTrackerRepo) CountBySerialPrefix(ctx context.Context, businessUnitID int64, prefix string) (int, error) {
	if m.countBySerialPrefixFunc != nil {
		return m.countBySerialPrefixFunc(ctx, businessUnitID, prefix)
	}
	return 0, nil
}

func (m *mockTrackerRepo) List(ctx context.Context, countryID int64, businessUnitID *int64) ([]*entity.TrackerEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, countryID, businessUnitID)
	}
	return []*entity.TrackerEntry{}, nil
}

type mockEventRepo struct {
	events []*event.Event
}

func (m *mockEventRepo) Append(ctx context.Context, evt *event.Event) error {
	m.events = append(m.events, evt)
	return nil
}

func (m *mockEventRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]*event.Event, error) {
	var out []*event.Event
	for _, e := range m.events {
		if e.InvoiceID == invoiceID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockFileStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
	saveErr error
}

func (m *mockFileStorage) SaveArtifact(ctx context.Context, invoiceID int64, kind entity.ArtifactKind, fileName string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	stored := fmt.Sprintf("invoices/%d/%s/%s", invoiceID, kind, fileName)
	m.files[stored] = content
	return stored, nil
}

func (m *mockFileStorage) ReadArtifact(ctx context.Context, storedPath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[storedPath]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return content, nil
}

func (m *mockFileStorage) DeleteArtifact(ctx context.Context, storedPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, storedPath)
	m.deleted = append(m.deleted, storedPath)
	return nil
}

type mockExporter struct {
	exportFunc func(invoice *entity.Invoice) ([]byte, error)
}

func (m *mockExporter) Export(invoice *entity.Invoice) ([]byte, error) {
	if m.exportFunc != nil {
		return m.exportFunc(invoice)
	}
	return []byte("PK"), nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockPublisher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
