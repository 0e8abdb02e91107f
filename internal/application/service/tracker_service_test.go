package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/domain/event"
)

func validIntake() entity.TrackerIntake {
	return entity.TrackerIntake{
		InvoiceID:      7,
		DateOfRequest:  "2024-03-18",
		TicketNo:       "T-1",
		ShipmentNo:     "S-1",
		ShipmentStatus: entity.ShipmentPending,
		SPTicketNo:     "ignored",
	}
}

func trackedInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Invoice, error) {
			return &entity.Invoice{
				ID:           id,
				CountryID:    1,
				BusinessUnit: &entity.Reference{ID: 5, Code: "ret01"},
			}, nil
		},
	}
}

func newTrackerService(trackers *mockTrackerRepo, invoices *mockInvoiceRepo, pub *mockPublisher) *trackerServiceImpl {
	svc := NewTrackerService(trackers, invoices, &mockTxManager{}, pub, &mockLogger{}).(*trackerServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestTrackerService_AddGeneratesSerial(t *testing.T) {
	var (
		gotPrefix string
		created   *entity.TrackerEntry
	)
	trackers := &mockTrackerRepo{
		countBySerialPrefixFunc: func(ctx context.Context, businessUnitID int64, prefix string) (int, error) {
			gotPrefix = prefix
			return 41, nil
		},
		createFunc: func(ctx context.Context, entry *entity.TrackerEntry) error {
			created = entry
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := newTrackerService(trackers, trackedInvoiceRepo(), pub)

	entry, err := svc.Add(context.Background(), validIntake())

	require.NoError(t, err)
	assert.Equal(t, "RET-24-", gotPrefix)
	assert.Equal(t, "RET-24-0042", entry.SerialNumber)
	assert.Equal(t, int64(5), created.BusinessUnitID)
	assert.Equal(t, int64(1), created.CountryID)
	assert.Nil(t, created.SPTicketNo)
	assert.Equal(t, []event.Type{event.TypeTrackerEntryCreated}, pub.types())
}

func TestTrackerService_AddKeepsSPTicketWhenSPShipment(t *testing.T) {
	svc := newTrackerService(&mockTrackerRepo{}, trackedInvoiceRepo(), &mockPublisher{})

	in := validIntake()
	in.SPShipment = true
	in.SPTicketNo = "  SP-9 "

	entry, err := svc.Add(context.Background(), in)

	require.NoError(t, err)
	require.NotNil(t, entry.SPTicketNo)
	assert.Equal(t, "SP-9", *entry.SPTicketNo)
}

func TestTrackerService_AddRejections(t *testing.T) {
	tests := []struct {
		name     string
		trackers *mockTrackerRepo
		invoices *mockInvoiceRepo
		intake   func() entity.TrackerIntake
		wantErr  error
	}{
		{
			name:     "invalid form",
			trackers: &mockTrackerRepo{},
			invoices: trackedInvoiceRepo(),
			intake: func() entity.TrackerIntake {
				in := validIntake()
				in.TicketNo = " "
				return in
			},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "already tracked",
			trackers: &mockTrackerRepo{
				getByInvoiceIDFunc: func(ctx context.Context, invoiceID int64) (*entity.TrackerEntry, error) {
					return &entity.TrackerEntry{ID: 3, InvoiceID: invoiceID}, nil
				},
			},
			invoices: trackedInvoiceRepo(),
			intake:   validIntake,
			wantErr:  apperr.ErrAlreadyTracked,
		},
		{
			name:     "invoice missing",
			trackers: &mockTrackerRepo{},
			invoices: &mockInvoiceRepo{},
			intake:   validIntake,
			wantErr:  apperr.ErrNotFound,
		},
		{
			name:     "no business unit",
			trackers: &mockTrackerRepo{},
			invoices: &mockInvoiceRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Invoice, error) {
					return &entity.Invoice{ID: id}, nil
				},
			},
			intake:  validIntake,
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			createCalls := 0
			tt.trackers.createFunc = func(ctx context.Context, entry *entity.TrackerEntry) error {
				createCalls++
				return nil
			}
			pub := &mockPublisher{}
			svc := newTrackerService(tt.trackers, tt.invoices, pub)

			_, err := svc.Add(context.Background(), tt.intake())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, createCalls)
			assert.Empty(t, pub.types())
		})
	}
}

func TestSerialPrefix(t *testing.T) {
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "RET-25-", SerialPrefix("retail", at))
	assert.Equal(t, "QA-25-", SerialPrefix("qa", at))
	assert.Equal(t, "ABC-25-", SerialPrefix(" abc ", at))
}
