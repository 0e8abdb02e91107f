package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, data interface{}, errMsg string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	body := map[string]interface{}{"success": errMsg == ""}
	if data != nil {
		body["data"] = data
	}
	if errMsg != "" {
		body["error"] = errMsg
	}
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, session *StaticSession) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", session, 0, zap.NewNop())
}

func TestFetchRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/invoices/7", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeEnvelope(t, w, http.StatusOK, map[string]interface{}{
			"id":             7,
			"invoice_number": "INV-7",
			"total_amount":   "10.50",
			"items":          []map[string]interface{}{{"id": 1, "itemcode": "A1"}},
		}, "")
	}, NewStaticSession("tok"))

	invoice, err := client.FetchRecord(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "INV-7", invoice.InvoiceNumber)
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("10.5")))
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, "A1", invoice.Items[0].ItemCode)
}

func TestFetchRecord_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, apperr.ErrNotFound},
		{"forbidden", http.StatusForbidden, apperr.ErrUnauthorized},
		{"server", http.StatusInternalServerError, apperr.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(t, w, tt.status, nil, "nope")
			}, nil)

			_, err := client.FetchRecord(context.Background(), 7)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestUnauthorized_InvalidatesSession(t *testing.T) {
	calls := 0
	session := NewStaticSession("expired")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeEnvelope(t, w, http.StatusUnauthorized, nil, "missing or invalid bearer token")
	}, session)

	_, err := client.FetchRecord(context.Background(), 7)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = client.FetchRecord(context.Background(), 7)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 1, calls, "revoked session does not reach the server")

	session.Reset("fresh")
	_, err = client.FetchRecord(context.Background(), 7)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestSaveRecord_SendsEditableFields(t *testing.T) {
	var got map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(t, w, http.StatusOK, map[string]interface{}{"id": 7, "currency": "QAR"}, "")
	}, nil)

	id := int64(3)
	total := decimal.RequireFromString("99.99")
	saved, err := client.SaveRecord(context.Background(), 7, &entity.Invoice{
		ID:            7,
		InvoiceNumber: "INV-7",
		Currency:      "QAR",
		TotalAmount:   &total,
		Items:         []entity.LineItem{{ID: &id, ItemCode: "A1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "QAR", saved.Currency)

	assert.JSONEq(t, `"INV-7"`, string(got["invoice_number"]))
	assert.JSONEq(t, `"99.99"`, string(got["total_amount"]))
	assert.Contains(t, string(got["items"]), `"itemcode":"A1"`)
	_, hasCompany := got["company"]
	assert.False(t, hasCompany, "read-only references are not sent")
}

func TestSaveRecord_NilItemsAndTotalSentAsNull(t *testing.T) {
	var got map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(t, w, http.StatusOK, map[string]interface{}{"id": 7}, "")
	}, nil)

	_, err := client.SaveRecord(context.Background(), 7, &entity.Invoice{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "null", string(got["items"]))
	assert.Equal(t, "null", string(got["total_amount"]), "a cleared total is sent as null")
}

func TestSaveRecord_ValidationRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusBadRequest, nil, "invalid request body")
	}, nil)

	_, err := client.SaveRecord(context.Background(), 7, &entity.Invoice{ID: 7})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFetchBinaryArtifact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/invoices/7/supporting-file", r.URL.Path)
		w.Header().Set("Content-Type", entity.MediaTypeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="lines 2025.xlsx"`)
		_, _ = io.WriteString(w, "PK-bytes")
	}, nil)

	artifact, err := client.FetchBinaryArtifact(context.Background(), 7, entity.ArtifactSupporting)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK-bytes"), artifact.Data)
	assert.Equal(t, entity.MediaTypeXLSX, artifact.MediaType)
	assert.Equal(t, "lines 2025.xlsx", artifact.FileName)
}

func TestFetchBinaryArtifact_JSONBodyIsReturnedAsIs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/invoices/7/file", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, map[string]interface{}{"path": "x.pdf"}, "")
	}, nil)

	artifact, err := client.FetchBinaryArtifact(context.Background(), 7, entity.ArtifactInvoice)
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", artifact.MediaType)
	assert.Empty(t, artifact.FileName)
}

func TestFetchBinaryArtifact_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusNotFound, nil, "resource not found")
	}, nil)

	_, err := client.FetchBinaryArtifact(context.Background(), 7, entity.ArtifactInvoice)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUploadArtifact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "scan.pdf", header.Filename)
		assert.Equal(t, "%PDF", string(data))
		writeEnvelope(t, w, http.StatusOK, map[string]interface{}{"id": 7, "invoice_file_path": "invoices/7/invoice/scan.pdf"}, "")
	}, nil)

	invoice, err := client.UploadArtifact(context.Background(), 7, entity.ArtifactInvoice, "scan.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "invoices/7/invoice/scan.pdf", invoice.InvoiceFilePath)
}

func TestCheckTrackerExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tracker/invoice/7":
			writeEnvelope(t, w, http.StatusOK, map[string]interface{}{"tracker": map[string]interface{}{"id": 1}}, "")
		default:
			writeEnvelope(t, w, http.StatusOK, map[string]interface{}{"tracker": nil}, "")
		}
	}, nil)

	exists, err := client.CheckTrackerExists(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.CheckTrackerExists(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateTrackerEntry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in entity.TrackerIntake
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.InvoiceID == 8 {
			writeEnvelope(t, w, http.StatusConflict, nil, "invoice is already in the tracker")
			return
		}
		writeEnvelope(t, w, http.StatusCreated, map[string]interface{}{
			"id": 1, "invoice_id": in.InvoiceID, "serial_number": "DOH-25-0001",
		}, "")
	}, nil)

	entry, err := client.CreateTrackerEntry(context.Background(), &entity.TrackerIntake{InvoiceID: 7})
	require.NoError(t, err)
	assert.Equal(t, "DOH-25-0001", entry.SerialNumber)

	_, err = client.CreateTrackerEntry(context.Background(), &entity.TrackerIntake{InvoiceID: 8})
	assert.ErrorIs(t, err, apperr.ErrAlreadyTracked)

	var se *apperr.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.StatusCode)
}

func TestDecode_NonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}, nil)

	_, err := client.FetchRecord(context.Background(), 7)
	assert.ErrorIs(t, err, apperr.ErrServer)
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestExportWorkbook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/invoices/7/download", r.URL.Path)
		w.Header().Set("Content-Type", entity.MediaTypeXLSX)
		w.Header().Set("Content-Disposition", "attachment; filename=Invoice_INV-7_20250301.xlsx")
		_, _ = io.WriteString(w, "xlsx")
	}, nil)

	artifact, err := client.ExportWorkbook(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Invoice_INV-7_20250301.xlsx", artifact.FileName)
	assert.Equal(t, []byte("xlsx"), artifact.Data)
}
