// Package remote implements the record, artifact and tracker stores against
// the invoice API served by cmd/server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// envelope mirrors the API response body
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// updateBody is the PATCH payload. A nil TotalAmount is sent as null and
// clears the stored total; a nil Items is sent as null and leaves the stored
// items untouched.
type updateBody struct {
	InvoiceNumber string            `json:"invoice_number"`
	InvoiceDate   string            `json:"invoice_date"`
	Currency      string            `json:"currency"`
	TotalAmount   *decimal.Decimal  `json:"total_amount"`
	Items         []entity.LineItem `json:"items"`
}

type trackerLookup struct {
	Tracker *entity.TrackerEntry `json:"tracker"`
}

// Client talks to the invoice API
type Client struct {
	baseURL    string
	httpClient HTTPClient
	session    port.SessionProvider
	logger     *zap.Logger
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, session port.SessionProvider, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    session,
		logger:     logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc HTTPClient) *Client {
	c.httpClient = hc
	return c
}

var (
	_ port.RecordStore   = (*Client)(nil)
	_ port.ArtifactStore = (*Client)(nil)
	_ port.TrackerStore  = (*Client)(nil)
)

// FetchRecord loads the invoice with its items
func (c *Client) FetchRecord(ctx context.Context, id int64) (*entity.Invoice, error) {
	var invoice entity.Invoice
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/invoices/%d", id), nil, &invoice); err != nil {
		return nil, fmt.Errorf("fetch invoice %d: %w", id, err)
	}
	return &invoice, nil
}

// SaveRecord sends the draft's editable fields and returns the stored record
func (c *Client) SaveRecord(ctx context.Context, id int64, draft *entity.Invoice) (*entity.Invoice, error) {
	body := updateBody{
		InvoiceNumber: draft.InvoiceNumber,
		InvoiceDate:   draft.InvoiceDate,
		Currency:      draft.Currency,
		TotalAmount:   draft.TotalAmount,
		Items:         draft.Items,
	}

	var saved entity.Invoice
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/invoices/%d", id), body, &saved); err != nil {
		c.logger.Error("Failed to save invoice", zap.Int64("invoice_id", id), zap.Error(err))
		return nil, fmt.Errorf("save invoice %d: %w", id, err)
	}

	c.logger.Info("Invoice saved", zap.Int64("invoice_id", id), zap.Int("items", len(saved.Items)))
	return &saved, nil
}

// FetchBinaryArtifact downloads the invoice or supporting file. The media
// type is whatever the server declared, JSON included.
func (c *Client) FetchBinaryArtifact(ctx context.Context, id int64, kind entity.ArtifactKind) (*port.Artifact, error) {
	artifact, err := c.fetchBinary(ctx, artifactPath(id, kind))
	if err != nil {
		return nil, fmt.Errorf("fetch %s file of invoice %d: %w", kind, id, err)
	}
	return artifact, nil
}

// ExportWorkbook downloads the ERP import workbook of the invoice
func (c *Client) ExportWorkbook(ctx context.Context, id int64) (*port.Artifact, error) {
	artifact, err := c.fetchBinary(ctx, fmt.Sprintf("/api/invoices/%d/download", id))
	if err != nil {
		return nil, fmt.Errorf("export invoice %d: %w", id, err)
	}
	return artifact, nil
}

// UploadArtifact replaces the invoice or supporting file of the invoice
func (c *Client) UploadArtifact(ctx context.Context, id int64, kind entity.ArtifactKind, fileName string, content []byte) (*entity.Invoice, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, artifactPath(id, kind), &buf, w.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("upload %s file of invoice %d: %w", kind, id, err)
	}
	defer resp.Body.Close()

	var invoice entity.Invoice
	if err := decode(resp, &invoice); err != nil {
		c.logger.Error("Failed to upload file", zap.Int64("invoice_id", id), zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("upload %s file of invoice %d: %w", kind, id, err)
	}

	c.logger.Info("File uploaded", zap.Int64("invoice_id", id), zap.String("kind", string(kind)), zap.Int("size", len(content)))
	return &invoice, nil
}

// CheckTrackerExists reports whether the invoice already has a tracker entry
func (c *Client) CheckTrackerExists(ctx context.Context, invoiceID int64) (bool, error) {
	var lookup trackerLookup
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/tracker/invoice/%d", invoiceID), nil, &lookup); err != nil {
		return false, fmt.Errorf("check tracker for invoice %d: %w", invoiceID, err)
	}
	return lookup.Tracker != nil, nil
}

// CreateTrackerEntry submits the intake form. A conflict response unwraps to
// apperr.ErrAlreadyTracked.
func (c *Client) CreateTrackerEntry(ctx context.Context, intake *entity.TrackerIntake) (*entity.TrackerEntry, error) {
	var entry entity.TrackerEntry
	err := c.doJSON(ctx, http.MethodPost, "/api/tracker/add", intake, &entry)
	if err != nil {
		var se *apperr.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("add invoice %d to tracker: %w: %w", intake.InvoiceID, apperr.ErrAlreadyTracked, err)
		}
		return nil, fmt.Errorf("add invoice %d to tracker: %w", intake.InvoiceID, err)
	}
	return &entry, nil
}

func (c *Client) fetchBinary(ctx context.Context, path string) (*port.Artifact, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, data)
	}

	return &port.Artifact{
		Data:      data,
		MediaType: resp.Header.Get("Content-Type"),
		FileName:  attachmentName(resp.Header.Get("Content-Disposition")),
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(resp, out)
}

// do sends the request with the session's bearer token. A 401 invalidates
// the session.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.session != nil {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.session != nil {
		c.session.Invalidate()
	}
	return resp, nil
}

func decode(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return apperr.NewStatusError(resp.StatusCode, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// statusError builds the taxonomy error from a failed response, preferring
// the envelope's message over the raw body
func statusError(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return apperr.NewStatusError(status, env.Error)
	}
	return apperr.NewStatusError(status, strings.TrimSpace(string(body)))
}

func artifactPath(id int64, kind entity.ArtifactKind) string {
	if kind == entity.ArtifactSupporting {
		return fmt.Sprintf("/api/invoices/%d/supporting-file", id)
	}
	return fmt.Sprintf("/api/invoices/%d/file", id)
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
