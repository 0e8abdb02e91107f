package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/application/service"
	"github.com/garyjia/invoice-intake/internal/domain/apperr"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoiceService service.InvoiceService
	trackerService service.TrackerService
	health         HealthChecker
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	invoiceService service.InvoiceService,
	trackerService service.TrackerService,
	health HealthChecker,
	logger Logger,
) *Handlers {
	return &Handlers{
		invoiceService: invoiceService,
		trackerService: trackerService,
		health:         health,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateInvoiceRequest is the body of POST /api/invoices
type CreateInvoiceRequest struct {
	InvoiceNumber string            `json:"invoice_number" binding:"required,max=100"`
	InvoiceDate   string            `json:"invoice_date" binding:"omitempty,len=8,numeric"`
	Currency      string            `json:"currency" binding:"omitempty,len=3"`
	Subtotal      *decimal.Decimal  `json:"subtotal"`
	VAT           *decimal.Decimal  `json:"vat"`
	TotalAmount   *decimal.Decimal  `json:"total_amount"`
	CountryID     int64             `json:"country_id"`
	Company       *entity.Reference `json:"company"`
	BusinessUnit  *entity.Reference `json:"business_unit"`
	Supplier      *entity.Reference `json:"supplier"`
	Brand         *entity.Reference `json:"brand"`
	Items         []entity.LineItem `json:"items"`
}

// UpdateInvoiceRequest is the body of PATCH /api/invoices/:id. Absent fields
// are left unchanged; an absent items list leaves the items untouched.
type UpdateInvoiceRequest struct {
	InvoiceNumber *string            `json:"invoice_number" binding:"omitempty,max=100"`
	InvoiceDate   *string            `json:"invoice_date" binding:"omitempty,max=8"`
	Currency      *string            `json:"currency" binding:"omitempty,max=3"`
	TotalAmount   NullableDecimal    `json:"total_amount"`
	Items         *[]entity.LineItem `json:"items"`
}

// NullableDecimal tells an absent JSON value from an explicit null
type NullableDecimal struct {
	Set   bool
	Value *decimal.Decimal
}

// UnmarshalJSON marks the value as present. null leaves Value nil.
func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	n.Value = &d
	return nil
}

// TrackerLookupResponse is the body of GET /api/tracker/invoice/:id
type TrackerLookupResponse struct {
	Tracker *entity.TrackerEntry `json:"tracker"`
}

// ListTrackerRequest represents query parameters for listing tracker entries
type ListTrackerRequest struct {
	CountryID      int64  `form:"country_id" binding:"required"`
	BusinessUnitID *int64 `form:"bu_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if h.health != nil {
		if err := h.health.Health(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, Response{
		Success: code == http.StatusOK,
		Data: HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid invoice body", "error", err)
		invalidBody(c, err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), &entity.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   req.InvoiceDate,
		Currency:      req.Currency,
		Subtotal:      req.Subtotal,
		VAT:           req.VAT,
		TotalAmount:   req.TotalAmount,
		Status:        entity.InvoiceStatusDraft,
		CountryID:     req.CountryID,
		Company:       req.Company,
		BusinessUnit:  req.BusinessUnit,
		Supplier:      req.Supplier,
		Brand:         req.Brand,
		Items:         req.Items,
	})
	if err != nil {
		h.fail(c, "Failed to create invoice", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: invoice})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get invoice", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// UpdateInvoice handles PATCH /api/invoices/:id
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid invoice update body", "id", id, "error", err)
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), id, service.InvoicePatch{
		InvoiceNumber:    req.InvoiceNumber,
		InvoiceDate:      req.InvoiceDate,
		Currency:         req.Currency,
		TotalAmount:      req.TotalAmount.Value,
		ClearTotalAmount: req.TotalAmount.Set && req.TotalAmount.Value == nil,
		Items:            req.Items,
	})
	if err != nil {
		h.fail(c, "Failed to update invoice", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

// GetInvoiceFile handles GET /api/invoices/:id/file
func (h *Handlers) GetInvoiceFile(c *gin.Context) {
	h.serveFile(c, entity.ArtifactInvoice)
}

// GetSupportingFile handles GET /api/invoices/:id/supporting-file
func (h *Handlers) GetSupportingFile(c *gin.Context) {
	h.serveFile(c, entity.ArtifactSupporting)
}

// UploadInvoiceFile handles PUT /api/invoices/:id/file
func (h *Handlers) UploadInvoiceFile(c *gin.Context) {
	h.receiveFile(c, entity.ArtifactInvoice)
}

// UploadSupportingFile handles PUT /api/invoices/:id/supporting-file
func (h *Handlers) UploadSupportingFile(c *gin.Context) {
	h.receiveFile(c, entity.ArtifactSupporting)
}

// DownloadERPWorkbook handles GET /api/invoices/:id/download
func (h *Handlers) DownloadERPWorkbook(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	artifact, err := h.invoiceService.Export(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to export invoice", err, "id", id)
		return
	}

	writeArtifact(c, artifact)
}

// GetHistory handles GET /api/invoices/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	events, err := h.invoiceService.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get invoice history", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: events})
}

// AddToTracker handles POST /api/tracker/add
func (h *Handlers) AddToTracker(c *gin.Context) {
	var req entity.TrackerIntake
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid tracker body", "error", err)
		invalidBody(c, err)
		return
	}

	entry, err := h.trackerService.Add(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "Failed to add invoice to tracker", err, "invoice_id", req.InvoiceID)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: entry})
}

// GetTrackerByInvoice handles GET /api/tracker/invoice/:id
func (h *Handlers) GetTrackerByInvoice(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	entry, err := h.trackerService.GetByInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get tracker entry", err, "invoice_id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: TrackerLookupResponse{Tracker: entry}})
}

// ListTracker handles GET /api/tracker
func (h *Handlers) ListTracker(c *gin.Context) {
	var req ListTrackerRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		badRequest(c, "country_id is required")
		return
	}

	entries, err := h.trackerService.List(c.Request.Context(), req.CountryID, req.BusinessUnitID)
	if err != nil {
		h.fail(c, "Failed to list tracker entries", err, "country_id", req.CountryID)
		return
	}
	if entries == nil {
		entries = []*entity.TrackerEntry{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

func (h *Handlers) serveFile(c *gin.Context, kind entity.ArtifactKind) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	artifact, err := h.invoiceService.OpenFile(c.Request.Context(), id, kind)
	if err != nil {
		h.fail(c, "Failed to open file", err, "id", id, "kind", kind)
		return
	}

	writeArtifact(c, artifact)
}

func (h *Handlers) receiveFile(c *gin.Context, kind entity.ArtifactKind) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return
	}

	f, err := header.Open()
	if err != nil {
		h.fail(c, "Failed to open upload", err, "id", id)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, "Failed to read upload", err, "id", id)
		return
	}

	invoice, err := h.invoiceService.AttachFile(c.Request.Context(), id, kind, header.Filename, content)
	if err != nil {
		h.fail(c, "Failed to attach file", err, "id", id, "kind", kind)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: invoice})
}

func (h *Handlers) invoiceID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Error("Invalid invoice ID", "id", idStr)
		badRequest(c, "invalid invoice ID")
		return 0, false
	}
	return id, true
}

// fail logs err and writes the envelope with the status of its error kind.
// Server errors do not leak their cause to the client.
func (h *Handlers) fail(c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	h.logger.Error(msg, append(keysAndValues, "error", err)...)

	code := StatusFor(err)
	text := err.Error()
	if code == http.StatusInternalServerError {
		text = "internal server error"
	}
	c.JSON(code, Response{Success: false, Error: text})
}

// StatusFor maps an application error onto an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrAlreadyTracked):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// invalidBody reports a body that failed to bind. Field rule failures are
// listed in data.
func invalidBody(c *gin.Context, err error) {
	resp := Response{Success: false, Error: "invalid request body: " + err.Error()}
	if fields := utils.ProcessValidationErrors(err); len(fields) > 0 {
		resp.Data = fields
	}
	c.JSON(http.StatusBadRequest, resp)
}

func writeArtifact(c *gin.Context, artifact *port.Artifact) {
	if artifact.FileName != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": artifact.FileName,
		}))
	}
	c.Data(http.StatusOK, artifact.MediaType, artifact.Data)
}
