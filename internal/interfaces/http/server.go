// Package http exposes the invoice record store and the tracker over HTTP.
// It is a thin adapter translating requests to application service calls.
package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoice-intake/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthChecker reports whether the server's dependencies are usable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AuthToken, when set, is required as a bearer token on /api routes
	AuthToken string
	// MaxUploadBytes bounds the size of an uploaded invoice or supporting file
	MaxUploadBytes int64
	// CORSOrigins lists browser origins allowed to call the API. "*" allows any.
	CORSOrigins []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxUploadBytes: 32 << 20,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config         ServerConfig
	httpServer     *http.Server
	router         *gin.Engine
	invoiceService service.InvoiceService
	trackerService service.TrackerService
	health         HealthChecker
	logger         Logger
}

// NewServer creates a new HTTP server with the given services. health may be nil.
func NewServer(
	config ServerConfig,
	invoiceService service.InvoiceService,
	trackerService service.TrackerService,
	health HealthChecker,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if config.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = config.MaxUploadBytes
	}

	server := &Server{
		config:         config,
		router:         router,
		invoiceService: invoiceService,
		trackerService: trackerService,
		health:         health,
		logger:         logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(s.corsMiddleware())
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(s.config.CORSOrigins) == 1 && s.config.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.CORSOrigins
	}
	corsConfig.AddAllowMethods(http.MethodPatch)
	corsConfig.AddAllowHeaders("Authorization")
	// previews read the file name of downloads
	corsConfig.AddExposeHeaders("Content-Disposition", "Content-Length")
	return cors.New(corsConfig)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// authMiddleware rejects requests without the configured bearer token
func (s *Server) authMiddleware() gin.HandlerFunc {
	expected := []byte(s.config.AuthToken)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid bearer token",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.invoiceService, s.trackerService, s.health, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api", s.authMiddleware())
	{
		api.POST("/invoices", handlers.CreateInvoice)
		api.GET("/invoices/:id", handlers.GetInvoice)
		api.PATCH("/invoices/:id", handlers.UpdateInvoice)
		api.GET("/invoices/:id/file", handlers.GetInvoiceFile)
		api.PUT("/invoices/:id/file", handlers.UploadInvoiceFile)
		api.GET("/invoices/:id/supporting-file", handlers.GetSupportingFile)
		api.PUT("/invoices/:id/supporting-file", handlers.UploadSupportingFile)
		api.GET("/invoices/:id/download", handlers.DownloadERPWorkbook)
		api.GET("/invoices/:id/history", handlers.GetHistory)

		api.GET("/tracker", handlers.ListTracker)
		api.POST("/tracker/add", handlers.AddToTracker)
		api.GET("/tracker/invoice/:id", handlers.GetTrackerByInvoice)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.httpServer = srv

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.httpServer = nil
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
