package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/dispatcher"
	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/application/service"
	"github.com/garyjia/invoice-intake/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/invoice-intake/internal/interfaces/http"
	"github.com/garyjia/invoice-intake/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle
	fileStorage  port.FileStorage
	exporter     port.InvoiceExporter

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Interfaces
	server *httpapi.Server

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Invoice port.InvoiceRepository
	Tracker port.TrackerRepository
	Event   port.EventRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Invoice service.InvoiceService
	Tracker service.TrackerService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database, migrations and repositories
// 2. File storage and exporter
// 3. Event dispatcher with the history recorder
// 4. Application services
// 5. HTTP server (not listening until Server().Start is called)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initStorage(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized")

	disp, err := ProvideDispatcher(c.repositories.Event, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp
	c.logger.Info("Dispatcher initialized")

	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.txManager,
		Files:      c.fileStorage,
		Exporter:   c.exporter,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		_ = c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	c.server = ProvideHTTPServer(&c.config.Server, c.services, c, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	// Drains async handlers so history rows land before the database closes
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health reports an error when a component is unusable. It backs the
// /health endpoint.
func (c *Container) Health(ctx context.Context) error {
	status := c.HealthStatus(ctx)
	if status.Overall {
		return nil
	}
	for name, comp := range status.Components {
		if !comp.Healthy {
			return fmt.Errorf("%s: %s", name, comp.Message)
		}
	}
	return fmt.Errorf("unhealthy")
}

// HealthStatus returns health status of all components.
func (c *Container) HealthStatus(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.dispatcher != nil && !c.closed.Load() {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not running"}
		status.Overall = false
	}

	if c.services != nil {
		status.Components["services"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["services"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = dbBundle.DB
	c.txManager = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initStorage() error {
	files, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.fileStorage = files
	c.exporter = ProvideExporter(&c.config.Export, c.logger)
	return nil
}

func (c *Container) closeDatabase() {
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.txManager
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Server returns the HTTP server.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
