package container

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/dispatcher"
	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/application/service"
	"github.com/garyjia/invoice-intake/internal/infrastructure/persistence/repository"
	"github.com/garyjia/invoice-intake/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoice-intake/internal/infrastructure/spreadsheet"
	"github.com/garyjia/invoice-intake/internal/infrastructure/storage"
	httpapi "github.com/garyjia/invoice-intake/internal/interfaces/http"
	"github.com/garyjia/invoice-intake/migrations"
	"github.com/garyjia/invoice-intake/pkg/database"
	"github.com/garyjia/invoice-intake/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ServiceDeps holds the dependencies of the application services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Files      port.FileStorage
	Exporter   port.InvoiceExporter
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if !strings.HasPrefix(cfg.Path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Invoice: repository.NewInvoiceRepository(db.DB, logger),
		Tracker: repository.NewTrackerRepository(db.DB, logger),
		Event:   repository.NewEventRepository(db.DB, logger),
	}, nil
}

// ProvideStorage creates the file storage for uploaded invoice files.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil || cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return storage.NewLocalFileStorage(cfg.UploadDir, logger), nil
}

// ProvideExporter creates the ERP workbook exporter.
func ProvideExporter(cfg *ExportConfig, logger *zap.Logger) port.InvoiceExporter {
	return spreadsheet.NewERPExporter(spreadsheet.ExportConfig{
		CompanyCode:     cfg.CompanyCode,
		BrandCode:       cfg.BrandCode,
		DefaultCurrency: cfg.DefaultCurrency,
	}, logger)
}

// ProvideDispatcher creates the event dispatcher and subscribes the
// invoice history recorder.
func ProvideDispatcher(events port.EventRepository, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewZapAdapter(logger)),
	)
	if events != nil {
		dispatcher.RecordHistory(d, events)
	}
	return d, nil
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	logger := utils.NewZapAdapter(deps.Logger)

	return &ServiceBundle{
		Invoice: service.NewInvoiceService(
			deps.Repos.Invoice,
			deps.Repos.Event,
			deps.Files,
			deps.Exporter,
			deps.TxManager,
			deps.Dispatcher,
			logger,
		),
		Tracker: service.NewTrackerService(
			deps.Repos.Tracker,
			deps.Repos.Invoice,
			deps.TxManager,
			deps.Dispatcher,
			logger,
		),
	}, nil
}

// ProvideHTTPServer creates the API server.
func ProvideHTTPServer(cfg *ServerConfig, services *ServiceBundle, health httpapi.HealthChecker, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(
		httpapi.ServerConfig{
			Host:           cfg.Host,
			Port:           cfg.Port,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			AuthToken:      cfg.AuthToken,
			MaxUploadBytes: cfg.MaxUploadBytes,
			CORSOrigins:    cfg.CORSOrigins,
		},
		services.Invoice,
		services.Tracker,
		health,
		utils.NewZapAdapter(logger),
	)
}
