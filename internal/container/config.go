// Package container provides dependency injection and lifecycle management
// for the invoice intake API server.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Export   ExportConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// UploadDir is the base directory for invoice and supporting files
	UploadDir string
}

// ExportConfig holds the constant columns of the ERP workbook.
type ExportConfig struct {
	CompanyCode     string
	BrandCode       string
	DefaultCurrency string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AuthToken      string
	MaxUploadBytes int64
	CORSOrigins    []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/invoices.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
		},
		Export: ExportConfig{
			CompanyCode:     "06002",
			BrandCode:       "54",
			DefaultCurrency: "QAR",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxUploadBytes: 32 << 20,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port is required")
	}
	return nil
}
