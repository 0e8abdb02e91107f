package config

import (
	"github.com/garyjia/invoice-intake/internal/container"
	"github.com/garyjia/invoice-intake/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Storage: container.StorageConfig{
			UploadDir: c.Storage.UploadDir,
		},
		Export: container.ExportConfig{
			CompanyCode:     c.Export.CompanyCode,
			BrandCode:       c.Export.BrandCode,
			DefaultCurrency: c.Export.DefaultCurrency,
		},
		Server: container.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			AuthToken:      c.Server.AuthToken,
			MaxUploadBytes: c.Server.MaxUploadMB << 20,
			CORSOrigins:    c.Server.CORSOrigins,
		},
	}
}

// LoggerSettings returns the logger factory settings
func (c *Config) LoggerSettings() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
