package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AuthToken    string        `mapstructure:"auth_token"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig holds local file locations
type StorageConfig struct {
	UploadDir  string `mapstructure:"upload_dir"`
	PreviewDir string `mapstructure:"preview_dir"`
}

// RemoteConfig holds the invoice API client configuration used by intakectl
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExportConfig holds the constant columns of the ERP import workbook
type ExportConfig struct {
	CompanyCode     string `mapstructure:"company_code"`
	BrandCode       string `mapstructure:"brand_code"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.auth_token", "")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("database.path", "data/invoices.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.preview_dir", "previews")

	v.SetDefault("remote.base_url", "http://localhost:8080")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.timeout", 30*time.Second)

	v.SetDefault("export.company_code", "06002")
	v.SetDefault("export.brand_code", "54")
	v.SetDefault("export.default_currency", "QAR")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", "INTAKE_PORT")
	_ = v.BindEnv("server.auth_token", "INTAKE_AUTH_TOKEN")
	_ = v.BindEnv("server.cors_origins", "INTAKE_CORS_ORIGINS")
	_ = v.BindEnv("database.path", "INTAKE_DB_PATH")
	_ = v.BindEnv("storage.upload_dir", "INTAKE_UPLOAD_DIR")
	_ = v.BindEnv("storage.preview_dir", "INTAKE_PREVIEW_DIR")
	_ = v.BindEnv("remote.base_url", "INTAKE_API_URL")
	_ = v.BindEnv("remote.token", "INTAKE_API_TOKEN")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	if c.Storage.PreviewDir == "" {
		return fmt.Errorf("storage.preview_dir is required")
	}

	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an http(s) URL")
	}

	if len(strings.TrimSpace(c.Export.DefaultCurrency)) != 3 {
		return fmt.Errorf("export.default_currency must be a 3-letter code")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}

	return nil
}
