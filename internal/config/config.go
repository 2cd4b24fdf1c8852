package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/supplier-workflow/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Lark      LarkConfig      `mapstructure:"lark"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Export    ExportConfig    `mapstructure:"export"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// DatabaseConfig holds database configuration. Driver selects between the
// embedded SQLite file and a PostgreSQL server.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// NotifierConfig selects the notification transport
type NotifierConfig struct {
	Driver string `mapstructure:"driver"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	RetryEnabled      bool          `mapstructure:"retry_enabled"`
	RetryPollInterval time.Duration `mapstructure:"retry_poll_interval"`
	RetryBatchSize    int           `mapstructure:"retry_batch_size"`
	RetryMaxAttempts  int           `mapstructure:"retry_max_attempts"`
}

// ExportConfig holds where generated workbooks are archived
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// DirectoryConfig seeds supplier and user contacts at startup
type DirectoryConfig struct {
	Suppliers []ContactConfig `mapstructure:"suppliers"`
	Users     []ContactConfig `mapstructure:"users"`
}

// ContactConfig is one directory entry
type ContactConfig struct {
	ID    int64  `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	NotifierLog  = "log"
	NotifierLark = "lark"

	envPrefix = "WORKFLOW"
)

// Load loads configuration from an optional YAML file, a .env file next to
// the working directory, and environment variables, in increasing priority
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
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

// loadDotEnv exports variables from path; a missing file is not an error.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.token_ttl", 12*time.Hour)

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/workflow.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("notifier.driver", NotifierLog)

	// Worker defaults
	v.SetDefault("worker.retry_enabled", true)
	v.SetDefault("worker.retry_poll_interval", time.Minute)
	v.SetDefault("worker.retry_batch_size", 20)
	v.SetDefault("worker.retry_max_attempts", 5)

	v.SetDefault("export.dir", "data/exports")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the unprefixed names operators usually set for secrets
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"auth.secret":     {"WORKFLOW_AUTH_SECRET", "AUTH_SECRET"},
		"database.dsn":    {"WORKFLOW_DATABASE_DSN", "DATABASE_URL"},
		"lark.app_id":     {"WORKFLOW_LARK_APP_ID", "LARK_APP_ID"},
		"lark.app_secret": {"WORKFLOW_LARK_APP_SECRET", "LARK_APP_SECRET"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	switch c.Notifier.Driver {
	case NotifierLog:
	case NotifierLark:
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required for the lark notifier")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required for the lark notifier")
		}
	default:
		return fmt.Errorf("unknown notifier.driver %q", c.Notifier.Driver)
	}

	if c.Worker.RetryEnabled && c.Worker.RetryMaxAttempts <= 0 {
		return fmt.Errorf("worker.retry_max_attempts must be positive")
	}

	for _, s := range c.Directory.Suppliers {
		if s.ID <= 0 || s.Email == "" {
			return fmt.Errorf("directory supplier entries need id and email")
		}
		if err := utils.ValidateEmail(s.Email); err != nil {
			return fmt.Errorf("directory supplier %d: %w", s.ID, err)
		}
	}
	for _, u := range c.Directory.Users {
		if u.ID <= 0 || u.Email == "" {
			return fmt.Errorf("directory user entries need id and email")
		}
		if err := utils.ValidateEmail(u.Email); err != nil {
			return fmt.Errorf("directory user %d: %w", u.ID, err)
		}
	}

	return nil
}
