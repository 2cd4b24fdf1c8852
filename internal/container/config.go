// Package container provides dependency injection and lifecycle management
// for the supplier workflow service.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
)

// Config holds all configuration for the Container.
type Config struct {
	Database  DatabaseConfig
	Notifier  NotifierConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Directory DirectoryConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string

	// Path to SQLite database file, or ":memory:"
	Path string

	// DSN is the PostgreSQL connection string
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NotifierConfig selects and configures the notification transport.
type NotifierConfig struct {
	// Driver is "log" or "lark"
	Driver string
	Lark   LarkConfig
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// ExportDir archives generated workbooks; empty disables archiving
	ExportDir string
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	RetryEnabled      bool
	RetryPollInterval time.Duration
	RetryBatchSize    int
	RetryMaxAttempts  int
}

// DirectoryConfig lists contacts written to the directory at startup.
type DirectoryConfig struct {
	Suppliers []entity.Contact
	Users     []entity.Contact
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            "data/workflow.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Notifier: NotifierConfig{
			Driver: "log",
		},
		Storage: StorageConfig{
			ExportDir: "data/exports",
		},
		Worker: WorkerConfig{
			RetryEnabled:      true,
			RetryPollInterval: time.Minute,
			RetryBatchSize:    20,
			RetryMaxAttempts:  5,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Notifier.Driver {
	case "log":
	case "lark":
		if c.Notifier.Lark.AppID == "" || c.Notifier.Lark.AppSecret == "" {
			return fmt.Errorf("lark app_id and app_secret are required")
		}
	default:
		return fmt.Errorf("unsupported notifier driver %q", c.Notifier.Driver)
	}

	return nil
}
