package config

import (
	"github.com/garyjia/supplier-workflow/internal/container"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Notifier: container.NotifierConfig{
			Driver: c.Notifier.Driver,
			Lark: container.LarkConfig{
				AppID:     c.Lark.AppID,
				AppSecret: c.Lark.AppSecret,
				BaseURL:   c.Lark.BaseURL,
			},
		},
		Storage: container.StorageConfig{
			ExportDir: c.Export.Dir,
		},
		Worker: container.WorkerConfig{
			RetryEnabled:      c.Worker.RetryEnabled,
			RetryPollInterval: c.Worker.RetryPollInterval,
			RetryBatchSize:    c.Worker.RetryBatchSize,
			RetryMaxAttempts:  c.Worker.RetryMaxAttempts,
		},
		Directory: container.DirectoryConfig{
			Suppliers: toContacts(c.Directory.Suppliers),
			Users:     toContacts(c.Directory.Users),
		},
	}
}

func toContacts(in []ContactConfig) []entity.Contact {
	out := make([]entity.Contact, 0, len(in))
	for _, c := range in {
		out = append(out, entity.Contact{ID: c.ID, Name: c.Name, Email: c.Email})
	}
	return out
}
