package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/supplier-workflow/internal/application/dispatcher"
	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/application/service"
	"github.com/garyjia/supplier-workflow/internal/application/workflow"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/external/console"
	infraLark "github.com/garyjia/supplier-workflow/internal/infrastructure/external/lark"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/postgres"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/report"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/storage"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/worker"
	"github.com/garyjia/supplier-workflow/migrations"
	"github.com/garyjia/supplier-workflow/pkg/database"
	"go.uber.org/zap"
)

// DirectorySeeder writes contacts into the directory
type DirectorySeeder interface {
	UpsertSupplier(ctx context.Context, c *entity.Contact) error
	UpsertUser(ctx context.Context, c *entity.Contact) error
}

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	TxManager    port.TransactionManager
	Repositories *RepositoryBundle
	Seeder       DirectorySeeder
	Ping         func(ctx context.Context) error
	Close        func() error
}

// StorageBundle holds export rendering and archiving.
type StorageBundle struct {
	Exporter port.ReportExporter
	// Archive is nil when archiving is disabled
	Archive port.FileStorage
}

// ProvideDatabase opens the configured store, applies pending migrations and
// builds the repositories on top of it.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case "sqlite":
		return provideSQLite(cfg, logger)
	case "postgres":
		return providePostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func provideSQLite(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(migrations.SQLite()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	txManager := sqlite.NewDB(db.DB, logger)
	directory := repository.NewDirectoryRepository(txManager, logger)

	return &DatabaseBundle{
		TxManager: txManager,
		Repositories: &RepositoryBundle{
			Claim:        repository.NewClaimRepository(txManager, logger),
			Rating:       repository.NewRatingRepository(txManager, logger),
			Audit:        repository.NewAuditRepository(txManager, logger),
			Notification: repository.NewNotificationRepository(txManager, logger),
			Directory:    directory,
		},
		Seeder: directory,
		Ping:   db.PingContext,
		Close:  db.Close,
	}, nil
}

func providePostgres(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	store, err := postgres.Open(ctx, postgres.Config{
		DSN:             cfg.DSN,
		MaxConns:        int32(cfg.MaxOpenConns),
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := store.RunMigrations(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	directory := postgres.NewDirectoryRepository(store, logger)

	return &DatabaseBundle{
		TxManager: store,
		Repositories: &RepositoryBundle{
			Claim:        postgres.NewClaimRepository(store, logger),
			Rating:       postgres.NewRatingRepository(store, logger),
			Audit:        postgres.NewAuditRepository(store, logger),
			Notification: postgres.NewNotificationRepository(store, logger),
			Directory:    directory,
		},
		Seeder: directory,
		Ping:   store.Ping,
		Close:  store.Close,
	}, nil
}

// SeedDirectory upserts the configured contacts
func SeedDirectory(ctx context.Context, seeder DirectorySeeder, cfg *DirectoryConfig, logger *zap.Logger) error {
	if cfg == nil {
		return nil
	}
	for i := range cfg.Suppliers {
		if err := seeder.UpsertSupplier(ctx, &cfg.Suppliers[i]); err != nil {
			return fmt.Errorf("seed supplier %d: %w", cfg.Suppliers[i].ID, err)
		}
	}
	for i := range cfg.Users {
		if err := seeder.UpsertUser(ctx, &cfg.Users[i]); err != nil {
			return fmt.Errorf("seed user %d: %w", cfg.Users[i].ID, err)
		}
	}
	if n := len(cfg.Suppliers) + len(cfg.Users); n > 0 {
		logger.Info("Directory seeded",
			zap.Int("suppliers", len(cfg.Suppliers)),
			zap.Int("users", len(cfg.Users)))
	}
	return nil
}

// ProvideNotifier creates the configured notification transport.
func ProvideNotifier(cfg *NotifierConfig, logger *zap.Logger) (port.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notifier config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case "log":
		return console.NewNotifier(logger), nil
	case "lark":
		sdkClient := infraLark.NewSDKClient(infraLark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			BaseURL:   cfg.Lark.BaseURL,
		}, logger)
		return infraLark.NewNotifier(infraLark.NewMessenger(sdkClient, logger), logger), nil
	default:
		return nil, fmt.Errorf("unsupported notifier driver %q", cfg.Driver)
	}
}

// ProvideStorage creates the workbook exporter and the export archive.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &StorageBundle{Exporter: report.NewExcelExporter(logger)}
	if cfg.ExportDir != "" {
		bundle.Archive = storage.NewLocalFileStorage(cfg.ExportDir, logger)
	}
	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Notifier   port.Notifier
	Storage    *StorageBundle
	Logger     *zap.Logger
}

// ProvideServices creates all application services and the workflow
// coordinator, and subscribes notification delivery and the claim activity
// log on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	var missing []error
	if deps.Repos == nil {
		missing = append(missing, errors.New("repositories are required"))
	}
	if deps.TxManager == nil {
		missing = append(missing, errors.New("transaction manager is required"))
	}
	if deps.Dispatcher == nil {
		missing = append(missing, errors.New("dispatcher is required"))
	}
	if deps.Notifier == nil {
		missing = append(missing, errors.New("notifier is required"))
	}
	if deps.Storage == nil {
		missing = append(missing, errors.New("storage is required"))
	}
	if deps.Logger == nil {
		missing = append(missing, errors.New("logger is required"))
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	notifications := service.NewNotificationService(
		deps.Repos.Notification,
		deps.Repos.Directory,
		deps.Notifier,
		serviceLogger,
	)
	notifications.Register(deps.Dispatcher)
	service.NewActivityLog(serviceLogger).Register(deps.Dispatcher)

	return &ServiceBundle{
		Claims: service.NewClaimService(
			deps.Repos.Claim,
			deps.Repos.Audit,
			deps.TxManager,
			deps.Dispatcher,
			serviceLogger,
		),
		Ratings: service.NewRatingService(
			deps.Repos.Rating,
			deps.Repos.Audit,
			deps.TxManager,
			deps.Dispatcher,
			serviceLogger,
		),
		Audit: service.NewAuditService(
			deps.Repos.Audit,
			deps.Repos.Claim,
			deps.Storage.Exporter,
			deps.Storage.Archive,
			serviceLogger,
		),
		Notification: notifications,
		Coordinator: workflow.NewCoordinator(
			deps.Repos.Claim,
			deps.Repos.Rating,
			deps.Repos.Audit,
			deps.TxManager,
			workflow.WithDispatcher(deps.Dispatcher),
			workflow.WithLogger(serviceLogger),
		),
	}, nil
}

// ProvideWorkers creates and registers all background workers.
// Returns *worker.WorkerManager with all workers registered but not started.
func ProvideWorkers(cfg *WorkerConfig, services *ServiceBundle, logger *zap.Logger) (*worker.WorkerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if services == nil || services.Notification == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(logger)

	if cfg.RetryEnabled {
		manager.Register(worker.NewNotificationRetryWorker(worker.RetryWorkerConfig{
			PollInterval: cfg.RetryPollInterval,
			BatchSize:    cfg.RetryBatchSize,
			MaxAttempts:  cfg.RetryMaxAttempts,
		}, services.Notification, logger))
	}

	return manager, nil
}
