package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// DirectoryRepository resolves supplier and user contacts from local tables
type DirectoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *sqlite.DB, logger *zap.Logger) *DirectoryRepository {
	return &DirectoryRepository{
		db:     db,
		logger: logger,
	}
}

// GetSupplierContact returns the claims contact of a supplier company
func (r *DirectoryRepository) GetSupplierContact(ctx context.Context, supplierID int64) (*entity.Contact, error) {
	return r.get(ctx, "suppliers", supplierID)
}

// GetUserContact returns an internal user's contact
func (r *DirectoryRepository) GetUserContact(ctx context.Context, userID int64) (*entity.Contact, error) {
	return r.get(ctx, "users", userID)
}

// UpsertSupplier creates or replaces a supplier contact
func (r *DirectoryRepository) UpsertSupplier(ctx context.Context, c *entity.Contact) error {
	return r.upsert(ctx, "suppliers", c)
}

// UpsertUser creates or replaces a user contact
func (r *DirectoryRepository) UpsertUser(ctx context.Context, c *entity.Contact) error {
	return r.upsert(ctx, "users", c)
}

func (r *DirectoryRepository) get(ctx context.Context, table string, id int64) (*entity.Contact, error) {
	var c entity.Contact
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT id, name, email FROM `+table+` WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %d", domainwf.ErrNotFound, table, id)
	}
	if err != nil {
		r.logger.Error("Failed to resolve contact", zap.String("table", table), zap.Int64("id", id), zap.Error(err))
		return nil, sqlite.MapError("resolve contact", err)
	}
	return &c, nil
}

func (r *DirectoryRepository) upsert(ctx context.Context, table string, c *entity.Contact) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO `+table+` (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		c.ID, c.Name, c.Email,
	)
	if err != nil {
		return sqlite.MapError("upsert contact", err)
	}
	return nil
}

var _ port.DirectoryRepository = (*DirectoryRepository)(nil)
