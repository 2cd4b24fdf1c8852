package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DirectoryRepository resolves supplier and user contacts
type DirectoryRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(store *Store, logger *zap.Logger) *DirectoryRepository {
	return &DirectoryRepository{store: store, logger: logger}
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
	err := r.store.querier(ctx).QueryRow(ctx,
		`SELECT id, name, email FROM `+table+` WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %d", domainwf.ErrNotFound, table, id)
	}
	if err != nil {
		r.logger.Error("Failed to resolve contact", zap.String("table", table), zap.Int64("id", id), zap.Error(err))
		return nil, mapError("resolve contact", err)
	}
	return &c, nil
}

func (r *DirectoryRepository) upsert(ctx context.Context, table string, c *entity.Contact) error {
	_, err := r.store.querier(ctx).Exec(ctx, `
		INSERT INTO `+table+` (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		c.ID, c.Name, c.Email)
	if err != nil {
		return mapError("upsert contact", err)
	}
	return nil
}

var _ port.DirectoryRepository = (*DirectoryRepository)(nil)
