package port

import (
	"context"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
)

// ClaimFilter narrows claim listings. Zero values mean "any".
type ClaimFilter struct {
	Status     string
	SupplierID int64
	Limit      int
	Offset     int
}

// ClaimRepository defines persistence operations for Claim
type ClaimRepository interface {
	// Create inserts the claim, assigning ID, ClaimNumber and Version
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	// Update writes the claim only if the stored version still equals
	// expectedVersion; on success claim.Version is bumped
	Update(ctx context.Context, claim *entity.Claim, expectedVersion int64) error
	List(ctx context.Context, filter ClaimFilter) ([]*entity.Claim, error)
}

// RatingRepository defines persistence operations for SupplierRating
type RatingRepository interface {
	Create(ctx context.Context, rating *entity.SupplierRating) error
	GetByID(ctx context.Context, id int64) (*entity.SupplierRating, error)
	Update(ctx context.Context, rating *entity.SupplierRating, expectedVersion int64) error
	ListBySupplier(ctx context.Context, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error)
}

// AuditRepository is the append-only audit sink
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id int64) (*entity.Notification, error)
	// ListRetryable returns FAILED notifications, and PENDING ones untouched for
	// longer than entity.NotificationStaleAfter, with fewer than maxAttempts attempts
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error)
	SetRecipient(ctx context.Context, id int64, recipient string) error
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

// DirectoryRepository resolves contact addresses for suppliers and users
type DirectoryRepository interface {
	GetSupplierContact(ctx context.Context, supplierID int64) (*entity.Contact, error)
	GetUserContact(ctx context.Context, userID int64) (*entity.Contact, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
