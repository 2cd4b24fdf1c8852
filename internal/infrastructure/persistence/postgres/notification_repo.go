package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository on PostgreSQL
type NotificationRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(store *Store, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{store: store, logger: logger}
}

const notificationColumns = `
	id, kind, entity_type, entity_id, recipient_type, recipient_id, recipient, payload::text, status,
	attempts, error_message, sent_at, created_at, updated_at`

// Create creates a new notification record
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}
	if n.Payload == "" {
		n.Payload = "{}"
	}

	err := r.store.querier(ctx).QueryRow(ctx, `
		INSERT INTO notifications (
			kind, entity_type, entity_id, recipient_type, recipient_id, recipient, payload, status,
			attempts, error_message, sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, CAST($7::text AS jsonb), $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		n.Kind, n.EntityType, n.EntityID, n.RecipientType, n.RecipientID, n.Recipient, n.Payload, n.Status,
		n.Attempts, n.ErrorMessage, n.SentAt, n.CreatedAt, n.UpdatedAt,
	).Scan(&n.ID)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("kind", n.Kind), zap.Error(err))
		return mapError("create notification", err)
	}
	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	row := r.store.querier(ctx).QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: notification %d", domainwf.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapError("get notification", err)
	}
	return n, nil
}

// ListRetryable returns failed and abandoned pending notifications with
// attempts left, oldest first
func (r *NotificationRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE (status = $1 OR (status = $2 AND updated_at < $3)) AND attempts < $4
		ORDER BY id ASC`
	args := []any{
		entity.NotificationStatusFailed,
		entity.NotificationStatusPending,
		time.Now().Add(-entity.NotificationStaleAfter),
		maxAttempts,
	}
	if limit > 0 {
		query += ` LIMIT $5`
		args = append(args, limit)
	}

	rows, err := r.store.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list retryable notifications", err)
	}
	defer rows.Close()

	var result []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, mapError("scan notification", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list retryable notifications", err)
	}
	return result, nil
}

// MarkSent marks notification as sent
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	now := time.Now()
	_, err := r.store.querier(ctx).Exec(ctx, `
		UPDATE notifications
		SET status = $1, attempts = attempts + 1, error_message = '', sent_at = $2, updated_at = $2
		WHERE id = $3`, entity.NotificationStatusSent, now, id)
	if err != nil {
		return mapError("mark notification sent", err)
	}
	return nil
}

// SetRecipient stores the address resolved for a notification
func (r *NotificationRepository) SetRecipient(ctx context.Context, id int64, recipient string) error {
	_, err := r.store.querier(ctx).Exec(ctx, `
		UPDATE notifications SET recipient = $1, updated_at = $2 WHERE id = $3`,
		recipient, time.Now(), id)
	if err != nil {
		return mapError("set notification recipient", err)
	}
	return nil
}

// MarkFailed marks notification as failed with error message
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := r.store.querier(ctx).Exec(ctx, `
		UPDATE notifications
		SET status = $1, attempts = attempts + 1, error_message = $2, updated_at = $3
		WHERE id = $4`, entity.NotificationStatusFailed, errMsg, time.Now(), id)
	if err != nil {
		return mapError("mark notification failed", err)
	}
	return nil
}

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	var n entity.Notification
	err := row.Scan(
		&n.ID, &n.Kind, &n.EntityType, &n.EntityID, &n.RecipientType, &n.RecipientID, &n.Recipient, &n.Payload, &n.Status,
		&n.Attempts, &n.ErrorMessage, &n.SentAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
