package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

const notificationColumns = `
	id, kind, entity_type, entity_id, recipient_type, recipient_id, recipient, payload, status,
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

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO notifications (
			kind, entity_type, entity_id, recipient_type, recipient_id, recipient, payload, status,
			attempts, error_message, sent_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.Kind, n.EntityType, n.EntityID, n.RecipientType, n.RecipientID, n.Recipient, n.Payload, n.Status,
		n.Attempts, n.ErrorMessage, n.SentAt, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("kind", n.Kind),
			zap.Int64("entity_id", n.EntityID),
			zap.Error(err))
		return sqlite.MapError("create notification", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return sqlite.MapError("notification insert id", err)
	}
	n.ID = id
	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: notification %d", domainwf.ErrNotFound, id)
	}
	if err != nil {
		return nil, sqlite.MapError("get notification", err)
	}
	return n, nil
}

// ListRetryable returns failed and abandoned pending notifications with
// attempts left, oldest first
func (r *NotificationRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error) {
	staleBefore := time.Now().Add(-entity.NotificationStaleAfter)
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE (status = ? OR (status = ? AND updated_at < ?)) AND attempts < ?
		ORDER BY id ASC
		LIMIT ?`,
		entity.NotificationStatusFailed, entity.NotificationStatusPending, staleBefore,
		maxAttempts, limitOrAll(limit),
	)
	if err != nil {
		r.logger.Error("Failed to list retryable notifications", zap.Error(err))
		return nil, sqlite.MapError("list retryable notifications", err)
	}
	defer rows.Close()

	var result []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, sqlite.MapError("scan notification", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkSent marks notification as sent
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	now := time.Now()
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, attempts = attempts + 1, error_message = '', sent_at = ?, updated_at = ?
		WHERE id = ?`,
		entity.NotificationStatusSent, now, now, id,
	)
	if err != nil {
		r.logger.Error("Failed to mark notification as sent", zap.Int64("id", id), zap.Error(err))
		return sqlite.MapError("mark notification sent", err)
	}
	return nil
}

// SetRecipient stores the address resolved for a notification
func (r *NotificationRepository) SetRecipient(ctx context.Context, id int64, recipient string) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE notifications SET recipient = ?, updated_at = ? WHERE id = ?`,
		recipient, time.Now(), id,
	)
	if err != nil {
		return sqlite.MapError("set notification recipient", err)
	}
	return nil
}

// MarkFailed marks notification as failed with error message
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, attempts = attempts + 1, error_message = ?, updated_at = ?
		WHERE id = ?`,
		entity.NotificationStatusFailed, errMsg, time.Now(), id,
	)
	if err != nil {
		r.logger.Error("Failed to mark notification as failed", zap.Int64("id", id), zap.Error(err))
		return sqlite.MapError("mark notification failed", err)
	}
	return nil
}

func scanNotification(s scanner) (*entity.Notification, error) {
	var (
		n      entity.Notification
		sentAt sql.NullTime
	)
	err := s.Scan(
		&n.ID, &n.Kind, &n.EntityType, &n.EntityID, &n.RecipientType, &n.RecipientID, &n.Recipient, &n.Payload, &n.Status,
		&n.Attempts, &n.ErrorMessage, &sentAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.SentAt = nullTime(sentAt)
	return &n, nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
