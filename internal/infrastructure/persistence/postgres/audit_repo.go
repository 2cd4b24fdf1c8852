package postgres

import (
	"context"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

// AuditRepository implements port.AuditRepository on PostgreSQL
type AuditRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(store *Store, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{store: store, logger: logger}
}

// Append records an audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	err := r.store.querier(ctx).QueryRow(ctx, `
		INSERT INTO audit_entries (
			actor_id, actor_role, action, entity_type, entity_id,
			description, from_status, to_status, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		entry.ActorID, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID,
		entry.Description, entry.FromStatus, entry.ToStatus, entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		r.logger.Error("Failed to append audit entry", zap.String("action", entry.Action), zap.Error(err))
		return mapError("append audit entry", err)
	}
	return nil
}

// ListByEntity returns an entity's audit trail in insertion order
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	rows, err := r.store.querier(ctx).Query(ctx, `
		SELECT id, actor_id, actor_role, action, entity_type, entity_id,
			description, from_status, to_status, timestamp
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY id ASC`, entityType, entityID)
	if err != nil {
		return nil, mapError("list audit entries", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.EntityType, &e.EntityID,
			&e.Description, &e.FromStatus, &e.ToStatus, &e.Timestamp,
		); err != nil {
			return nil, mapError("scan audit entry", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list audit entries", err)
	}
	return entries, nil
}

var _ port.AuditRepository = (*AuditRepository)(nil)
