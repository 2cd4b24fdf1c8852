package repository

import (
	"context"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AuditRepository implements port.AuditRepository. Rows are only ever inserted.
type AuditRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlite.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append records an audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO audit_entries (
			actor_id, actor_role, action, entity_type, entity_id,
			description, from_status, to_status, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ActorID, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID,
		entry.Description, entry.FromStatus, entry.ToStatus, entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("action", entry.Action),
			zap.Int64("entity_id", entry.EntityID),
			zap.Error(err))
		return sqlite.MapError("append audit entry", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return sqlite.MapError("audit insert id", err)
	}
	entry.ID = id
	return nil
}

// ListByEntity returns an entity's audit trail in insertion order
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, actor_id, actor_role, action, entity_type, entity_id,
			description, from_status, to_status, timestamp
		FROM audit_entries
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY id ASC`,
		entityType, entityID,
	)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.String("entity_type", entityType), zap.Int64("entity_id", entityID), zap.Error(err))
		return nil, sqlite.MapError("list audit entries", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.EntityType, &e.EntityID,
			&e.Description, &e.FromStatus, &e.ToStatus, &e.Timestamp,
		); err != nil {
			return nil, sqlite.MapError("scan audit entry", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

var _ port.AuditRepository = (*AuditRepository)(nil)
