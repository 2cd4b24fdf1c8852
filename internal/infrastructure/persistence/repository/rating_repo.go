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

// RatingRepository implements port.RatingRepository on SQLite
type RatingRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *sqlite.DB, logger *zap.Logger) port.RatingRepository {
	return &RatingRepository{
		db:     db,
		logger: logger,
	}
}

const ratingColumns = `
	id, supplier_id, project_id, hse_rating, communication_rating, competency_rating,
	on_time_rating, service_rating, overall_rating, rating_date, accepted_by_supplier,
	accepted_date, supplier_comment, created_by, version, created_at, updated_at`

// Create inserts a new rating
func (r *RatingRepository) Create(ctx context.Context, rating *entity.SupplierRating) error {
	now := time.Now()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	if rating.RatingDate.IsZero() {
		rating.RatingDate = rating.CreatedAt
	}
	rating.UpdatedAt = rating.CreatedAt
	rating.Version = 1

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO supplier_ratings (
			supplier_id, project_id, hse_rating, communication_rating, competency_rating,
			on_time_rating, service_rating, overall_rating, rating_date, accepted_by_supplier,
			accepted_date, supplier_comment, created_by, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rating.SupplierID, rating.ProjectID, rating.HSERating, rating.CommunicationRating, rating.CompetencyRating,
		rating.OnTimeRating, rating.ServiceRating, rating.OverallRating, rating.RatingDate, rating.AcceptedBySupplier,
		rating.AcceptedDate, rating.SupplierComment, rating.CreatedBy, rating.Version, rating.CreatedAt, rating.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create rating", zap.Int64("supplier_id", rating.SupplierID), zap.Error(err))
		return sqlite.MapError("create rating", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return sqlite.MapError("rating insert id", err)
	}
	rating.ID = id
	return nil
}

// GetByID retrieves a rating by ID
func (r *RatingRepository) GetByID(ctx context.Context, id int64) (*entity.SupplierRating, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT `+ratingColumns+` FROM supplier_ratings WHERE id = ?`, id)
	rating, err := scanRating(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rating %d", domainwf.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get rating", zap.Int64("id", id), zap.Error(err))
		return nil, sqlite.MapError("get rating", err)
	}
	return rating, nil
}

// Update writes the acceptance fields if the stored version still matches
func (r *RatingRepository) Update(ctx context.Context, rating *entity.SupplierRating, expectedVersion int64) error {
	if rating.UpdatedAt.IsZero() {
		rating.UpdatedAt = time.Now()
	}

	exec := r.db.Executor(ctx)
	result, err := exec.ExecContext(ctx, `
		UPDATE supplier_ratings SET
			accepted_by_supplier = ?, accepted_date = ?, supplier_comment = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		rating.AcceptedBySupplier, rating.AcceptedDate, rating.SupplierComment,
		rating.UpdatedAt, rating.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update rating", zap.Int64("id", rating.ID), zap.Error(err))
		return sqlite.MapError("update rating", err)
	}

	if err := checkVersioned(ctx, exec, result, "supplier_ratings", rating.ID, expectedVersion); err != nil {
		return err
	}
	rating.Version = expectedVersion + 1
	return nil
}

// ListBySupplier returns a supplier's ratings, newest first
func (r *RatingRepository) ListBySupplier(ctx context.Context, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT `+ratingColumns+` FROM supplier_ratings
		WHERE supplier_id = ?
		ORDER BY rating_date DESC, id DESC
		LIMIT ? OFFSET ?`,
		supplierID, limitOrAll(limit), offset,
	)
	if err != nil {
		r.logger.Error("Failed to list ratings", zap.Int64("supplier_id", supplierID), zap.Error(err))
		return nil, sqlite.MapError("list ratings", err)
	}
	defer rows.Close()

	var ratings []*entity.SupplierRating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, sqlite.MapError("scan rating", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func scanRating(s scanner) (*entity.SupplierRating, error) {
	var (
		rt           entity.SupplierRating
		acceptedDate sql.NullTime
	)
	err := s.Scan(
		&rt.ID, &rt.SupplierID, &rt.ProjectID, &rt.HSERating, &rt.CommunicationRating, &rt.CompetencyRating,
		&rt.OnTimeRating, &rt.ServiceRating, &rt.OverallRating, &rt.RatingDate, &rt.AcceptedBySupplier,
		&acceptedDate, &rt.SupplierComment, &rt.CreatedBy, &rt.Version, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rt.AcceptedDate = nullTime(acceptedDate)
	return &rt, nil
}

var _ port.RatingRepository = (*RatingRepository)(nil)
