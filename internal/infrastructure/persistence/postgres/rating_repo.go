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

// RatingRepository implements port.RatingRepository on PostgreSQL
type RatingRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(store *Store, logger *zap.Logger) *RatingRepository {
	return &RatingRepository{store: store, logger: logger}
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

	err := r.store.querier(ctx).QueryRow(ctx, `
		INSERT INTO supplier_ratings (
			supplier_id, project_id, hse_rating, communication_rating, competency_rating,
			on_time_rating, service_rating, overall_rating, rating_date, accepted_by_supplier,
			accepted_date, supplier_comment, created_by, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		rating.SupplierID, rating.ProjectID, rating.HSERating, rating.CommunicationRating, rating.CompetencyRating,
		rating.OnTimeRating, rating.ServiceRating, rating.OverallRating, rating.RatingDate, rating.AcceptedBySupplier,
		rating.AcceptedDate, rating.SupplierComment, rating.CreatedBy, rating.Version, rating.CreatedAt, rating.UpdatedAt,
	).Scan(&rating.ID)
	if err != nil {
		r.logger.Error("Failed to create rating", zap.Int64("supplier_id", rating.SupplierID), zap.Error(err))
		return mapError("create rating", err)
	}
	return nil
}

// GetByID retrieves a rating by ID
func (r *RatingRepository) GetByID(ctx context.Context, id int64) (*entity.SupplierRating, error) {
	row := r.store.querier(ctx).QueryRow(ctx, `SELECT `+ratingColumns+` FROM supplier_ratings WHERE id = $1`, id)
	rating, err := scanRating(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: rating %d", domainwf.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get rating", zap.Int64("id", id), zap.Error(err))
		return nil, mapError("get rating", err)
	}
	return rating, nil
}

// Update writes the acceptance fields if the stored version still matches
func (r *RatingRepository) Update(ctx context.Context, rating *entity.SupplierRating, expectedVersion int64) error {
	if rating.UpdatedAt.IsZero() {
		rating.UpdatedAt = time.Now()
	}

	q := r.store.querier(ctx)
	tag, err := q.Exec(ctx, `
		UPDATE supplier_ratings SET
			accepted_by_supplier = $1, accepted_date = $2, supplier_comment = $3,
			version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`,
		rating.AcceptedBySupplier, rating.AcceptedDate, rating.SupplierComment,
		rating.UpdatedAt, rating.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update rating", zap.Int64("id", rating.ID), zap.Error(err))
		return mapError("update rating", err)
	}
	if err := checkVersioned(ctx, q, tag.RowsAffected(), "supplier_ratings", rating.ID, expectedVersion); err != nil {
		return err
	}
	rating.Version = expectedVersion + 1
	return nil
}

// ListBySupplier returns a supplier's ratings, newest first
func (r *RatingRepository) ListBySupplier(ctx context.Context, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM supplier_ratings
		WHERE supplier_id = $1
		ORDER BY rating_date DESC, id DESC
		OFFSET $2`
	args := []any{supplierID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.store.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list ratings", zap.Int64("supplier_id", supplierID), zap.Error(err))
		return nil, mapError("list ratings", err)
	}
	defer rows.Close()

	var ratings []*entity.SupplierRating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, mapError("scan rating", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list ratings", err)
	}
	return ratings, nil
}

func scanRating(row pgx.Row) (*entity.SupplierRating, error) {
	var rt entity.SupplierRating
	err := row.Scan(
		&rt.ID, &rt.SupplierID, &rt.ProjectID, &rt.HSERating, &rt.CommunicationRating, &rt.CompetencyRating,
		&rt.OnTimeRating, &rt.ServiceRating, &rt.OverallRating, &rt.RatingDate, &rt.AcceptedBySupplier,
		&rt.AcceptedDate, &rt.SupplierComment, &rt.CreatedBy, &rt.Version, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

var _ port.RatingRepository = (*RatingRepository)(nil)
