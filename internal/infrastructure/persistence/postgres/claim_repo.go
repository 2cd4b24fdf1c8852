package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxNumberAttempts = 3

// ClaimRepository implements port.ClaimRepository on PostgreSQL
type ClaimRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(store *Store, logger *zap.Logger) *ClaimRepository {
	return &ClaimRepository{store: store, logger: logger}
}

const claimColumns = `
	id, claim_number, supplier_id, project_id, agreement_id, area, damage_amount::text,
	claim_description, damage_description, defects_description, demand_type, demand_detail,
	status, date_entered, date_approved, date_legal_approved, date_sent_to_supplier, date_feedback,
	accepted_by_supplier, supplier_response, rejection_reason, created_by, version,
	created_at, updated_at`

// Create inserts the claim, drawing its number from the per-year sequence.
// Each insert runs under a savepoint so a number collision does not abort the transaction.
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	now := time.Now()
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = now
	}
	if claim.DateEntered.IsZero() {
		claim.DateEntered = claim.CreatedAt
	}
	claim.UpdatedAt = claim.CreatedAt
	claim.Version = 1

	return r.store.WithTransaction(ctx, func(txCtx context.Context) error {
		tx := extractTx(txCtx)
		year := claim.DateEntered.Year()

		for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
			var seq int64
			err := tx.QueryRow(txCtx, `
				INSERT INTO claim_sequences (year, last_seq) VALUES ($1, 1)
				ON CONFLICT (year) DO UPDATE SET last_seq = claim_sequences.last_seq + 1
				RETURNING last_seq`, year).Scan(&seq)
			if err != nil {
				return mapError("next claim number", err)
			}
			claim.ClaimNumber = domainwf.FormatClaimNumber(year, seq)

			sp, err := tx.Begin(txCtx)
			if err != nil {
				return mapError("savepoint", err)
			}
			err = sp.QueryRow(txCtx, `
				INSERT INTO claims (
					claim_number, supplier_id, project_id, agreement_id, area, damage_amount,
					claim_description, damage_description, defects_description, demand_type, demand_detail,
					status, date_entered, date_approved, date_legal_approved, date_sent_to_supplier, date_feedback,
					accepted_by_supplier, supplier_response, rejection_reason, created_by, version,
					created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, CAST($6::text AS numeric), $7, $8, $9, $10, $11, $12, $13, $14,
					$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
				RETURNING id`,
				claim.ClaimNumber, claim.SupplierID, claim.ProjectID, claim.AgreementID, claim.Area, claim.DamageAmount.String(),
				claim.ClaimDescription, claim.DamageDescription, claim.DefectsDescription, claim.DemandType, claim.DemandDetail,
				claim.Status, claim.DateEntered, claim.DateApproved, claim.DateLegalApproved, claim.DateSentToSupplier, claim.DateFeedback,
				claim.AcceptedBySupplier, claim.SupplierResponse, claim.RejectionReason, claim.CreatedBy, claim.Version,
				claim.CreatedAt, claim.UpdatedAt,
			).Scan(&claim.ID)
			if isUniqueViolation(err) {
				_ = sp.Rollback(txCtx)
				r.logger.Warn("Claim number already taken, drawing the next one",
					zap.String("claim_number", claim.ClaimNumber),
					zap.Int("attempt", attempt))
				continue
			}
			if err != nil {
				_ = sp.Rollback(txCtx)
				r.logger.Error("Failed to create claim", zap.Int64("supplier_id", claim.SupplierID), zap.Error(err))
				return mapError("create claim", err)
			}
			if err := sp.Commit(txCtx); err != nil {
				return mapError("release savepoint", err)
			}
			return nil
		}

		return fmt.Errorf("%w: no free claim number for %d after %d attempts", domainwf.ErrConflict, year, maxNumberAttempts)
	})
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	row := r.store.querier(ctx).QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	claim, err := scanClaim(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: claim %d", domainwf.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.Int64("id", id), zap.Error(err))
		return nil, mapError("get claim", err)
	}
	return claim, nil
}

// Update writes the claim if the stored version still matches expectedVersion
func (r *ClaimRepository) Update(ctx context.Context, claim *entity.Claim, expectedVersion int64) error {
	if claim.UpdatedAt.IsZero() {
		claim.UpdatedAt = time.Now()
	}

	q := r.store.querier(ctx)
	tag, err := q.Exec(ctx, `
		UPDATE claims SET
			area = $1, damage_amount = CAST($2::text AS numeric), claim_description = $3, damage_description = $4,
			defects_description = $5, demand_type = $6, demand_detail = $7, status = $8,
			date_approved = $9, date_legal_approved = $10, date_sent_to_supplier = $11, date_feedback = $12,
			accepted_by_supplier = $13, supplier_response = $14, rejection_reason = $15,
			version = version + 1, updated_at = $16
		WHERE id = $17 AND version = $18`,
		claim.Area, claim.DamageAmount.String(), claim.ClaimDescription, claim.DamageDescription,
		claim.DefectsDescription, claim.DemandType, claim.DemandDetail, claim.Status,
		claim.DateApproved, claim.DateLegalApproved, claim.DateSentToSupplier, claim.DateFeedback,
		claim.AcceptedBySupplier, claim.SupplierResponse, claim.RejectionReason,
		claim.UpdatedAt, claim.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update claim", zap.Int64("id", claim.ID), zap.Error(err))
		return mapError("update claim", err)
	}
	if err := checkVersioned(ctx, q, tag.RowsAffected(), "claims", claim.ID, expectedVersion); err != nil {
		return err
	}
	claim.Version = expectedVersion + 1
	return nil
}

// List returns claims matching the filter, newest first
func (r *ClaimRepository) List(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.SupplierID > 0 {
		args = append(args, filter.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}

	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Offset)
	query += fmt.Sprintf(` ORDER BY id DESC OFFSET $%d`, len(args))
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.store.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, mapError("list claims", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, mapError("scan claim", err)
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list claims", err)
	}
	return claims, nil
}

func scanClaim(row pgx.Row) (*entity.Claim, error) {
	var (
		c      entity.Claim
		amount string
	)
	err := row.Scan(
		&c.ID, &c.ClaimNumber, &c.SupplierID, &c.ProjectID, &c.AgreementID, &c.Area, &amount,
		&c.ClaimDescription, &c.DamageDescription, &c.DefectsDescription, &c.DemandType, &c.DemandDetail,
		&c.Status, &c.DateEntered, &c.DateApproved, &c.DateLegalApproved, &c.DateSentToSupplier, &c.DateFeedback,
		&c.AcceptedBySupplier, &c.SupplierResponse, &c.RejectionReason, &c.CreatedBy, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.DamageAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse damage_amount %q: %w", amount, err)
	}
	return &c, nil
}

// checkVersioned tells a missing row from a stale version after a zero-row update
func checkVersioned(ctx context.Context, q querier, affected int64, table string, id, expectedVersion int64) error {
	if affected == 1 {
		return nil
	}
	var current int64
	err := q.QueryRow(ctx, `SELECT version FROM `+table+` WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", domainwf.ErrNotFound, table, id)
	}
	if err != nil {
		return mapError("read version", err)
	}
	return fmt.Errorf("%w: %s %d is at version %d, expected %d", domainwf.ErrConflict, table, id, current, expectedVersion)
}

var _ port.ClaimRepository = (*ClaimRepository)(nil)
