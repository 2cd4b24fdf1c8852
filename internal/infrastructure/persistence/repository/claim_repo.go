package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// maxNumberAttempts bounds claim-number collisions before giving up
const maxNumberAttempts = 3

// ClaimRepository implements port.ClaimRepository on SQLite
type ClaimRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sqlite.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

const claimColumns = `
	id, claim_number, supplier_id, project_id, agreement_id, area, damage_amount,
	claim_description, damage_description, defects_description, demand_type, demand_detail,
	status, date_entered, date_approved, date_legal_approved, date_sent_to_supplier, date_feedback,
	accepted_by_supplier, supplier_response, rejection_reason, created_by, version,
	created_at, updated_at`

// Create inserts the claim, drawing its number from the per-year sequence
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

	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)
		year := claim.DateEntered.Year()

		for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
			var seq int64
			err := exec.QueryRowContext(txCtx, `
				INSERT INTO claim_sequences (year, last_seq) VALUES (?, 1)
				ON CONFLICT(year) DO UPDATE SET last_seq = last_seq + 1
				RETURNING last_seq`, year).Scan(&seq)
			if err != nil {
				return sqlite.MapError("next claim number", err)
			}
			claim.ClaimNumber = domainwf.FormatClaimNumber(year, seq)

			result, err := exec.ExecContext(txCtx, `
				INSERT INTO claims (
					claim_number, supplier_id, project_id, agreement_id, area, damage_amount,
					claim_description, damage_description, defects_description, demand_type, demand_detail,
					status, date_entered, date_approved, date_legal_approved, date_sent_to_supplier, date_feedback,
					accepted_by_supplier, supplier_response, rejection_reason, created_by, version,
					created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				claim.ClaimNumber, claim.SupplierID, claim.ProjectID, claim.AgreementID, claim.Area, claim.DamageAmount,
				claim.ClaimDescription, claim.DamageDescription, claim.DefectsDescription, claim.DemandType, claim.DemandDetail,
				claim.Status, claim.DateEntered, claim.DateApproved, claim.DateLegalApproved, claim.DateSentToSupplier, claim.DateFeedback,
				claim.AcceptedBySupplier, claim.SupplierResponse, claim.RejectionReason, claim.CreatedBy, claim.Version,
				claim.CreatedAt, claim.UpdatedAt,
			)
			if sqlite.IsUniqueViolation(err) {
				r.logger.Warn("Claim number already taken, drawing the next one",
					zap.String("claim_number", claim.ClaimNumber),
					zap.Int("attempt", attempt))
				continue
			}
			if err != nil {
				r.logger.Error("Failed to create claim", zap.Int64("supplier_id", claim.SupplierID), zap.Error(err))
				return sqlite.MapError("create claim", err)
			}

			id, err := result.LastInsertId()
			if err != nil {
				return sqlite.MapError("claim insert id", err)
			}
			claim.ID = id
			return nil
		}

		return fmt.Errorf("%w: no free claim number for %d after %d attempts", domainwf.ErrConflict, year, maxNumberAttempts)
	})
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: claim %d", domainwf.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.Int64("id", id), zap.Error(err))
		return nil, sqlite.MapError("get claim", err)
	}
	return claim, nil
}

// Update writes the claim if the stored version still matches expectedVersion
func (r *ClaimRepository) Update(ctx context.Context, claim *entity.Claim, expectedVersion int64) error {
	if claim.UpdatedAt.IsZero() {
		claim.UpdatedAt = time.Now()
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE claims SET
			area = ?, damage_amount = ?, claim_description = ?, damage_description = ?,
			defects_description = ?, demand_type = ?, demand_detail = ?, status = ?,
			date_approved = ?, date_legal_approved = ?, date_sent_to_supplier = ?, date_feedback = ?,
			accepted_by_supplier = ?, supplier_response = ?, rejection_reason = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		claim.Area, claim.DamageAmount, claim.ClaimDescription, claim.DamageDescription,
		claim.DefectsDescription, claim.DemandType, claim.DemandDetail, claim.Status,
		claim.DateApproved, claim.DateLegalApproved, claim.DateSentToSupplier, claim.DateFeedback,
		claim.AcceptedBySupplier, claim.SupplierResponse, claim.RejectionReason,
		claim.UpdatedAt, claim.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update claim", zap.Int64("id", claim.ID), zap.Error(err))
		return sqlite.MapError("update claim", err)
	}

	if err := checkVersioned(ctx, r.db.Executor(ctx), result, "claims", claim.ID, expectedVersion); err != nil {
		return err
	}
	claim.Version = expectedVersion + 1
	return nil
}

// List returns claims matching the filter, newest first
func (r *ClaimRepository) List(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.SupplierID > 0 {
		where = append(where, "supplier_id = ?")
		args = append(args, filter.SupplierID)
	}

	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limitOrAll(filter.Limit), filter.Offset)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, sqlite.MapError("list claims", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, sqlite.MapError("scan claim", err)
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

func scanClaim(s scanner) (*entity.Claim, error) {
	var (
		c                                               entity.Claim
		projectID, agreementID                          sql.NullInt64
		dateApproved, dateLegal, dateSent, dateFeedback sql.NullTime
		accepted                                        sql.NullBool
	)
	err := s.Scan(
		&c.ID, &c.ClaimNumber, &c.SupplierID, &projectID, &agreementID, &c.Area, &c.DamageAmount,
		&c.ClaimDescription, &c.DamageDescription, &c.DefectsDescription, &c.DemandType, &c.DemandDetail,
		&c.Status, &c.DateEntered, &dateApproved, &dateLegal, &dateSent, &dateFeedback,
		&accepted, &c.SupplierResponse, &c.RejectionReason, &c.CreatedBy, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ProjectID = nullInt64(projectID)
	c.AgreementID = nullInt64(agreementID)
	c.DateApproved = nullTime(dateApproved)
	c.DateLegalApproved = nullTime(dateLegal)
	c.DateSentToSupplier = nullTime(dateSent)
	c.DateFeedback = nullTime(dateFeedback)
	if accepted.Valid {
		v := accepted.Bool
		c.AcceptedBySupplier = &v
	}
	return &c, nil
}

var _ port.ClaimRepository = (*ClaimRepository)(nil)
