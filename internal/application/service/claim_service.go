package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/dispatcher"
	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DefaultListLimit caps listings when the caller gives no limit
const DefaultListLimit = 50

// CreateClaimInput carries the fields of a new claim
type CreateClaimInput struct {
	SupplierID         int64           `json:"supplier_id"`
	ProjectID          *int64          `json:"project_id,omitempty"`
	AgreementID        *int64          `json:"agreement_id,omitempty"`
	Area               string          `json:"area"`
	DamageAmount       decimal.Decimal `json:"damage_amount"`
	ClaimDescription   string          `json:"claim_description"`
	DamageDescription  string          `json:"damage_description"`
	DefectsDescription string          `json:"defects_description,omitempty"`
	DemandType         string          `json:"demand_type,omitempty"`
	DemandDetail       string          `json:"demand_detail,omitempty"`
}

// ClaimService manages claim creation, edits and listings. State changes go
// through the workflow coordinator.
type ClaimService interface {
	CreateClaim(ctx context.Context, actor domainwf.Actor, input CreateClaimInput) (*entity.Claim, error)
	EditClaim(ctx context.Context, actor domainwf.Actor, id int64, patch entity.ClaimPatch) (*entity.Claim, error)
	GetClaim(ctx context.Context, actor domainwf.Actor, id int64) (*entity.Claim, error)
	ListClaims(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) ([]*entity.Claim, error)
}

type claimServiceImpl struct {
	claimRepo  port.ClaimRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// NewClaimService creates a new ClaimService. The dispatcher may be nil.
func NewClaimService(
	claimRepo port.ClaimRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		claimRepo:  claimRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		dispatcher: d,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateClaim validates and stores a new claim in state NEW
func (s *claimServiceImpl) CreateClaim(ctx context.Context, actor domainwf.Actor, input CreateClaimInput) (*entity.Claim, error) {
	if err := domainwf.CanCreateClaim(actor); err != nil {
		return nil, err
	}

	now := s.now()
	claim := &entity.Claim{
		SupplierID:         input.SupplierID,
		ProjectID:          input.ProjectID,
		AgreementID:        input.AgreementID,
		Area:               input.Area,
		DamageAmount:       input.DamageAmount,
		ClaimDescription:   input.ClaimDescription,
		DamageDescription:  input.DamageDescription,
		DefectsDescription: input.DefectsDescription,
		DemandType:         input.DemandType,
		DemandDetail:       input.DemandDetail,
		Status:             domainwf.StateNew.String(),
		DateEntered:        now,
		CreatedBy:          actor.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := domainwf.ValidateClaim(claim); err != nil {
		return nil, err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.Create(txCtx, claim); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}
		return s.auditRepo.Append(txCtx, &entity.AuditEntry{
			ActorID:     actor.ID,
			ActorRole:   actor.Role.String(),
			Action:      entity.AuditActionClaimCreated,
			EntityType:  entity.EntityTypeClaim,
			EntityID:    claim.ID,
			Description: fmt.Sprintf("created claim %s against supplier %d for %s", claim.ClaimNumber, claim.SupplierID, claim.DamageAmount.StringFixed(2)),
			ToStatus:    claim.Status,
			Timestamp:   now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create claim", "error", err, "supplier_id", input.SupplierID, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Claim created",
		"claim_id", claim.ID,
		"claim_number", claim.ClaimNumber,
		"supplier_id", claim.SupplierID,
		"actor_id", actor.ID,
	)
	s.publish(ctx, event.TypeClaimCreated, claim, actor)

	return claim, nil
}

// EditClaim applies a field patch within the actor's edit rights
func (s *claimServiceImpl) EditClaim(ctx context.Context, actor domainwf.Actor, id int64, patch entity.ClaimPatch) (*entity.Claim, error) {
	now := s.now()
	var updated *entity.Claim

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := s.claimRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !visibleTo(actor, claim.SupplierID) {
			return fmt.Errorf("%w: claim %d", domainwf.ErrNotFound, id)
		}

		updated, err = domainwf.ApplyEdit(claim, patch, actor, now)
		if err != nil {
			return err
		}

		if err := s.claimRepo.Update(txCtx, updated, claim.Version); err != nil {
			return err
		}

		return s.auditRepo.Append(txCtx, &entity.AuditEntry{
			ActorID:     actor.ID,
			ActorRole:   actor.Role.String(),
			Action:      entity.AuditActionClaimEdited,
			EntityType:  entity.EntityTypeClaim,
			EntityID:    claim.ID,
			Description: fmt.Sprintf("edited claim %s", claim.ClaimNumber),
			FromStatus:  claim.Status,
			ToStatus:    claim.Status,
			Timestamp:   now,
		})
	})
	if err != nil {
		s.logger.Info("Claim edit refused", "claim_id", id, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	s.logger.Info("Claim edited", "claim_id", id, "actor_id", actor.ID, "version", updated.Version)
	s.publish(ctx, event.TypeClaimEdited, updated, actor)

	return updated, nil
}

// GetClaim returns a claim. Suppliers only see their own company's claims.
func (s *claimServiceImpl) GetClaim(ctx context.Context, actor domainwf.Actor, id int64) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(actor, claim.SupplierID) {
		return nil, fmt.Errorf("%w: claim %d", domainwf.ErrNotFound, id)
	}
	return claim, nil
}

// ListClaims lists claims; supplier actors are restricted to their own company
func (s *claimServiceImpl) ListClaims(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) ([]*entity.Claim, error) {
	if actor.Role == domainwf.RoleSupplier {
		filter.SupplierID = actor.CompanyID
	}
	if filter.Status != "" && !domainwf.State(filter.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domainwf.ErrValidationFailed, filter.Status)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.claimRepo.List(ctx, filter)
}

func (s *claimServiceImpl) publish(ctx context.Context, t event.Type, claim *entity.Claim, actor domainwf.Actor) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(t, entity.EntityTypeClaim, claim.ID, map[string]interface{}{
		event.KeyActorID:      actor.ID,
		event.KeyActorRole:    actor.Role.String(),
		event.KeySupplierID:   claim.SupplierID,
		event.KeyClaimNumber:  claim.ClaimNumber,
		event.KeyDamageAmount: claim.DamageAmount.StringFixed(2),
		event.KeyToStatus:     claim.Status,
	}))
}

// visibleTo hides other companies' records from supplier actors
func visibleTo(actor domainwf.Actor, supplierID int64) bool {
	return actor.Role != domainwf.RoleSupplier || actor.IsSupplierFor(supplierID)
}
