package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/dispatcher"
	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// coordinatorImpl is the concrete implementation of Coordinator
type coordinatorImpl struct {
	claimRepo  port.ClaimRepository
	ratingRepo port.RatingRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// CoordinatorOption configures the coordinator
type CoordinatorOption func(*coordinatorImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) CoordinatorOption {
	return func(c *coordinatorImpl) {
		c.dispatcher = d
	}
}

// WithLogger sets the logger
func WithLogger(logger Logger) CoordinatorOption {
	return func(c *coordinatorImpl) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp transitions
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *coordinatorImpl) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator creates a new workflow coordinator
func NewCoordinator(
	claimRepo port.ClaimRepository,
	ratingRepo port.RatingRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	opts ...CoordinatorOption,
) Coordinator {
	c := &coordinatorImpl{
		claimRepo:  claimRepo,
		ratingRepo: ratingRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		logger:     nopLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ApplyTransition performs an action on a claim or rating
func (c *coordinatorImpl) ApplyTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	trigger, err := domainwf.ParseTrigger(req.Action)
	if err != nil {
		return nil, err
	}

	switch req.EntityType {
	case entity.EntityTypeClaim:
		return c.transitionClaim(ctx, req, trigger)
	case entity.EntityTypeRating:
		return c.transitionRating(ctx, req, trigger)
	default:
		return nil, fmt.Errorf("%w: unknown entity type %q", domainwf.ErrValidationFailed, req.EntityType)
	}
}

func (c *coordinatorImpl) transitionClaim(ctx context.Context, req TransitionRequest, trigger domainwf.Trigger) (*TransitionResult, error) {
	now := c.now()
	var outcome *domainwf.ClaimOutcome

	err := c.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := c.claimRepo.GetByID(txCtx, req.EntityID)
		if err != nil {
			return err
		}

		outcome, err = domainwf.ApplyAction(claim, trigger, req.Actor, req.Comment, now)
		if err != nil {
			return err
		}

		if err := c.claimRepo.Update(txCtx, outcome.Claim, claim.Version); err != nil {
			return err
		}

		return c.auditRepo.Append(txCtx, &entity.AuditEntry{
			ActorID:     req.Actor.ID,
			ActorRole:   req.Actor.Role.String(),
			Action:      entity.AuditActionClaimTransition,
			EntityType:  entity.EntityTypeClaim,
			EntityID:    claim.ID,
			Description: describeClaimTransition(claim, outcome, req.Comment),
			FromStatus:  outcome.From.String(),
			ToStatus:    outcome.To.String(),
			Timestamp:   now,
		})
	})
	if err != nil {
		c.logRefusal("Claim transition refused", req, err)
		return nil, err
	}

	c.logger.Info("Claim transitioned",
		"claim_id", outcome.Claim.ID,
		"claim_number", outcome.Claim.ClaimNumber,
		"from", outcome.From,
		"to", outcome.To,
		"actor_id", req.Actor.ID,
		"actor_role", req.Actor.Role,
	)

	c.publishClaimEvents(ctx, req, outcome)

	return &TransitionResult{
		EntityType: entity.EntityTypeClaim,
		FromStatus: outcome.From.String(),
		ToStatus:   outcome.To.String(),
		Claim:      outcome.Claim,
	}, nil
}

func (c *coordinatorImpl) transitionRating(ctx context.Context, req TransitionRequest, trigger domainwf.Trigger) (*TransitionResult, error) {
	if trigger != domainwf.TriggerAccept {
		return nil, fmt.Errorf("%w: ratings only support accept, got %s", domainwf.ErrInvalidTransition, strings.ToLower(trigger.String()))
	}

	now := c.now()
	var accepted *entity.SupplierRating

	err := c.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		rating, err := c.ratingRepo.GetByID(txCtx, req.EntityID)
		if err != nil {
			return err
		}

		accepted, err = domainwf.AcceptRating(rating, req.Actor, req.Comment, now)
		if err != nil {
			return err
		}

		if err := c.ratingRepo.Update(txCtx, accepted, rating.Version); err != nil {
			return err
		}

		return c.auditRepo.Append(txCtx, &entity.AuditEntry{
			ActorID:     req.Actor.ID,
			ActorRole:   req.Actor.Role.String(),
			Action:      entity.AuditActionRatingAccepted,
			EntityType:  entity.EntityTypeRating,
			EntityID:    rating.ID,
			Description: fmt.Sprintf("supplier %d accepted rating %.2f", rating.SupplierID, rating.OverallRating),
			FromStatus:  entity.RatingStatusPending,
			ToStatus:    entity.RatingStatusAccepted,
			Timestamp:   now,
		})
	})
	if err != nil {
		c.logRefusal("Rating acceptance refused", req, err)
		return nil, err
	}

	c.logger.Info("Rating accepted",
		"rating_id", accepted.ID,
		"supplier_id", accepted.SupplierID,
		"actor_id", req.Actor.ID,
	)

	if c.dispatcher != nil {
		c.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRatingAccepted, entity.EntityTypeRating, accepted.ID, map[string]interface{}{
			event.KeyActorID:       req.Actor.ID,
			event.KeySupplierID:    accepted.SupplierID,
			event.KeyProjectID:     accepted.ProjectID,
			event.KeyCreatedBy:     accepted.CreatedBy,
			event.KeyOverallRating: accepted.OverallRating,
			event.KeyComment:       accepted.SupplierComment,
		}))
	}

	return &TransitionResult{
		EntityType: entity.EntityTypeRating,
		FromStatus: entity.RatingStatusPending,
		ToStatus:   entity.RatingStatusAccepted,
		Rating:     accepted,
	}, nil
}

// Describe returns the entity with the actions the actor may take on it
func (c *coordinatorImpl) Describe(ctx context.Context, entityType string, entityID int64, actor domainwf.Actor) (*View, error) {
	switch entityType {
	case entity.EntityTypeClaim:
		claim, err := c.claimRepo.GetByID(ctx, entityID)
		if err != nil {
			return nil, err
		}
		if !visibleTo(actor, claim.SupplierID) {
			return nil, fmt.Errorf("%w: claim %d", domainwf.ErrNotFound, entityID)
		}
		e := domainwf.EligibilityFor(claim, actor)
		return &View{
			EntityType: entity.EntityTypeClaim,
			EntityID:   claim.ID,
			Status:     claim.Status,
			Claim:      claim,
			Eligibility: Eligibility{
				CanApprove:        e.CanApprove,
				CanReject:         e.CanReject,
				CanSendToSupplier: e.CanSendToSupplier,
				CanRespond:        e.CanRespond,
				CanEdit:           e.CanEdit,
			},
		}, nil

	case entity.EntityTypeRating:
		rating, err := c.ratingRepo.GetByID(ctx, entityID)
		if err != nil {
			return nil, err
		}
		if !visibleTo(actor, rating.SupplierID) {
			return nil, fmt.Errorf("%w: rating %d", domainwf.ErrNotFound, entityID)
		}
		now := c.now()
		view := &View{
			EntityType: entity.EntityTypeRating,
			EntityID:   rating.ID,
			Status:     domainwf.RatingStatus(rating, now),
			Rating:     rating,
		}
		if err := domainwf.CanAccept(rating, actor, now); err != nil {
			view.Reason = err.Error()
		} else {
			view.Eligibility.CanAcceptRating = true
		}
		return view, nil

	default:
		return nil, fmt.Errorf("%w: unknown entity type %q", domainwf.ErrValidationFailed, entityType)
	}
}

func (c *coordinatorImpl) publishClaimEvents(ctx context.Context, req TransitionRequest, outcome *domainwf.ClaimOutcome) {
	if c.dispatcher == nil {
		return
	}

	claim := outcome.Claim
	payload := map[string]interface{}{
		event.KeyActorID:      req.Actor.ID,
		event.KeyActorRole:    req.Actor.Role.String(),
		event.KeyFromStatus:   outcome.From.String(),
		event.KeyToStatus:     outcome.To.String(),
		event.KeySupplierID:   claim.SupplierID,
		event.KeyClaimNumber:  claim.ClaimNumber,
		event.KeyDamageAmount: claim.DamageAmount.StringFixed(2),
		event.KeyComment:      strings.TrimSpace(req.Comment),
	}

	transitioned := event.NewEvent(event.TypeClaimTransitioned, entity.EntityTypeClaim, claim.ID, payload)
	c.dispatcher.DispatchAsync(ctx, transitioned)

	if outcome.NotifySupplier {
		sent := event.NewEventWithCorrelation(event.TypeClaimSentToSupplier, entity.EntityTypeClaim, claim.ID, payload, transitioned.CorrelationID)
		c.dispatcher.DispatchAsync(ctx, sent)
	}
}

// logRefusal logs storage failures as errors; business refusals are expected
// and only logged at info level
func (c *coordinatorImpl) logRefusal(msg string, req TransitionRequest, err error) {
	kv := []interface{}{
		"entity_type", req.EntityType,
		"entity_id", req.EntityID,
		"action", req.Action,
		"actor_id", req.Actor.ID,
		"actor_role", req.Actor.Role,
		"error", err,
	}
	if errors.Is(err, domainwf.ErrStorage) {
		c.logger.Error(msg, kv...)
		return
	}
	c.logger.Info(msg, kv...)
}

// visibleTo hides other companies' records from supplier actors
func visibleTo(actor domainwf.Actor, supplierID int64) bool {
	return actor.Role != domainwf.RoleSupplier || actor.IsSupplierFor(supplierID)
}

func describeClaimTransition(claim *entity.Claim, outcome *domainwf.ClaimOutcome, comment string) string {
	desc := fmt.Sprintf("%s claim %s: %s -> %s",
		strings.ToLower(strings.ReplaceAll(outcome.Trigger.String(), "_", " ")),
		claim.ClaimNumber, outcome.From, outcome.To)
	if comment = strings.TrimSpace(comment); comment != "" {
		desc += fmt.Sprintf(" (%s)", comment)
	}
	return desc
}
