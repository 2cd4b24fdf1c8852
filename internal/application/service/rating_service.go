package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/dispatcher"
	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

// CreateRatingInput carries the sub-ratings of a new supplier rating
type CreateRatingInput struct {
	SupplierID          int64 `json:"supplier_id"`
	ProjectID           int64 `json:"project_id"`
	HSERating           int   `json:"hse_rating"`
	CommunicationRating int   `json:"communication_rating"`
	CompetencyRating    int   `json:"competency_rating"`
	OnTimeRating        int   `json:"on_time_rating"`
	ServiceRating       int   `json:"service_rating"`
}

// RequestRatingInput asks an engineer to rate a supplier
type RequestRatingInput struct {
	SupplierID int64  `json:"supplier_id"`
	ProjectID  int64  `json:"project_id"`
	EngineerID int64  `json:"engineer_id"`
	Message    string `json:"message,omitempty"`
}

// RatingService manages supplier ratings. Acceptance goes through the
// workflow coordinator.
type RatingService interface {
	CreateRating(ctx context.Context, actor domainwf.Actor, input CreateRatingInput) (*entity.SupplierRating, error)
	RequestRating(ctx context.Context, actor domainwf.Actor, input RequestRatingInput) (*entity.RatingRequest, error)
	GetRating(ctx context.Context, actor domainwf.Actor, id int64) (*entity.SupplierRating, error)
	ListRatings(ctx context.Context, actor domainwf.Actor, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error)
}

type ratingServiceImpl struct {
	ratingRepo port.RatingRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// NewRatingService creates a new RatingService. The dispatcher may be nil.
func NewRatingService(
	ratingRepo port.RatingRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) RatingService {
	return &ratingServiceImpl{
		ratingRepo: ratingRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		dispatcher: d,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRating records an operations engineer's rating of a supplier
func (s *ratingServiceImpl) CreateRating(ctx context.Context, actor domainwf.Actor, input CreateRatingInput) (*entity.SupplierRating, error) {
	if err := domainwf.CanCreateRating(actor); err != nil {
		return nil, err
	}
	if input.SupplierID <= 0 || input.ProjectID <= 0 {
		return nil, fmt.Errorf("%w: supplier_id and project_id are required", domainwf.ErrValidationFailed)
	}

	now := s.now()
	rating := &entity.SupplierRating{
		SupplierID:          input.SupplierID,
		ProjectID:           input.ProjectID,
		HSERating:           input.HSERating,
		CommunicationRating: input.CommunicationRating,
		CompetencyRating:    input.CompetencyRating,
		OnTimeRating:        input.OnTimeRating,
		ServiceRating:       input.ServiceRating,
		RatingDate:          now,
		CreatedBy:           actor.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := domainwf.ValidateSubRatings(rating.SubRatings()); err != nil {
		return nil, err
	}
	rating.OverallRating = domainwf.OverallRating(rating.SubRatings())

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ratingRepo.Create(txCtx, rating); err != nil {
			return fmt.Errorf("create rating: %w", err)
		}
		return s.auditRepo.Append(txCtx, &entity.AuditEntry{
			ActorID:     actor.ID,
			ActorRole:   actor.Role.String(),
			Action:      entity.AuditActionRatingCreated,
			EntityType:  entity.EntityTypeRating,
			EntityID:    rating.ID,
			Description: fmt.Sprintf("rated supplier %d on project %d: %.2f", rating.SupplierID, rating.ProjectID, rating.OverallRating),
			ToStatus:    entity.RatingStatusPending,
			Timestamp:   now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create rating", "error", err, "supplier_id", input.SupplierID, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Rating created",
		"rating_id", rating.ID,
		"supplier_id", rating.SupplierID,
		"overall_rating", rating.OverallRating,
	)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRatingCreated, entity.EntityTypeRating, rating.ID, map[string]interface{}{
			event.KeyActorID:       actor.ID,
			event.KeySupplierID:    rating.SupplierID,
			event.KeyProjectID:     rating.ProjectID,
			event.KeyCreatedBy:     rating.CreatedBy,
			event.KeyOverallRating: rating.OverallRating,
		}))
	}

	return rating, nil
}

// RequestRating asks an operations engineer to rate a supplier on a project
func (s *ratingServiceImpl) RequestRating(ctx context.Context, actor domainwf.Actor, input RequestRatingInput) (*entity.RatingRequest, error) {
	if err := domainwf.CanRequestRating(actor); err != nil {
		return nil, err
	}
	if input.SupplierID <= 0 || input.ProjectID <= 0 || input.EngineerID <= 0 {
		return nil, fmt.Errorf("%w: supplier_id, project_id and engineer_id are required", domainwf.ErrValidationFailed)
	}

	req := &entity.RatingRequest{
		SupplierID:  input.SupplierID,
		ProjectID:   input.ProjectID,
		EngineerID:  input.EngineerID,
		RequestedBy: actor.ID,
		Message:     strings.TrimSpace(input.Message),
		RequestedAt: s.now(),
	}

	err := s.auditRepo.Append(ctx, &entity.AuditEntry{
		ActorID:     actor.ID,
		ActorRole:   actor.Role.String(),
		Action:      entity.AuditActionRatingRequested,
		EntityType:  entity.EntityTypeSupplier,
		EntityID:    req.SupplierID,
		Description: fmt.Sprintf("requested rating of supplier %d on project %d from user %d", req.SupplierID, req.ProjectID, req.EngineerID),
		Timestamp:   req.RequestedAt,
	})
	if err != nil {
		s.logger.Error("Failed to record rating request", "error", err, "supplier_id", req.SupplierID)
		return nil, err
	}

	s.logger.Info("Rating requested", "supplier_id", req.SupplierID, "engineer_id", req.EngineerID)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRatingRequested, entity.EntityTypeSupplier, req.SupplierID, map[string]interface{}{
			event.KeyActorID:    actor.ID,
			event.KeySupplierID: req.SupplierID,
			event.KeyProjectID:  req.ProjectID,
			event.KeyEngineerID: req.EngineerID,
			event.KeyComment:    req.Message,
		}))
	}

	return req, nil
}

// GetRating returns a rating. Suppliers only see their own ratings.
func (s *ratingServiceImpl) GetRating(ctx context.Context, actor domainwf.Actor, id int64) (*entity.SupplierRating, error) {
	rating, err := s.ratingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(actor, rating.SupplierID) {
		return nil, fmt.Errorf("%w: rating %d", domainwf.ErrNotFound, id)
	}
	return rating, nil
}

// ListRatings lists a supplier's ratings, newest first
func (s *ratingServiceImpl) ListRatings(ctx context.Context, actor domainwf.Actor, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error) {
	if actor.Role == domainwf.RoleSupplier {
		supplierID = actor.CompanyID
	}
	if supplierID <= 0 {
		return nil, fmt.Errorf("%w: supplier_id is required", domainwf.ErrValidationFailed)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.ratingRepo.ListBySupplier(ctx, supplierID, limit, offset)
}
