package http

import (
	"context"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/application/service"
	"github.com/garyjia/supplier-workflow/internal/application/workflow"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

type mockClaimService struct {
	createFunc func(ctx context.Context, actor domainwf.Actor, input service.CreateClaimInput) (*entity.Claim, error)
	editFunc   func(ctx context.Context, actor domainwf.Actor, id int64, patch entity.ClaimPatch) (*entity.Claim, error)
	getFunc    func(ctx context.Context, actor domainwf.Actor, id int64) (*entity.Claim, error)
	listFunc   func(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) ([]*entity.Claim, error)
}

func (m *mockClaimService) CreateClaim(ctx context.Context, actor domainwf.Actor, input service.CreateClaimInput) (*entity.Claim, error) {
	return m.createFunc(ctx, actor, input)
}

func (m *mockClaimService) EditClaim(ctx context.Context, actor domainwf.Actor, id int64, patch entity.ClaimPatch) (*entity.Claim, error) {
	return m.editFunc(ctx, actor, id, patch)
}

func (m *mockClaimService) GetClaim(ctx context.Context, actor domainwf.Actor, id int64) (*entity.Claim, error) {
	return m.getFunc(ctx, actor, id)
}

func (m *mockClaimService) ListClaims(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) ([]*entity.Claim, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, actor, filter)
	}
	return nil, nil
}

type mockRatingService struct {
	createFunc  func(ctx context.Context, actor domainwf.Actor, input service.CreateRatingInput) (*entity.SupplierRating, error)
	requestFunc func(ctx context.Context, actor domainwf.Actor, input service.RequestRatingInput) (*entity.RatingRequest, error)
	listFunc    func(ctx context.Context, actor domainwf.Actor, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error)
}

func (m *mockRatingService) CreateRating(ctx context.Context, actor domainwf.Actor, input service.CreateRatingInput) (*entity.SupplierRating, error) {
	return m.createFunc(ctx, actor, input)
}

func (m *mockRatingService) RequestRating(ctx context.Context, actor domainwf.Actor, input service.RequestRatingInput) (*entity.RatingRequest, error) {
	return m.requestFunc(ctx, actor, input)
}

func (m *mockRatingService) GetRating(ctx context.Context, actor domainwf.Actor, id int64) (*entity.SupplierRating, error) {
	return nil, domainwf.ErrNotFound
}

func (m *mockRatingService) ListRatings(ctx context.Context, actor domainwf.Actor, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error) {
	return m.listFunc(ctx, actor, supplierID, limit, offset)
}

type mockAuditService struct {
	trailFunc    func(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) ([]*entity.AuditEntry, error)
	exportFunc   func(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) (*service.Export, error)
	registerFunc func(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) (*service.Export, error)
}

func (m *mockAuditService) Trail(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	return m.trailFunc(ctx, actor, entityType, entityID)
}

func (m *mockAuditService) ExportTrail(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) (*service.Export, error) {
	return m.exportFunc(ctx, actor, entityType, entityID)
}

func (m *mockAuditService) ExportClaimRegister(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) (*service.Export, error) {
	return m.registerFunc(ctx, actor, filter)
}

type mockCoordinator struct {
	applyFunc    func(ctx context.Context, req workflow.TransitionRequest) (*workflow.TransitionResult, error)
	describeFunc func(ctx context.Context, entityType string, entityID int64, actor domainwf.Actor) (*workflow.View, error)
}

func (m *mockCoordinator) ApplyTransition(ctx context.Context, req workflow.TransitionRequest) (*workflow.TransitionResult, error) {
	return m.applyFunc(ctx, req)
}

func (m *mockCoordinator) Describe(ctx context.Context, entityType string, entityID int64, actor domainwf.Actor) (*workflow.View, error) {
	return m.describeFunc(ctx, entityType, entityID, actor)
}

type mockLogger struct {
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.errors = append(m.errors, msg)
}
