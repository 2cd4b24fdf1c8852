package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingService_CreateRating(t *testing.T) {
	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	audit := &mockAuditRepo{}
	d := &mockDispatcher{}
	svc := NewRatingService(&mockRatingRepo{}, audit, &mockTxManager{}, d, &mockLogger{})
	svc.(*ratingServiceImpl).now = fixedClock(now)

	rating, err := svc.CreateRating(context.Background(), operations, CreateRatingInput{
		SupplierID: 42, ProjectID: 3,
		HSERating: 5, CommunicationRating: 4, CompetencyRating: 5, OnTimeRating: 4, ServiceRating: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.6, rating.OverallRating)
	assert.Equal(t, now, rating.RatingDate)
	assert.Equal(t, operations.ID, rating.CreatedBy)
	assert.False(t, rating.AcceptedBySupplier)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, entity.AuditActionRatingCreated, audit.entries[0].Action)
	require.Len(t, d.events, 1)
	assert.Equal(t, event.TypeRatingCreated, d.events[0].Type)
	assert.Equal(t, int64(42), d.events[0].GetPayloadInt(event.KeySupplierID))
}

func TestRatingService_CreateRating_Refusals(t *testing.T) {
	svc := NewRatingService(&mockRatingRepo{}, &mockAuditRepo{}, &mockTxManager{}, nil, &mockLogger{})

	_, err := svc.CreateRating(context.Background(), purchasing, CreateRatingInput{SupplierID: 42, ProjectID: 3, HSERating: 3})
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	_, err = svc.CreateRating(context.Background(), operations, CreateRatingInput{SupplierID: 42, ProjectID: 3, HSERating: 7})
	assert.ErrorIs(t, err, domainwf.ErrValidationFailed)

	_, err = svc.CreateRating(context.Background(), operations, CreateRatingInput{ProjectID: 3, HSERating: 3})
	assert.ErrorIs(t, err, domainwf.ErrValidationFailed)
}

func TestRatingService_CreateRating_AllUnset(t *testing.T) {
	svc := NewRatingService(&mockRatingRepo{}, &mockAuditRepo{}, &mockTxManager{}, nil, &mockLogger{})

	rating, err := svc.CreateRating(context.Background(), operations, CreateRatingInput{SupplierID: 42, ProjectID: 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rating.OverallRating)
}

func TestRatingService_RequestRating(t *testing.T) {
	audit := &mockAuditRepo{}
	d := &mockDispatcher{}
	svc := NewRatingService(&mockRatingRepo{}, audit, &mockTxManager{}, d, &mockLogger{})

	req, err := svc.RequestRating(context.Background(), purchasing, RequestRatingInput{
		SupplierID: 42, ProjectID: 3, EngineerID: 2, Message: " please rate ",
	})
	require.NoError(t, err)
	assert.Equal(t, "please rate", req.Message)
	assert.Equal(t, purchasing.ID, req.RequestedBy)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, entity.EntityTypeSupplier, audit.entries[0].EntityType)
	require.Len(t, d.events, 1)
	assert.Equal(t, event.TypeRatingRequested, d.events[0].Type)
	assert.Equal(t, int64(2), d.events[0].GetPayloadInt(event.KeyEngineerID))

	_, err = svc.RequestRating(context.Background(), operations, RequestRatingInput{SupplierID: 42, ProjectID: 3, EngineerID: 2})
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	_, err = svc.RequestRating(context.Background(), purchasing, RequestRatingInput{SupplierID: 42, ProjectID: 3})
	assert.ErrorIs(t, err, domainwf.ErrValidationFailed)
}

func TestRatingService_GetAndList(t *testing.T) {
	var gotSupplier int64
	repo := &mockRatingRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.SupplierRating, error) {
			if id != 5 {
				return nil, fmt.Errorf("%w: rating %d", domainwf.ErrNotFound, id)
			}
			return &entity.SupplierRating{ID: 5, SupplierID: 42}, nil
		},
		listBySupplierFunc: func(ctx context.Context, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error) {
			gotSupplier = supplierID
			return nil, nil
		},
	}
	svc := NewRatingService(repo, &mockAuditRepo{}, &mockTxManager{}, nil, &mockLogger{})

	_, err := svc.GetRating(context.Background(), supplier, 5)
	require.NoError(t, err)
	_, err = svc.GetRating(context.Background(), stranger, 5)
	assert.ErrorIs(t, err, domainwf.ErrNotFound)

	_, err = svc.ListRatings(context.Background(), stranger, 42, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(77), gotSupplier)

	_, err = svc.ListRatings(context.Background(), purchasing, 0, 0, 0)
	assert.ErrorIs(t, err, domainwf.ErrValidationFailed)
}
