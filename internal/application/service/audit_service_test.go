package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Trail(t *testing.T) {
	audit := &mockAuditRepo{}
	audit.entries = []*entity.AuditEntry{
		{ID: 1, EntityType: entity.EntityTypeClaim, EntityID: 9, Action: entity.AuditActionClaimCreated},
		{ID: 2, EntityType: entity.EntityTypeClaim, EntityID: 9, Action: entity.AuditActionClaimTransition},
		{ID: 3, EntityType: entity.EntityTypeRating, EntityID: 9, Action: entity.AuditActionRatingCreated},
	}
	svc := NewAuditService(audit, &mockClaimRepo{}, &mockExporter{}, nil, &mockLogger{})

	entries, err := svc.Trail(context.Background(), legal, entity.EntityTypeClaim, 9)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = svc.Trail(context.Background(), supplier, entity.EntityTypeClaim, 9)
	assert.ErrorIs(t, err, domainwf.ErrForbidden)

	_, err = svc.Trail(context.Background(), legal, "invoice", 9)
	assert.ErrorIs(t, err, domainwf.ErrValidationFailed)
}

func TestAuditService_ExportTrail(t *testing.T) {
	audit := &mockAuditRepo{}
	audit.entries = []*entity.AuditEntry{{ID: 1, EntityType: entity.EntityTypeRating, EntityID: 5}}

	var gotEntries int
	exporter := &mockExporter{trailFunc: func(entityType string, entityID int64, entries []*entity.AuditEntry) ([]byte, error) {
		gotEntries = len(entries)
		return []byte("workbook"), nil
	}}
	archive := &mockFileStorage{}
	svc := NewAuditService(audit, &mockClaimRepo{}, exporter, archive, &mockLogger{})
	svc.(*auditServiceImpl).now = fixedClock(time.Date(2026, 8, 3, 14, 5, 6, 0, time.UTC))

	export, err := svc.ExportTrail(context.Background(), operations, entity.EntityTypeRating, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, gotEntries)
	assert.Equal(t, "audit-rating-5-20260803-140506.xlsx", export.FileName)
	assert.Equal(t, []byte("workbook"), archive.saved["exports/2026-08/audit-rating-5-20260803-140506.xlsx"])
}

func TestAuditService_ExportClaimRegister(t *testing.T) {
	var got port.ClaimFilter
	claims := &mockClaimRepo{listFunc: func(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error) {
		got = filter
		return []*entity.Claim{storedClaim(domainwf.StateNew)}, nil
	}}
	archive := &mockFileStorage{saveErr: errors.New("read-only fs")}
	logger := &mockLogger{}
	svc := NewAuditService(&mockAuditRepo{}, claims, &mockExporter{}, archive, logger)

	export, err := svc.ExportClaimRegister(context.Background(), purchasing, port.ClaimFilter{Status: "NEW", Limit: 3})
	require.NoError(t, err, "archive failures must not fail the export")
	assert.True(t, strings.HasPrefix(export.FileName, "claim-register-"))
	assert.Equal(t, "NEW", got.Status)
	assert.Equal(t, maxRegisterRows, got.Limit)
	assert.Contains(t, logger.errors, "Failed to archive export")

	_, err = svc.ExportClaimRegister(context.Background(), supplier, port.ClaimFilter{})
	assert.ErrorIs(t, err, domainwf.ErrForbidden)
}

func TestAuditService_ExporterFailure(t *testing.T) {
	exporter := &mockExporter{registerFunc: func(claims []*entity.Claim) ([]byte, error) {
		return nil, errors.New("boom")
	}}
	svc := NewAuditService(&mockAuditRepo{}, &mockClaimRepo{}, exporter, nil, &mockLogger{})

	_, err := svc.ExportClaimRegister(context.Background(), legal, port.ClaimFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render claim register")
}
