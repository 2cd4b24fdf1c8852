package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

// Export is a rendered workbook
type Export struct {
	FileName string
	Content  []byte
}

// AuditService exposes the audit trail and workbook exports to internal users
type AuditService interface {
	Trail(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) ([]*entity.AuditEntry, error)
	ExportTrail(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) (*Export, error)
	ExportClaimRegister(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) (*Export, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditRepository
	claimRepo port.ClaimRepository
	exporter  port.ReportExporter
	archive   port.FileStorage
	logger    Logger
	now       func() time.Time
}

// maxRegisterRows bounds a claim register export
const maxRegisterRows = 10000

// NewAuditService creates a new AuditService. archive may be nil, in which
// case exports are not kept on disk.
func NewAuditService(
	auditRepo port.AuditRepository,
	claimRepo port.ClaimRepository,
	exporter port.ReportExporter,
	archive port.FileStorage,
	logger Logger,
) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		claimRepo: claimRepo,
		exporter:  exporter,
		archive:   archive,
		logger:    logger,
		now:       time.Now,
	}
}

// Trail returns the audit entries of one entity in chronological order
func (s *auditServiceImpl) Trail(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	if err := requireInternal(actor); err != nil {
		return nil, err
	}
	switch entityType {
	case entity.EntityTypeClaim, entity.EntityTypeRating, entity.EntityTypeSupplier:
	default:
		return nil, fmt.Errorf("%w: unknown entity type %q", domainwf.ErrValidationFailed, entityType)
	}
	return s.auditRepo.ListByEntity(ctx, entityType, entityID)
}

// ExportTrail renders an entity's audit trail as a workbook
func (s *auditServiceImpl) ExportTrail(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) (*Export, error) {
	entries, err := s.Trail(ctx, actor, entityType, entityID)
	if err != nil {
		return nil, err
	}

	content, err := s.exporter.ExportAuditTrail(entityType, entityID, entries)
	if err != nil {
		return nil, fmt.Errorf("render audit trail: %w", err)
	}

	export := &Export{
		FileName: fmt.Sprintf("audit-%s-%d-%s.xlsx", entityType, entityID, s.now().Format("20060102-150405")),
		Content:  content,
	}
	s.keep(ctx, export)
	return export, nil
}

// ExportClaimRegister renders the filtered claim list as a workbook
func (s *auditServiceImpl) ExportClaimRegister(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) (*Export, error) {
	if err := requireInternal(actor); err != nil {
		return nil, err
	}
	filter.Limit = maxRegisterRows
	filter.Offset = 0

	claims, err := s.claimRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	content, err := s.exporter.ExportClaimRegister(claims)
	if err != nil {
		return nil, fmt.Errorf("render claim register: %w", err)
	}

	export := &Export{
		FileName: fmt.Sprintf("claim-register-%s.xlsx", s.now().Format("20060102-150405")),
		Content:  content,
	}
	s.keep(ctx, export)

	s.logger.Info("Claim register exported", "rows", len(claims), "actor_id", actor.ID)
	return export, nil
}

// keep archives the export; a failed archive write does not fail the export
func (s *auditServiceImpl) keep(ctx context.Context, export *Export) {
	if s.archive == nil {
		return
	}
	p := path.Join("exports", s.now().Format("2006-01"), export.FileName)
	if err := s.archive.Save(ctx, p, export.Content); err != nil {
		s.logger.Error("Failed to archive export", "file", p, "error", err)
	}
}

func requireInternal(actor domainwf.Actor) error {
	if actor.Role == domainwf.RoleSupplier || !actor.Role.IsValid() {
		return fmt.Errorf("%w: audit records are internal", domainwf.ErrForbidden)
	}
	return nil
}
