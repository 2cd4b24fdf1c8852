package port

import (
	"context"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
)

// Notifier delivers a templated message of the given kind to a recipient address
type Notifier interface {
	Notify(ctx context.Context, kind, recipient string, data map[string]string) error
}

// ReportExporter renders workbook exports
type ReportExporter interface {
	ExportAuditTrail(entityType string, entityID int64, entries []*entity.AuditEntry) ([]byte, error)
	ExportClaimRegister(claims []*entity.Claim) ([]byte, error)
}
