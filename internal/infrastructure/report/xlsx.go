// Package report renders audit trails and claim registers as XLSX workbooks.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	auditSheet    = "Audit Trail"
	registerSheet = "Claims"
	dateLayout    = "2006-01-02 15:04"
)

// ExcelExporter implements port.ReportExporter with excelize
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// ExportAuditTrail renders one entity's audit entries
func (e *ExcelExporter) ExportAuditTrail(entityType string, entityID int64, entries []*entity.AuditEntry) ([]byte, error) {
	f, err := newWorkbook(auditSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	title := fmt.Sprintf("Audit trail for %s %d", entityType, entityID)
	if err := f.SetCellValue(auditSheet, "A1", title); err != nil {
		return nil, err
	}

	header := []interface{}{"#", "Timestamp", "Actor", "Role", "Action", "From", "To", "Description"}
	rows := make([][]interface{}, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []interface{}{
			i + 1,
			entry.Timestamp.Format(dateLayout),
			entry.ActorID,
			entry.ActorRole,
			entry.Action,
			entry.FromStatus,
			entry.ToStatus,
			entry.Description,
		})
	}

	if err := writeTable(f, auditSheet, 3, header, rows); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(auditSheet, "B", "B", 18)
	_ = f.SetColWidth(auditSheet, "E", "G", 22)
	_ = f.SetColWidth(auditSheet, "H", "H", 60)

	return e.finish(f, "audit trail", len(entries))
}

// ExportClaimRegister renders a list of claims, one row each
func (e *ExcelExporter) ExportClaimRegister(claims []*entity.Claim) ([]byte, error) {
	f, err := newWorkbook(registerSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := []interface{}{
		"Claim number", "Supplier", "Area", "Damage amount", "Demand", "Status",
		"Entered", "Ops approved", "Legal approved", "Sent to supplier", "Feedback",
		"Supplier accepted", "Supplier response", "Rejection reason",
	}
	rows := make([][]interface{}, 0, len(claims))
	for _, c := range claims {
		rows = append(rows, []interface{}{
			c.ClaimNumber,
			c.SupplierID,
			c.Area,
			c.DamageAmount.InexactFloat64(),
			c.DemandType,
			c.Status,
			c.DateEntered.Format(dateLayout),
			formatOptionalTime(c.DateApproved),
			formatOptionalTime(c.DateLegalApproved),
			formatOptionalTime(c.DateSentToSupplier),
			formatOptionalTime(c.DateFeedback),
			formatTriState(c.AcceptedBySupplier),
			c.SupplierResponse,
			c.RejectionReason,
		})
	}

	if err := writeTable(f, registerSheet, 1, header, rows); err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr("#,##0.00")})
		if err != nil {
			return nil, fmt.Errorf("create money style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(4, len(rows)+1)
		if err := f.SetCellStyle(registerSheet, "D2", last, moneyStyle); err != nil {
			return nil, fmt.Errorf("apply money style: %w", err)
		}
	}
	_ = f.SetColWidth(registerSheet, "A", "A", 16)
	_ = f.SetColWidth(registerSheet, "G", "K", 18)
	_ = f.SetColWidth(registerSheet, "M", "N", 40)

	return e.finish(f, "claim register", len(claims))
}

func (e *ExcelExporter) finish(f *excelize.File, what string, rows int) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write %s workbook: %w", what, err)
	}
	e.logger.Info("Workbook rendered", zap.String("report", what), zap.Int("rows", rows), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	return f, nil
}

// writeTable writes a bold header at headerRow followed by the data rows
func writeTable(f *excelize.File, sheet string, headerRow int, header []interface{}, rows [][]interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	end, _ := excelize.CoordinatesToCellName(len(header), headerRow)
	if err := f.SetCellStyle(sheet, cell, end, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTriState(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "Yes"
	default:
		return "No"
	}
}

func stringPtr(s string) *string { return &s }

// SanitizeFileName keeps export file names filesystem- and header-safe
func SanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

var _ port.ReportExporter = (*ExcelExporter)(nil)
