package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-claims/internal/features/claim"

	"github.com/xuri/excelize/v2"
)

type ReportService interface {
	AdjusterDashboard(ctx context.Context, adminID string) (*Dashboard, error)
	// HighRisk lists every high-risk claim when customerID is empty.
	HighRisk(ctx context.Context, customerID string) ([]claim.Claim, error)
	WorkflowMetrics(ctx context.Context, customerID string) ([]claim.WorkflowMetric, error)
	Overdue(ctx context.Context) ([]claim.OverdueClaim, error)

	OverdueSheet(ctx context.Context) (*Sheet, error)
	HighRiskSheet(ctx context.Context) (*Sheet, error)
	ExportToExcel(sheet *Sheet, filename string) ([]byte, string, error)
}

type ReportServiceImpl struct {
	ClaimService claim.ClaimService
}

func NewReportService(claimService claim.ClaimService) ReportService {
	return &ReportServiceImpl{ClaimService: claimService}
}

func (s *ReportServiceImpl) AdjusterDashboard(ctx context.Context, adminID string) (*Dashboard, error) {
	claims, err := s.ClaimService.ListAssignedClaims(ctx, adminID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{AdminID: adminID, AssignedClaims: claims}
	for _, c := range claims {
		if c.Status == claim.StatusPending {
			d.PendingCount++
		}
	}
	return d, nil
}

func (s *ReportServiceImpl) HighRisk(ctx context.Context, customerID string) ([]claim.Claim, error) {
	return s.ClaimService.HighRiskClaims(ctx, customerID)
}

func (s *ReportServiceImpl) WorkflowMetrics(ctx context.Context, customerID string) ([]claim.WorkflowMetric, error) {
	return s.ClaimService.WorkflowMetrics(ctx, customerID)
}

func (s *ReportServiceImpl) Overdue(ctx context.Context) ([]claim.OverdueClaim, error) {
	return s.ClaimService.OverdueClaims(ctx)
}

func (s *ReportServiceImpl) OverdueSheet(ctx context.Context) (*Sheet, error) {
	overdue, err := s.Overdue(ctx)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{
		Name: "Overdue Tasks",
		Columns: []Column{
			{"Claim ID", 44}, {"Workflow", 22}, {"Step", 52}, {"Assigned To", 20},
			{"Customer ID", 22}, {"Amount", 14}, {"Filed", 20}, {"Hours Overdue", 14},
		},
	}
	for _, o := range overdue {
		sheet.Rows = append(sheet.Rows, []any{
			o.ClaimID, o.WorkflowID, o.StepName, o.AssignedTo, o.CustomerID, o.Amount, o.FiledAt, o.HoursOverdue,
		})
	}
	return sheet, nil
}

func (s *ReportServiceImpl) HighRiskSheet(ctx context.Context) (*Sheet, error) {
	claims, err := s.HighRisk(ctx, "")
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{
		Name: "High Risk Claims",
		Columns: []Column{
			{"Claim ID", 44}, {"Customer ID", 22}, {"Policy ID", 44}, {"Amount", 14},
			{"Risk Score", 12}, {"Status", 12}, {"Filed", 20},
		},
	}
	for _, c := range claims {
		sheet.Rows = append(sheet.Rows, []any{
			c.ID, c.CustomerID, c.PolicyID, c.Amount, c.RiskScore, string(c.Status), c.FiledAt,
		})
	}
	return sheet, nil
}

func (s *ReportServiceImpl) ExportToExcel(sheet *Sheet, filename string) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := sheet.Name
	if sheetName == "" {
		sheetName = "Report"
	}
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", err
	}

	for i, col := range sheet.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col.Header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		name, _ := excelize.ColumnNumberToName(i + 1)
		width := col.Width
		if width == 0 {
			width = 15
		}
		f.SetColWidth(sheetName, name, name, width)
	}

	for rowIdx, row := range sheet.Rows {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			switch v := val.(type) {
			case time.Time:
				f.SetCellValue(sheetName, cell, v.Format("2006-01-02 15:04:05"))
			case *int:
				if v != nil {
					f.SetCellValue(sheetName, cell, *v)
				}
			default:
				f.SetCellValue(sheetName, cell, v)
			}
		}
	}

	if len(sheet.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(sheet.Columns))
		if err := f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", last, len(sheet.Rows)+1), nil); err != nil {
			return nil, "", err
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	xlsxFilename := filename
	if !strings.HasSuffix(xlsxFilename, ".xlsx") {
		xlsxFilename += ".xlsx"
	}
	return buffer.Bytes(), xlsxFilename, nil
}
