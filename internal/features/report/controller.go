package report

import (
	"fmt"
	"time"

	common_api "go-claims/internal/common/api"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// Dashboard godoc
// @Summary Claims assigned to an adjuster
// @Tags reports
// @Produce json
// @Param adminId path string true "Admin ID"
// @Success 200 {object} Dashboard
// @Router /api/adjuster/dashboard/{adminId} [get]
func (c *ReportController) Dashboard(ctx *fiber.Ctx) error {
	dashboard, err := c.ReportService.AdjusterDashboard(ctx.UserContext(), ctx.Params("adminId"))
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching dashboard.")
	}
	return ctx.JSON(dashboard)
}

// HighRisk godoc
// @Summary High-risk claim alerts
// @Description Admins see every high-risk claim, customers only their own. Admins may pass format=xlsx.
// @Tags reports
// @Produce json
// @Param format query string false "json or xlsx"
// @Success 200 {object} map[string]interface{}
// @Router /api/alerts/highrisk [get]
func (c *ReportController) HighRisk(ctx *fiber.Ctx) error {
	claims := middleware.Claims(ctx)

	if claims.IsAdmin {
		if ctx.Query("format") == "xlsx" {
			sheet, err := c.ReportService.HighRiskSheet(ctx.UserContext())
			if err != nil {
				return common_api.Error(ctx, err, "Internal server error exporting high-risk claims.")
			}
			return c.sendSheet(ctx, sheet, "high_risk_claims")
		}
		highRisk, err := c.ReportService.HighRisk(ctx.UserContext(), "")
		if err != nil {
			return common_api.Error(ctx, err, "Internal server error fetching high-risk claims.")
		}
		return ctx.JSON(fiber.Map{"high_risk_claims": highRisk})
	}

	highRisk, err := c.ReportService.HighRisk(ctx.UserContext(), claims.CustomerID)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching high-risk claims.")
	}
	return ctx.JSON(fiber.Map{"high_risk_claims": highRisk})
}

// WorkflowMetrics godoc
// @Summary Claims per workflow and their average age
// @Tags reports
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/metrics/workflows [get]
func (c *ReportController) WorkflowMetrics(ctx *fiber.Ctx) error {
	claims := middleware.Claims(ctx)
	customerID := claims.CustomerID
	if claims.IsAdmin {
		customerID = ""
	}

	metrics, err := c.ReportService.WorkflowMetrics(ctx.UserContext(), customerID)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching metrics.")
	}
	return ctx.JSON(fiber.Map{"metrics": metrics})
}

// Overdue godoc
// @Summary Pending claims past their SLA
// @Tags reports
// @Produce json
// @Param format query string false "json or xlsx"
// @Success 200 {object} map[string]interface{}
// @Router /api/reports/overdue-tasks [get]
func (c *ReportController) Overdue(ctx *fiber.Ctx) error {
	if ctx.Query("format") == "xlsx" {
		sheet, err := c.ReportService.OverdueSheet(ctx.UserContext())
		if err != nil {
			return common_api.Error(ctx, err, "Internal server error exporting overdue tasks.")
		}
		return c.sendSheet(ctx, sheet, "overdue_tasks")
	}

	overdue, err := c.ReportService.Overdue(ctx.UserContext())
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching overdue tasks.")
	}
	return ctx.JSON(fiber.Map{"overdue_tasks": overdue})
}

func (c *ReportController) sendSheet(ctx *fiber.Ctx, sheet *Sheet, name string) error {
	filename := fmt.Sprintf("%s_%s", name, time.Now().UTC().Format("20060102_150405"))
	data, filename, err := c.ReportService.ExportToExcel(sheet, filename)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error exporting report.")
	}

	ctx.Set("Content-Type", xlsxContentType)
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}
