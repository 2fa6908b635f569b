package report

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	ReportController *ReportController
	Config           *config.Config
}

func NewReportApi(reportController *ReportController, config *config.Config) *ReportApi {
	return &ReportApi{
		ReportController: reportController,
		Config:           config,
	}
}

func (api *ReportApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(api.Config.SkipAuth)
	admin := middleware.RequireAdmin()

	app.Get("/api/adjuster/dashboard/:adminId", auth, admin, api.ReportController.Dashboard)
	app.Get("/api/alerts/highrisk", auth, api.ReportController.HighRisk)
	app.Get("/api/metrics/workflows", auth, api.ReportController.WorkflowMetrics)
	app.Get("/api/reports/overdue-tasks", auth, admin, api.ReportController.Overdue)
}
