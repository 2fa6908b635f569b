package audit

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/admin/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireAdmin())

	audit.Get("/", h.controller.ListLogs)
}
