package engine

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EngineApi struct {
	controller *EngineController
	config     *config.Config
}

func NewEngineApi(controller *EngineController, config *config.Config) *EngineApi {
	return &EngineApi{
		controller: controller,
		config:     config,
	}
}

func (h *EngineApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	admin := middleware.RequireAdmin()

	app.Post("/api/admin/claims/:claimId/advance", auth, admin, h.controller.Advance)
	app.Get("/api/admin/claims/:claimId/timers", auth, admin, h.controller.ListTimers)
}
