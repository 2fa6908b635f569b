package system

import (
	"go-claims/internal/config"
	"go-claims/internal/metrics"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthApi struct {
	controller *HealthController
	metrics    *metrics.Metrics
	config     *config.Config
}

func NewHealthApi(controller *HealthController, m *metrics.Metrics, cfg *config.Config) *HealthApi {
	return &HealthApi{
		controller: controller,
		metrics:    m,
		config:     cfg,
	}
}

// Setup registers health, metrics and debug routes
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.controller.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))
	app.Get("/api/debug/me", middleware.AuthMiddleware(h.config.SkipAuth), h.controller.Me)
}
