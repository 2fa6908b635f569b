package policy

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PolicyApi struct {
	controller *PolicyController
	config     *config.Config
}

func NewPolicyApi(controller *PolicyController, config *config.Config) *PolicyApi {
	return &PolicyApi{
		controller: controller,
		config:     config,
	}
}

func (h *PolicyApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	customer := middleware.RequireCustomer()
	admin := middleware.RequireAdmin()

	// Routes share the /api prefix with other features, so middleware is
	// attached per route rather than through a prefix group.
	app.Get("/api/policy-catalog", auth, customer, h.controller.Catalog)
	app.Post("/api/quote", auth, customer, h.controller.Quote)
	app.Get("/api/my-policies", auth, customer, h.controller.ListMyPolicies)
	app.Post("/api/policies/purchase", auth, customer, h.controller.Purchase)
	app.Post("/api/policies/:policyId/mock-activate", auth, customer, h.controller.Activate)

	app.Get("/api/admin/pending-policies", auth, admin, h.controller.ListPending)
	app.Patch("/api/admin/policies/:policyId/approve", auth, admin, h.controller.Approve)
}
