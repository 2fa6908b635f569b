package claim

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ClaimApi struct {
	controller *ClaimController
	config     *config.Config
}

func NewClaimApi(controller *ClaimController, config *config.Config) *ClaimApi {
	return &ClaimApi{
		controller: controller,
		config:     config,
	}
}

func (h *ClaimApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	myClaims := app.Group("/api/my-claims", auth, middleware.RequireCustomer())
	myClaims.Post("/", h.controller.FileClaim)
	myClaims.Get("/", h.controller.ListMyClaims)
	myClaims.Get("/:claimId", h.controller.GetMyClaim)

	admin := middleware.RequireAdmin()
	app.Get("/api/admin/pending-claims", auth, admin, h.controller.ListPending)
	app.Get("/api/admin/claims/:claimId", auth, admin, h.controller.GetClaim)
	app.Patch("/api/admin/claims/:claimId", auth, admin, h.controller.Decide)
}
