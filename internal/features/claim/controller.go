package claim

import (
	common_api "go-claims/internal/common/api"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ClaimController struct {
	Service ClaimService
}

func NewClaimController(service ClaimService) *ClaimController {
	return &ClaimController{Service: service}
}

// FileClaim godoc
// @Summary File a claim against one of the customer's policies
// @Tags claims
// @Accept json
// @Produce json
// @Param claim body FileClaimInput true "Claim"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/my-claims [post]
func (c *ClaimController) FileClaim(ctx *fiber.Ctx) error {
	var input FileClaimInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	claim, err := c.Service.FileClaim(ctx.UserContext(), middleware.Claims(ctx).CustomerID, input)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error filing claim.")
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Claim filed successfully!",
		"claim_id": claim.ID,
	})
}

// ListMyClaims godoc
// @Summary List the customer's claims
// @Tags claims
// @Produce json
// @Success 200 {array} Claim
// @Router /api/my-claims [get]
func (c *ClaimController) ListMyClaims(ctx *fiber.Ctx) error {
	claims, err := c.Service.ListCustomerClaims(ctx.UserContext(), middleware.Claims(ctx).CustomerID)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching claims.")
	}
	return ctx.JSON(claims)
}

// GetMyClaim godoc
// @Summary Get one of the customer's claims with its status log
// @Tags claims
// @Produce json
// @Param claimId path string true "Claim ID"
// @Success 200 {object} Claim
// @Failure 404 {object} map[string]string
// @Router /api/my-claims/{claimId} [get]
func (c *ClaimController) GetMyClaim(ctx *fiber.Ctx) error {
	claim, err := c.Service.GetClaim(ctx.UserContext(), ctx.Params("claimId"))
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching claim.")
	}
	if claim.CustomerID != middleware.Claims(ctx).CustomerID {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Claim not found."})
	}
	return ctx.JSON(claim)
}

// ListPending godoc
// @Summary List claims waiting for a decision
// @Tags claims
// @Produce json
// @Success 200 {array} Claim
// @Router /api/admin/pending-claims [get]
func (c *ClaimController) ListPending(ctx *fiber.Ctx) error {
	claims, err := c.Service.ListPendingClaims(ctx.UserContext())
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching pending claims.")
	}
	return ctx.JSON(claims)
}

// GetClaim godoc
// @Summary Get a claim with its status log
// @Tags claims
// @Produce json
// @Param claimId path string true "Claim ID"
// @Success 200 {object} Claim
// @Failure 404 {object} map[string]string
// @Router /api/admin/claims/{claimId} [get]
func (c *ClaimController) GetClaim(ctx *fiber.Ctx) error {
	claim, err := c.Service.GetClaim(ctx.UserContext(), ctx.Params("claimId"))
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching claim.")
	}
	return ctx.JSON(claim)
}

// Decide godoc
// @Summary Approve or decline a pending claim
// @Tags claims
// @Accept json
// @Produce json
// @Param claimId path string true "Claim ID"
// @Param decision body DecisionInput true "Decision"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/admin/claims/{claimId} [patch]
func (c *ClaimController) Decide(ctx *fiber.Ctx) error {
	var input DecisionInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	claimID := ctx.Params("claimId")
	if err := c.Service.DecideClaim(ctx.UserContext(), claimID, middleware.Claims(ctx).AdminID, input.NewStatus); err != nil {
		return common_api.Error(ctx, err, "Internal server error updating claim status.")
	}
	return ctx.JSON(fiber.Map{
		"message": "Claim " + claimID + " status updated to " + string(input.NewStatus) + ".",
	})
}
