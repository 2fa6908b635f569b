package policy

import (
	common_api "go-claims/internal/common/api"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PolicyController struct {
	Service PolicyService
}

func NewPolicyController(service PolicyService) *PolicyController {
	return &PolicyController{Service: service}
}

// Catalog godoc
// @Summary List purchasable policy products
// @Tags policies
// @Produce json
// @Success 200 {array} Product
// @Router /api/policy-catalog [get]
func (c *PolicyController) Catalog(ctx *fiber.Ctx) error {
	return ctx.JSON(c.Service.Catalog())
}

// ListMyPolicies godoc
// @Summary List the customer's policies
// @Tags policies
// @Produce json
// @Success 200 {array} Policy
// @Router /api/my-policies [get]
func (c *PolicyController) ListMyPolicies(ctx *fiber.Ctx) error {
	policies, err := c.Service.ListCustomerPolicies(ctx.UserContext(), middleware.Claims(ctx).CustomerID)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching policies.")
	}
	return ctx.JSON(policies)
}

// Purchase godoc
// @Summary Buy a policy
// @Tags policies
// @Accept json
// @Produce json
// @Param policy body PurchaseInput true "Purchase"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/policies/purchase [post]
func (c *PolicyController) Purchase(ctx *fiber.Ctx) error {
	var input PurchaseInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	p, err := c.Service.Purchase(ctx.UserContext(), middleware.Claims(ctx).CustomerID, input)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error purchasing policy.")
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Policy created and linked to your account. Please activate it to start coverage.",
		"policy":  p,
	})
}

// Quote godoc
// @Summary Price a catalog product for a date of birth
// @Tags policies
// @Accept json
// @Produce json
// @Param quote body QuoteInput true "Quote"
// @Success 200 {object} Quote
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/quote [post]
func (c *PolicyController) Quote(ctx *fiber.Ctx) error {
	var input QuoteInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	q, err := c.Service.Quote(input)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error during quote generation.")
	}
	return ctx.JSON(q)
}

// Activate godoc
// @Summary Activate a policy with a mock payment
// @Tags policies
// @Produce json
// @Param policyId path string true "Policy ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/policies/{policyId}/mock-activate [post]
func (c *PolicyController) Activate(ctx *fiber.Ctx) error {
	payment, err := c.Service.Activate(ctx.UserContext(), ctx.Params("policyId"), middleware.Claims(ctx).CustomerID)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error during policy activation.")
	}
	return ctx.JSON(fiber.Map{
		"message":        "Policy activated successfully (mock payment)!",
		"paymentId":      payment.ID,
		"transaction_id": payment.TransactionID,
	})
}

// ListPending godoc
// @Summary List policies waiting for approval
// @Tags policies
// @Produce json
// @Success 200 {array} Policy
// @Router /api/admin/pending-policies [get]
func (c *PolicyController) ListPending(ctx *fiber.Ctx) error {
	policies, err := c.Service.ListPendingPolicies(ctx.UserContext())
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching pending policies.")
	}
	return ctx.JSON(policies)
}

// Approve godoc
// @Summary Approve a policy (initial or final)
// @Tags policies
// @Produce json
// @Param policyId path string true "Policy ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/admin/policies/{policyId}/approve [patch]
func (c *PolicyController) Approve(ctx *fiber.Ctx) error {
	claims := middleware.Claims(ctx)

	newStatus, err := c.Service.Approve(ctx.UserContext(), ctx.Params("policyId"), claims.AdminID, claims.Role)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error during policy approval.")
	}
	return ctx.JSON(fiber.Map{
		"message":  "Policy approval status updated successfully!",
		"newState": newStatus,
	})
}
