package engine

import (
	common_api "go-claims/internal/common/api"
	common_models "go-claims/internal/common/models"
	"go-claims/internal/features/audit"
	"go-claims/internal/features/scheduler"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EngineController struct {
	Executor     Executor
	Scheduler    scheduler.SchedulerService
	AuditService audit.AuditService
}

func NewEngineController(executor Executor, schedulerService scheduler.SchedulerService, auditService audit.AuditService) *EngineController {
	return &EngineController{
		Executor:     executor,
		Scheduler:    schedulerService,
		AuditService: auditService,
	}
}

// Advance godoc
// @Summary Run the claim's current workflow step now
// @Description Safe to repeat: a step that already completed is never run again.
// @Tags engine
// @Produce json
// @Param claimId path string true "Claim ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/admin/claims/{claimId}/advance [post]
func (c *EngineController) Advance(ctx *fiber.Ctx) error {
	claimID := ctx.Params("claimId")
	actor := middleware.Actor(ctx)

	err := c.Executor.Advance(ctx.UserContext(), claimID)
	c.AuditService.Record(ctx.UserContext(), actor, common_models.AuditActionClaimAdvanced, claimID, map[string]any{
		"success": err == nil,
	})
	if err != nil {
		return common_api.Error(ctx, err, "Workflow step failed; the claim's workflow has been halted.")
	}
	return ctx.JSON(fiber.Map{"message": "Workflow step executed for claim " + claimID + "."})
}

// ListTimers godoc
// @Summary List the durable timers recorded for a claim
// @Tags engine
// @Produce json
// @Param claimId path string true "Claim ID"
// @Success 200 {array} scheduler.Timer
// @Router /api/admin/claims/{claimId}/timers [get]
func (c *EngineController) ListTimers(ctx *fiber.Ctx) error {
	timers, err := c.Scheduler.ListForClaim(ctx.UserContext(), ctx.Params("claimId"))
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching timers.")
	}
	return ctx.JSON(timers)
}
