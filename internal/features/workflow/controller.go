package workflow

import (
	common_api "go-claims/internal/common/api"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WorkflowController struct {
	Service WorkflowService
}

func NewWorkflowController(service WorkflowService) *WorkflowController {
	return &WorkflowController{Service: service}
}

// ListWorkflows godoc
// @Summary List workflow definitions
// @Tags workflows
// @Produce json
// @Success 200 {array} Definition
// @Router /api/admin/workflows [get]
func (c *WorkflowController) ListWorkflows(ctx *fiber.Ctx) error {
	defs, err := c.Service.ListDefinitions(ctx.UserContext())
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching workflows.")
	}
	return ctx.JSON(defs)
}

// GetWorkflow godoc
// @Summary Get a workflow with its steps
// @Tags workflows
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Success 200 {object} Definition
// @Failure 404 {object} map[string]string
// @Router /api/admin/workflows/{workflowId} [get]
func (c *WorkflowController) GetWorkflow(ctx *fiber.Ctx) error {
	def, err := c.Service.GetDefinition(ctx.UserContext(), ctx.Params("workflowId"))
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching workflow.")
	}
	return ctx.JSON(def)
}

// ListSteps godoc
// @Summary List the steps of a workflow
// @Tags workflows
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Success 200 {array} Step
// @Router /api/admin/workflows/{workflowId}/steps [get]
func (c *WorkflowController) ListSteps(ctx *fiber.Ctx) error {
	steps, err := c.Service.ListSteps(ctx.UserContext(), ctx.Params("workflowId"))
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching workflow steps.")
	}
	return ctx.JSON(steps)
}

// CreateWorkflow godoc
// @Summary Create a workflow
// @Tags workflows
// @Accept json
// @Produce json
// @Param workflow body DefinitionInput true "Workflow"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/admin/workflows [post]
func (c *WorkflowController) CreateWorkflow(ctx *fiber.Ctx) error {
	var input DefinitionInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	def, err := c.Service.CreateDefinition(ctx.UserContext(), middleware.Actor(ctx), input)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error creating workflow.")
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Workflow created successfully!", "workflow_id": def.ID})
}

// UpdateWorkflow godoc
// @Summary Update workflow name and description
// @Tags workflows
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param workflow body DefinitionInput true "Workflow"
// @Success 200 {object} map[string]string
// @Router /api/admin/workflows/{workflowId} [put]
func (c *WorkflowController) UpdateWorkflow(ctx *fiber.Ctx) error {
	id := ctx.Params("workflowId")
	var input DefinitionInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.UpdateDefinition(ctx.UserContext(), middleware.Actor(ctx), id, input); err != nil {
		return common_api.Error(ctx, err, "Internal server error updating workflow.")
	}
	return ctx.JSON(fiber.Map{"message": "Workflow " + id + " updated successfully."})
}

// DeleteWorkflow godoc
// @Summary Delete a workflow and its steps
// @Tags workflows
// @Param workflowId path string true "Workflow ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string "Workflow still assigned to claims"
// @Router /api/admin/workflows/{workflowId} [delete]
func (c *WorkflowController) DeleteWorkflow(ctx *fiber.Ctx) error {
	id := ctx.Params("workflowId")
	if err := c.Service.DeleteDefinition(ctx.UserContext(), middleware.Actor(ctx), id); err != nil {
		return common_api.Error(ctx, err, "Internal server error deleting workflow.")
	}
	return ctx.JSON(fiber.Map{"message": "Workflow " + id + " and its steps deleted successfully."})
}

// AddStep godoc
// @Summary Add a step to a workflow
// @Tags workflows
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param step body StepInput true "Step"
// @Success 201 {object} map[string]string
// @Failure 409 {object} map[string]string "Step order already used"
// @Router /api/admin/workflows/{workflowId}/steps [post]
func (c *WorkflowController) AddStep(ctx *fiber.Ctx) error {
	var input StepInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	step, err := c.Service.AddStep(ctx.UserContext(), middleware.Actor(ctx), ctx.Params("workflowId"), input)
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error adding workflow step.")
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Workflow step added successfully!", "step_id": step.ID})
}

// UpdateStep godoc
// @Summary Update a workflow step
// @Tags workflows
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param stepId path string true "Step ID"
// @Param step body StepInput true "Step"
// @Success 200 {object} map[string]string
// @Router /api/admin/workflows/{workflowId}/steps/{stepId} [put]
func (c *WorkflowController) UpdateStep(ctx *fiber.Ctx) error {
	stepID := ctx.Params("stepId")
	var input StepInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.UpdateStep(ctx.UserContext(), middleware.Actor(ctx), ctx.Params("workflowId"), stepID, input); err != nil {
		return common_api.Error(ctx, err, "Internal server error updating workflow step.")
	}
	return ctx.JSON(fiber.Map{"message": "Workflow step " + stepID + " updated successfully."})
}

// DeleteStep godoc
// @Summary Delete a workflow step
// @Tags workflows
// @Param workflowId path string true "Workflow ID"
// @Param stepId path string true "Step ID"
// @Success 200 {object} map[string]string
// @Router /api/admin/workflows/{workflowId}/steps/{stepId} [delete]
func (c *WorkflowController) DeleteStep(ctx *fiber.Ctx) error {
	stepID := ctx.Params("stepId")
	if err := c.Service.DeleteStep(ctx.UserContext(), middleware.Actor(ctx), ctx.Params("workflowId"), stepID); err != nil {
		return common_api.Error(ctx, err, "Internal server error deleting workflow step.")
	}
	return ctx.JSON(fiber.Map{"message": "Workflow step " + stepID + " deleted successfully."})
}
