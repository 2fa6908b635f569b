package workflow

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WorkflowApi struct {
	controller *WorkflowController
	config     *config.Config
}

func NewWorkflowApi(controller *WorkflowController, config *config.Config) *WorkflowApi {
	return &WorkflowApi{
		controller: controller,
		config:     config,
	}
}

func (h *WorkflowApi) Setup(app *fiber.App) {
	workflows := app.Group("/api/admin/workflows", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireAdmin())

	workflows.Get("/", h.controller.ListWorkflows)
	workflows.Post("/", h.controller.CreateWorkflow)
	workflows.Get("/:workflowId", h.controller.GetWorkflow)
	workflows.Put("/:workflowId", h.controller.UpdateWorkflow)
	workflows.Delete("/:workflowId", h.controller.DeleteWorkflow)

	workflows.Get("/:workflowId/steps", h.controller.ListSteps)
	workflows.Post("/:workflowId/steps", h.controller.AddStep)
	workflows.Put("/:workflowId/steps/:stepId", h.controller.UpdateStep)
	workflows.Delete("/:workflowId/steps/:stepId", h.controller.DeleteStep)
}
