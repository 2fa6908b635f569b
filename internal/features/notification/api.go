package notification

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) *NotificationApi {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireCustomer())

	group.Get("/", h.controller.List)
	group.Put("/:id/read", h.controller.MarkAsRead)
}
