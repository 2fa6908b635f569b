package notification

import (
	common_api "go-claims/internal/common/api"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct {
	service NotificationService
}

func NewNotificationController(service NotificationService) *NotificationController {
	return &NotificationController{
		service: service,
	}
}

// List godoc
// @Summary List the customer's notifications
// @Tags notifications
// @Produce json
// @Param status query string false "PENDING or READ"
// @Success 200 {object} map[string][]Notification
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *fiber.Ctx) error {
	customerID := middleware.Claims(ctx).CustomerID

	notifications, err := c.service.ListForCustomer(ctx.UserContext(), customerID, ctx.Query("status"))
	if err != nil {
		return common_api.Error(ctx, err, "Internal server error fetching notifications.")
	}
	return ctx.JSON(fiber.Map{"notifications": notifications})
}

// MarkAsRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/notifications/{id}/read [put]
func (c *NotificationController) MarkAsRead(ctx *fiber.Ctx) error {
	customerID := middleware.Claims(ctx).CustomerID

	if err := c.service.MarkRead(ctx.UserContext(), ctx.Params("id"), customerID); err != nil {
		return common_api.Error(ctx, err, "Internal server error updating notification.")
	}
	return ctx.JSON(fiber.Map{"message": "Notification marked as read."})
}
