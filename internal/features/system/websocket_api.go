package system

import (
	"go-claims/internal/config"
	"go-claims/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WebSocketApi struct {
	Controller *WebSocketController
	Config     *config.Config
}

func NewWebSocketApi(controller *WebSocketController, cfg *config.Config) *WebSocketApi {
	return &WebSocketApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (h *WebSocketApi) Setup(app *fiber.App) {
	app.Get("/api/ws/notifications",
		bearerFromQuery,
		middleware.AuthMiddleware(h.Config.SkipAuth),
		middleware.RequireCustomer(),
		upgradeOnly,
		websocket.New(h.Controller.HandleWebSocket),
	)
}

// bearerFromQuery lets browsers, which cannot set headers on a websocket
// handshake, pass the token as ?token=.
func bearerFromQuery(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		if token := c.Query("token"); token != "" {
			c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
	}
	return c.Next()
}

func upgradeOnly(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals(customerLocal, middleware.Claims(c).CustomerID)
	return c.Next()
}
