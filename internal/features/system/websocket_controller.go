package system

import (
	"go-claims/internal/features/notification"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// customerLocal carries the authenticated customer id across the upgrade.
const customerLocal = "ws_customer_id"

type WebSocketController struct {
	Hub    *notification.Hub
	logger *zap.Logger
}

func NewWebSocketController(hub *notification.Hub, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{Hub: hub, logger: logger}
}

// HandleWebSocket keeps a customer's socket registered with the hub until
// the client goes away. Incoming messages are ignored.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	customerID, _ := c.Locals(customerLocal).(string)
	unregister := h.Hub.Register(customerID, c)
	defer unregister()

	h.logger.Debug("Notification socket opened", zap.String("customerId", customerID))
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			h.logger.Debug("Notification socket closed", zap.String("customerId", customerID), zap.Error(err))
			return
		}
	}
}

