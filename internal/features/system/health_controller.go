package system

import (
	"context"
	"time"

	"go-claims/internal/database"
	"go-claims/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	SQL   *database.SQLDB
	Mongo *database.MongodbDB
}

func NewHealthController(sqlDB *database.SQLDB, mongodb *database.MongodbDB) *HealthController {
	return &HealthController{SQL: sqlDB, Mongo: mongodb}
}

// Health godoc
// @Summary      Liveness and store reachability
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (c *HealthController) Health(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.Map{"status": "ok", "sql": "ok", "mongo": "ok"}
	code := fiber.StatusOK
	if err := c.SQL.DB.PingContext(pingCtx); err != nil {
		status["sql"] = err.Error()
		status["status"] = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	if err := c.Mongo.DB.Client().Ping(pingCtx, nil); err != nil {
		status["mongo"] = err.Error()
		status["status"] = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return ctx.Status(code).JSON(status)
}

// Me godoc
// @Summary      Current actor
// @Description  The identity the bearer token resolves to
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/debug/me [get]
func (c *HealthController) Me(ctx *fiber.Ctx) error {
	claims := middleware.Claims(ctx)
	return ctx.JSON(fiber.Map{
		"actor":       middleware.Actor(ctx),
		"customer_id": claims.CustomerID,
		"admin_id":    claims.AdminID,
		"role":        claims.Role,
		"is_admin":    claims.IsAdmin,
	})
}
