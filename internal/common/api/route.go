package api

import (
	"go-claims/internal/common/errs"

	"github.com/gofiber/fiber/v2"
)

// Route is implemented by every feature's Api struct; cmd/api collects them
// through the fx "routes" group and calls Setup on each.
type Route interface {
	Setup(app *fiber.App)
}

// Error writes err as {"error": msg} with the status its kind maps to.
// Errors outside the taxonomy are reported with fallback.
func Error(c *fiber.Ctx, err error, fallback string) error {
	return c.Status(errs.StatusCode(err)).JSON(fiber.Map{"error": errs.Message(err, fallback)})
}
