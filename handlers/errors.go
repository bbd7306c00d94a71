package handlers

import (
	"errors"

	"github.com/anjiri1684/safari_travel/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// serviceError maps domain errors onto HTTP responses: validation 400,
// guard conflicts 409 naming the failed guard, unknown bookings 404,
// transient failures 503 so callers know to retry.
func serviceError(c *fiber.Ctx, err error) error {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Message})
	}

	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": conflict.Guard})
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	var transient *services.TransientError
	if errors.As(err, &transient) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Temporary failure, please retry"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
