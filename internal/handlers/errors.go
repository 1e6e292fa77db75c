package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

// ErrorHandler renders every error as a structured payload. Business
// errors carry their class to an HTTP status; anything unclassified is an
// internal error whose detail stays in the logs.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"error":   fiberErr.Message,
		})
	}

	if class, ok := services.ClassOf(err); ok {
		return c.Status(statusForClass(class)).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal server error",
	})
}

func statusForClass(class services.ErrorClass) int {
	switch class {
	case services.ClassNotFound:
		return fiber.StatusNotFound
	case services.ClassPermission:
		return fiber.StatusForbidden
	case services.ClassGateway:
		return fiber.StatusInternalServerError
	default:
		// Validation, conflict and state errors are all client errors.
		return fiber.StatusBadRequest
	}
}
