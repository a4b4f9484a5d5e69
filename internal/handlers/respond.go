package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
)

var validate = validator.New()

// fail maps a domain error onto an HTTP response. The error kind rides
// along in the body so clients (and tests) can tell an authorization
// failure from a state-validity failure.
func fail(c *fiber.Ctx, err error) error {
	kind, ok := apperr.KindOf(err)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	status := fiber.StatusInternalServerError
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidOTP:
		status = fiber.StatusBadRequest
	case apperr.KindAuthorization:
		status = fiber.StatusForbidden
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindInvalidState, apperr.KindConflict:
		status = fiber.StatusConflict
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

// parseBody decodes and validates a request struct.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return apperr.Validation("%v", err)
	}
	return nil
}
