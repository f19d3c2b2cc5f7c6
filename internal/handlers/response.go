package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/middleware"
	"github.com/moizayub1255/Tezaabi-Tottay/pkg/tmdb"
)

// writeError maps err to its status code and a {"success":false} body.
func writeError(c *fiber.Ctx, err error) error {
	status := apperror.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		logging.Error().Err(err).
			Str("path", c.Path()).
			Str("user_id", middleware.UserID(c)).
			Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": apperror.MessageOf(err),
	})
}

// writeUpstreamError answers an upstream 404 with an empty 404 and anything
// else with a generic 500.
func writeUpstreamError(c *fiber.Ctx, err error) error {
	if tmdb.IsNotFound(err) {
		c.Status(fiber.StatusNotFound)
		return nil
	}
	logging.Error().Err(err).Str("path", c.Path()).Msg("upstream catalog request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal Server Error",
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	logging.Debug().Err(err).Str("path", c.Path()).Msg("error parsing request body")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Invalid request body",
	})
}

// parseAndValidate decodes the body into req and runs its validate tags. When
// it returns false the error response has been written.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, invalidBody(c, err)
	}
	if err := v.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, writeError(c, apperror.Internal("failed to validate request", err))
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}
