package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/metrics"
)

// RequestLogger writes one structured line per request and records request
// metrics. It must run after requestid.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		route := c.Route().Path
		metrics.RecordAPIRequest(c.Method(), route, status, elapsed)

		event := logging.Info()
		if status >= fiber.StatusInternalServerError {
			event = logging.Error().Err(err)
		}
		event.
			Interface("request_id", c.Locals(requestid.ConfigDefault.ContextKey)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", c.IP()).
			Msg("request")
		return err
	}
}
