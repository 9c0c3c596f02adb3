package logger

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const localsKey = "logger"

// Middleware logs one line per request and exposes a request-scoped logger via FromCtx.
// 5xx lines carry the full error chain; this is the only place they are logged.
// It expects the requestid middleware to run first.
func Middleware(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqLog := base.With().Str("request_id", requestID(c)).Logger()
		c.Locals(localsKey, reqLog)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		ev := reqLog.Info()
		if status >= fiber.StatusInternalServerError {
			ev = reqLog.Error().Err(err)
		}
		if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
			ev = ev.Str("user_id", uid)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.IP()).
			Msg("http request")

		return err
	}
}

// FromCtx returns the request logger, or a disabled logger outside Middleware.
func FromCtx(c *fiber.Ctx) zerolog.Logger {
	if l, ok := c.Locals(localsKey).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

func requestID(c *fiber.Ctx) string {
	if v, ok := c.Locals("requestid").(string); ok && v != "" {
		return v
	}
	return c.Get(fiber.HeaderXRequestID)
}
