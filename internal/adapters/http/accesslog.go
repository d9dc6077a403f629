package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware emits one structured slog line per request after the
// handler chain completes. 4xx logs at warn, 5xx and handler errors at error.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []any{
			"method", method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(started).Milliseconds(),
			"bytes_out", len(c.Response().Body()),
			"request_id", c.Get(fiber.HeaderXRequestID, "unknown"),
		}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}

		msg := method + " " + path
		switch {
		case err != nil || status >= 500:
			slog.Error(msg, attrs...)
		case status >= 400:
			slog.Warn(msg, attrs...)
		default:
			slog.Info(msg, attrs...)
		}

		return err
	}
}
