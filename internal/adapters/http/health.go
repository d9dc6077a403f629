package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler reports readiness. State is process-local, so readiness only
// requires the services to be wired.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks := make(map[string]string)
		allOK := true

		if deps.Plans != nil {
			checks["plans"] = "ok"
		} else {
			checks["plans"] = "not configured"
			allOK = false
		}
		if deps.Reports != nil {
			checks["reports"] = "ok"
		} else {
			checks["reports"] = "not configured"
			allOK = false
		}
		if deps.Progress != nil {
			checks["progress"] = "ok"
		} else {
			checks["progress"] = "not configured"
			allOK = false
		}

		status := "ready"
		code := 200
		if !allOK {
			status = "not ready"
			code = 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
