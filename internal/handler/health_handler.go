package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// HealthChecker pings one dependency. A nil error means healthy.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckerFunc adapts a plain ping function.
type HealthCheckerFunc func(ctx context.Context) error

func (f HealthCheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// RegisterHealthRoutes installs liveness and readiness probes. checks maps a
// dependency name to its checker; optional dependencies (redis, rabbitmq)
// are simply omitted from the map.
func RegisterHealthRoutes(app fiber.Router, checks map[string]HealthChecker) {
	app.Get("/livez", LivezHandler())
	app.Get("/readyz", ReadyzHandler(checks))
}

func LivezHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}
}

func ReadyzHandler(checks map[string]HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
		defer cancel()

		results := fiber.Map{}
		ready := true
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				results[name] = "down"
				ready = false
				continue
			}
			results[name] = "ok"
		}

		status := "ready"
		statusCode := fiber.StatusOK
		if !ready {
			status = "not_ready"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	}
}
