package handler

import (
	"github.com/gofiber/fiber/v2"

	"linkbatch/internal/template"
)

// HealthCheck reports readiness: degraded when no platform template is
// resolvable yet (runs would fail until one is provisioned or uploaded).
func HealthCheck(reg *template.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		infos := reg.List()

		anyLoaded := false
		for _, info := range infos {
			if info.Loaded {
				anyLoaded = true
				break
			}
		}

		status := "healthy"
		code := fiber.StatusOK
		if !anyLoaded {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":    status,
			"templates": infos,
		})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
