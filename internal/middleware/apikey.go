package middleware

import (
	"os"

	"github.com/gofiber/fiber/v2"
)

// APIKeyAuth guards the local surface so only the dashboard build holding
// the console key can drive the agent.
func APIKeyAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get("X-API-KEY")
		expectedAPIKey := os.Getenv("CONSOLE_API_KEY")

		if expectedAPIKey == "" {
			// No key configured: local development, surface stays open.
			return c.Next()
		}
		if apiKey == "" || apiKey != expectedAPIKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": false, "error": "unauthorized"})
		}

		return c.Next()
	}
}
