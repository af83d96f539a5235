package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/session"
)

var Auth *session.Session

// UpdateCredential swaps the bearer credential the console uses against the
// backend. Session listeners rebuild whatever they derived from the old one,
// the chat connection in particular.
func UpdateCredential(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid request body"})
	}
	if req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "token is required"})
	}

	Auth.SetToken(req.Token)
	return c.JSON(fiber.Map{
		"status": true,
		"data": fiber.Map{
			"subject":    Auth.Subject(),
			"expires_at": Auth.ExpiresAt(),
		},
	})
}
