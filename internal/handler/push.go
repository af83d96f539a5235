package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moalmobayed/barq-dashboard-sub001/lib/push"
)

var Registrar *push.Registrar

// RegisterPush obtains the push token, prompting the user only when the UI
// asked for it. An empty token is a valid outcome: permission still
// undecided, denied, or an unsupported transport. None of those are errors
// for the caller.
func RegisterPush(c *fiber.Ctx) error {
	var req struct {
		Prompt bool `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid request body"})
	}

	token, err := Registrar.ObtainToken(c.Context(), req.Prompt)
	if err != nil {
		return c.JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": true, "data": fiber.Map{"token": token, "enabled": token != ""}})
}
