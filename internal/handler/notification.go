package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/feed"
	"github.com/moalmobayed/barq-dashboard-sub001/lib/rest"
)

// Feed is the controller instance the surface serves. It is injected at
// router setup.
var Feed *feed.Controller

type SendNotificationRequest struct {
	TitleAr   string `json:"title_ar"`
	TitleEn   string `json:"title_en"`
	ContentAr string `json:"content_ar"`
	ContentEn string `json:"content_en"`
}

// ListNotifications fetches the requested feed page and returns the
// controller state.
func ListNotifications(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))

	if err := Feed.Fetch(c.Context(), page); err != nil {
		return c.JSON(fiber.Map{"status": false, "error": err.Error()})
	}

	state := Feed.Snapshot()
	return c.JSON(fiber.Map{
		"status": true,
		"data":   state.Records,
		"meta":   state.Page,
	})
}

func UnreadCount(c *fiber.Ctx) error {
	if err := Feed.FetchUnreadCount(c.Context()); err != nil {
		return c.JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": true, "data": Feed.Snapshot().UnreadCount})
}

func MarkSeen(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid notification id"})
	}

	if err := Feed.MarkSeen(c.Context(), id); err != nil {
		return c.JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": true})
}

// SendNotification submits an outbound notification in both locales. A
// failure propagates so the caller's form keeps its state.
func SendNotification(c *fiber.Ctx) error {
	var req SendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid request body"})
	}

	if req.TitleAr == "" && req.TitleEn == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "title is required"})
	}

	err := Feed.Send(c.Context(), rest.SendNotificationRequest{
		TitleAr:   req.TitleAr,
		TitleEn:   req.TitleEn,
		ContentAr: req.ContentAr,
		ContentEn: req.ContentEn,
	})
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": true})
}
