package handler

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/chat"
)

var (
	chatMu   sync.RWMutex
	chatSess *chat.Session
)

// SetChat swaps the active chat session. Handlers read it per request, so a
// credential-driven rebuild takes effect without touching the router.
func SetChat(s *chat.Session) {
	chatMu.Lock()
	chatSess = s
	chatMu.Unlock()
}

// Chat returns the active chat session.
func Chat() *chat.Session {
	chatMu.RLock()
	defer chatMu.RUnlock()
	return chatSess
}

// ListThreads serves the requested page of the thread list.
func ListThreads(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))

	if err := Chat().Threads().SetPage(c.Context(), page); err != nil {
		return c.JSON(fiber.Map{"status": false, "error": err.Error()})
	}

	threads, current, pages := Chat().Threads().Snapshot()
	return c.JSON(fiber.Map{
		"status": true,
		"data":   threads,
		"metadata": fiber.Map{
			"page":  current,
			"pages": pages,
		},
	})
}

// JoinThread selects a thread; the session leaves the previous room and
// loads the initial history window.
func JoinThread(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid thread id"})
	}

	if err := Chat().Join(c.Context(), id); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": true, "data": Chat().Snapshot()})
}

func LeaveThread(c *fiber.Ctx) error {
	Chat().Leave()
	return c.JSON(fiber.Map{"status": true})
}

func ListMessages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": true, "data": Chat().Snapshot()})
}

// ReportViewport records the scroll state the UI measured; the session loads
// older history when the view is near the top. The UI preserves its scroll
// position with chat.Viewport.PreservedScrollTop once the pane re-renders.
func ReportViewport(c *fiber.Ctx) error {
	var v chat.Viewport
	if err := c.BodyParser(&v); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid viewport"})
	}

	update, err := Chat().ReportViewport(c.Context(), v)
	if err != nil {
		return c.JSON(fiber.Map{"status": false, "error": err.Error(), "data": update})
	}
	return c.JSON(fiber.Map{"status": true, "data": update})
}

// SendReply submits an outbound reply. An empty body and a duplicate submit
// are client errors; a backend failure keeps the caller's input intact.
func SendReply(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid thread id"})
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid request body"})
	}

	switch err := Chat().SendReply(c.Context(), id, req.Body); err {
	case nil:
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": true})
	case chat.ErrEmptyReply, chat.ErrSendInFlight:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": err.Error()})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"status": false, "error": err.Error()})
	}
}
