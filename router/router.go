package router

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	mainapp "github.com/moalmobayed/barq-dashboard-sub001/app"
	handler "github.com/moalmobayed/barq-dashboard-sub001/internal/handler"
	"github.com/moalmobayed/barq-dashboard-sub001/internal/middleware"
)

func Setup() {
	app := fiber.New(fiber.Config{})
	app.Use(cors.New())
	app.Use(recover.New())
	setupRouter(app)
	port := mainapp.Config("WEB_PORT")
	if len(port) == 0 {
		port = "3636"
	}
	fmt.Println("port=", port)
	app.Listen(":" + port)
}

func setupRouter(fiber_app *fiber.App) {
	api := fiber_app.Group("/api", logger.New(), middleware.APIKeyAuth())

	api.Get("/test.json", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": true, "message": "Pong"})
	})

	// Notification feed
	api.Get("/notifications", handler.ListNotifications)
	api.Get("/notifications/unread-count", handler.UnreadCount)
	api.Post("/notifications", handler.SendNotification)
	api.Post("/notifications/:id/seen", handler.MarkSeen)

	// Push registration
	api.Post("/push/register", handler.RegisterPush)

	// Session credential
	api.Post("/session/token", handler.UpdateCredential)

	// Support chat
	api.Get("/chats", handler.ListThreads)
	api.Post("/chats/:id/join", handler.JoinThread)
	api.Post("/chats/leave", handler.LeaveThread)
	api.Get("/chats/messages", handler.ListMessages)
	api.Post("/chats/viewport", handler.ReportViewport)
	api.Post("/chats/:id/replies", handler.SendReply)
}
