package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "github.com/Demandflow/DemandSync/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	// Inbound from the external tracker; authenticated by body signature.
	e.POST("/api/webhooks/tracker", h.HandleWebhook)

	e.POST("/api/tasks", h.CreateTask)
	e.GET("/api/tasks", h.ListTasks)
	e.GET("/api/tasks/:id", h.GetTask)
	e.PATCH("/api/tasks/:id", h.UpdateTask)
	e.DELETE("/api/tasks/:id", h.DeleteTask)
	e.POST("/api/tasks/:id/comments", h.AddComment)
	e.POST("/api/tasks/:id/push", h.PushTask)

	e.POST("/api/organizations/:id/sync", h.SyncBoard)
	e.POST("/api/mappings", h.RegisterMapping)
}
