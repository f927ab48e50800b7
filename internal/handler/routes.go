package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kisah-comments/internal/middleware"
	"kisah-comments/internal/service/auth"
)

func SetupRoutes(app *fiber.App, h *Handlers, authService auth.Service, limiter *middleware.WriteLimiter) {
	app.Get("/health", h.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	subjects := v1.Group("/subjects/:subjectId/comments")
	subjects.Get("/", middleware.OptionalAuth(authService), h.Comment.Tree)
	subjects.Post("/", middleware.AuthRequired(authService), middleware.RateLimitWrites(limiter), h.Comment.Create)

	protected := v1.Group("", middleware.AuthRequired(authService))

	comments := protected.Group("/comments")
	comments.Patch("/:commentId", middleware.RateLimitWrites(limiter), h.Comment.Update)
	comments.Delete("/:commentId", middleware.RateLimitWrites(limiter), h.Comment.Delete)
	comments.Post("/:commentId/like", middleware.RateLimitWrites(limiter), h.Comment.ToggleLike)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)

	audit := protected.Group("/audit")
	audit.Get("/recent", h.Audit.GetRecentActivities)
	audit.Get("/comments/:commentId", h.Audit.CommentHistory)
}
