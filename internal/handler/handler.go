package handler

import (
	"github.com/gofiber/fiber/v2"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/service"
)

type Handlers struct {
	Comment      *CommentHandler
	Audit        *AuditHandler
	Notification *NotificationHandler
	Health       *HealthHandler
}

func NewHandlers(services *service.Services, checks ...HealthCheck) *Handlers {
	return &Handlers{
		Comment:      NewCommentHandler(services.Comment),
		Audit:        NewAuditHandler(services.Audit),
		Notification: NewNotificationHandler(services.Notification),
		Health:       NewHealthHandler(checks...),
	}
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.DefaultPagination()

	if page := c.QueryInt("page", 1); page > 0 {
		params.Page = page
	}
	if pageSize := c.QueryInt("page_size", 20); pageSize > 0 {
		params.PageSize = pageSize
	}

	params.Validate()
	return params
}
