package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kisah-comments/internal/middleware"
	"kisah-comments/internal/service/audit"
)

type AuditHandler struct {
	auditService audit.Service
}

func NewAuditHandler(auditService audit.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) GetRecentActivities(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	logs, err := h.auditService.GetRecentActivities(c.UserContext(), limit)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(logs)
}

// CommentHistory lists the edits and deletion recorded for one comment.
func (h *AuditHandler) CommentHistory(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Params("commentId"))
	if err != nil {
		return middleware.BadRequest("Invalid comment ID")
	}

	result, err := h.auditService.ListByComment(c.UserContext(), commentID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
