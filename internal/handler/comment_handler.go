package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/middleware"
	"kisah-comments/internal/service/comment"
)

type CommentHandler struct {
	commentService comment.Service
}

func NewCommentHandler(commentService comment.Service) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) Tree(c *fiber.Ctx) error {
	subjectID, err := uuid.Parse(c.Params("subjectId"))
	if err != nil {
		return middleware.BadRequest("Invalid subject ID")
	}

	nodes, err := h.commentService.Tree(c.UserContext(), subjectID, middleware.GetCurrentUserID(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(nodes)
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	subjectID, err := uuid.Parse(c.Params("subjectId"))
	if err != nil {
		return middleware.BadRequest("Invalid subject ID")
	}

	var input domain.CreateCommentInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	node, err := h.commentService.Post(c.UserContext(), middleware.GetCurrentUserID(c), subjectID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *CommentHandler) Update(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Params("commentId"))
	if err != nil {
		return middleware.BadRequest("Invalid comment ID")
	}

	var input domain.UpdateCommentInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.commentService.Edit(c.UserContext(), middleware.GetCurrentUserID(c), commentID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Params("commentId"))
	if err != nil {
		return middleware.BadRequest("Invalid comment ID")
	}

	result, err := h.commentService.Delete(c.UserContext(), middleware.GetCurrentUserID(c), commentID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CommentHandler) ToggleLike(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Params("commentId"))
	if err != nil {
		return middleware.BadRequest("Invalid comment ID")
	}

	result, err := h.commentService.ToggleLike(c.UserContext(), middleware.GetCurrentUserID(c), commentID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
