package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/pkg/i18n"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:     fiber.StatusBadRequest,
	domain.KindAuthentication: fiber.StatusUnauthorized,
	domain.KindAuthorization:  fiber.StatusForbidden,
	domain.KindNotFound:       fiber.StatusNotFound,
	domain.KindConflict:       fiber.StatusConflict,
	domain.KindRateLimited:    fiber.StatusTooManyRequests,
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	errorCode := string(domain.KindInternal)
	key := ""
	traceID := uuid.New().String()[:8]
	locale := c.AcceptsLanguages(i18n.Locales()...)
	if locale == "" {
		locale = i18n.DefaultLocale
	}
	message := i18n.Translate(locale, errorCode)

	var de *domain.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &de):
		if status, ok := kindStatus[de.Kind]; ok {
			code = status
			errorCode = string(de.Kind)
		}
		key = de.Key
		message = localize(locale, de)
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
		switch code {
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			errorCode = string(domain.KindValidation)
		case fiber.StatusUnauthorized:
			errorCode = string(domain.KindAuthentication)
		case fiber.StatusForbidden:
			errorCode = string(domain.KindAuthorization)
		case fiber.StatusNotFound:
			errorCode = string(domain.KindNotFound)
		case fiber.StatusConflict:
			errorCode = string(domain.KindConflict)
		case fiber.StatusTooManyRequests:
			errorCode = string(domain.KindRateLimited)
		}
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed", "trace_id", traceID, "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Code:    errorCode,
		Key:     key,
		Message: message,
		TraceID: traceID,
	})
}

func localize(locale string, de *domain.Error) string {
	if de.Key != "" {
		if msg := i18n.Translate(locale, de.Key); msg != de.Key {
			return msg
		}
	}
	if msg := i18n.Translate(locale, string(de.Kind)); msg != string(de.Kind) {
		return msg
	}
	return de.Message
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}
