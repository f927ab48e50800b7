package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/service/auth"
)

const (
	UserIDContextKey    = "user_id"
	UserEmailContextKey = "user_email"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func authenticate(c *fiber.Ctx, authService auth.Service) error {
	token, ok := bearerToken(c)
	if !ok {
		return domain.ErrUnauthenticated
	}

	claims, err := authService.ValidateAccessToken(token)
	if err != nil {
		return err
	}

	c.Locals(UserIDContextKey, claims.UserID)
	c.Locals(UserEmailContextKey, claims.Email)
	return nil
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(authService auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, authService); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuth identifies the viewer when a token is present. A missing
// header is anonymous; a bad token is still rejected.
func OptionalAuth(authService auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		if err := authenticate(c, authService); err != nil {
			return err
		}
		return c.Next()
	}
}

// GetCurrentUserID returns uuid.Nil for anonymous requests.
func GetCurrentUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals(UserIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}
