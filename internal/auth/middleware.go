package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// Middleware requires a valid Bearer token and stores the caller id in c.Locals("user_id").
func Middleware(issuer *Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		uid, err := issuer.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userIDKey, uid.String())
		return c.Next()
	}
}

// UserID returns the authenticated caller set by Middleware.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	raw, ok := c.Locals(userIDKey).(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, false
	}
	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return uid, true
}

// MustUserID is UserID for handlers mounted behind Middleware.
func MustUserID(c *fiber.Ctx) (uuid.UUID, error) {
	uid, ok := UserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return uid, nil
}
