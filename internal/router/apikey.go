package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

var publicPaths = map[string]bool{
	"/":                   true,
	"/health":             true,
	"/healthz":            true,
	"/api/auth/signup":    true,
	"/api/auth/login":     true,
	"/api/admin/overview": true,
}

// APIKeyMiddleware lets Bearer (browser) calls through and requires X-API-Key
// from everyone else. Outside production a missing API_KEY disables the check.
func APIKeyMiddleware(expected string, production bool) fiber.Handler {
	expected = strings.TrimSpace(expected)

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		path := strings.ToLower(strings.TrimSuffix(c.Path(), "/"))
		if path == "" {
			path = "/"
		}
		if publicPaths[path] {
			return c.Next()
		}

		authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			return c.Next()
		}

		if expected == "" {
			if production {
				return fiber.NewError(fiber.StatusUnauthorized, "missing_api_key")
			}
			return c.Next()
		}

		if key := strings.TrimSpace(c.Get("X-API-Key")); key == "" || key != expected {
			return fiber.NewError(fiber.StatusUnauthorized, "missing_api_key")
		}
		return c.Next()
	}
}
