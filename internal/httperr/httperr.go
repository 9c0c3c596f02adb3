package httperr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Wrap returns an error that renders as fiber.NewError(code, msg) while
// keeping cause in the chain for the request log.
func Wrap(code int, msg string, cause error) error {
	fe := fiber.NewError(code, msg)
	if cause == nil {
		return fe
	}
	return fmt.Errorf("%w: %w", fe, cause)
}

// Internal is Wrap with status 500.
func Internal(msg string, cause error) error {
	return Wrap(fiber.StatusInternalServerError, msg, cause)
}
