package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ErrorHandler renders errors returned by handlers as {"error": "..."}.
// Errors that are not *fiber.Error are logged and reported as 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		msg := "internal error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
