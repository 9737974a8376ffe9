package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"
)

// Recover turns handler panics into 500 responses and logs them.
func Recover(log *zap.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Error("handler panic",
				zap.Any("panic", e),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Stack("stack"))
		},
	})
}
