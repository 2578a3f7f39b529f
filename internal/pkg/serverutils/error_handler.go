package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"portfolio-chat-be/internal/pkg/logger"
)

// ErrorHandlerMiddleware converts errors escaping a handler into the JSON
// error envelope. Validation and fiber errors keep their status code;
// anything else becomes a 500 without leaking internals to the client.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code >= fiber.StatusInternalServerError {
				log.Error("http", "handler error", map[string]interface{}{
					"path":  ctx.Path(),
					"error": fe.Message,
				})
			}
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Message, ""))
		}

		log.Error("http", "unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse("Internal server error", ""))
	}
}
