package serverutils

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// ApiKeyMiddleware rejects requests whose x-api-key header does not match
// the configured key. Preflight requests pass through so CORS is answered
// independently of authorization.
func ApiKeyMiddleware(apiKey string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Method() == fiber.MethodOptions {
			return ctx.Next()
		}

		provided := ctx.Get("x-api-key")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(ErrorResponse("Unauthorized: invalid or missing API key", ""))
		}
		return ctx.Next()
	}
}
