package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a per-client token bucket keyed by IP.
// Limiters expire after an hour of inactivity so the cache stays bounded.
func RateLimitMiddleware(perMinute int) fiber.Handler {
	limiters := gocache.New(time.Hour, 10*time.Minute)

	return func(ctx *fiber.Ctx) error {
		key := ctx.IP()

		var limiter *rate.Limiter
		if cached, found := limiters.Get(key); found {
			limiter = cached.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
			limiters.SetDefault(key, limiter)
		}

		if !limiter.Allow() {
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(ErrorResponse("Too many requests, slow down", ""))
		}
		return ctx.Next()
	}
}
