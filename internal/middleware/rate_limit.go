package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"

	"github.com/aulavid/aulavid-api/internal/utils"
)

// RateLimit bounds request rates per client identity. With a Redis client
// the counters live in a shared fixed window (INCR + EXPIRE), so limits
// survive restarts and apply across instances; without one it degrades to
// Fiber's in-process limiter, which is best-effort only.
func RateLimit(identifier string, max int, window time.Duration, redisClient *redis.Client) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	if redisClient == nil {
		return limiter.New(limiter.Config{
			Max:        max,
			Expiration: window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return fmt.Sprintf("%s:%s", identifier, clientIdentity(c))
			},
		})
	}

	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:%s:%s", identifier, clientIdentity(c))
		ctx := c.Context()

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis trouble must not take the API down with it.
			return c.Next()
		}
		if count == 1 {
			redisClient.Expire(ctx, key, window)
		}
		if count > int64(max) {
			c.Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests")
		}

		return c.Next()
	}
}

func clientIdentity(c *fiber.Ctx) string {
	if userID := c.Locals("user_id"); userID != nil {
		return fmt.Sprintf("user:%v", userID)
	}
	return c.IP()
}
