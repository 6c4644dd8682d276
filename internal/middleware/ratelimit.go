package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var uuidZero = uuid.UUID{}

// KeyFunc derives the rate-limit bucket from the request. Per-user keys for
// authenticated checkout, per-IP for anything public.
type KeyFunc func(c *fiber.Ctx) string

func KeyByIP(c *fiber.Ctx) string {
	return c.IP()
}

func KeyByUser(c *fiber.Ctx) string {
	if id := GetUserID(c); id != (uuidZero) {
		return id.String()
	}
	return c.IP()
}

// RateLimitMiddleware bounds requests per key per window using a shared
// Redis counter, so limits hold across instances. Fails open when Redis is
// unavailable.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("rl:%s:%s", c.Path(), keyFn(c))

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Next() // fail open
		}

		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
