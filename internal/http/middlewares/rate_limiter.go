package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/rueidis"
)

// RateLimiter enforces a fixed-window per-client limit, with the counters in
// Redis so every API instance shares one budget. Redis being down fails
// open: throttling is protection, not a correctness guarantee.
func RateLimiter(client rueidis.Client, prefix string, limit int, window time.Duration) echo.MiddlewareFunc {
	windowSecs := int64(window.Seconds())

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			bucket := time.Now().Unix() / windowSecs
			key := fmt.Sprintf("%s:%s:%d", prefix, c.RealIP(), bucket)

			count, err := client.Do(ctx, client.B().Incr().Key(key).Build()).AsInt64()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				_ = client.Do(ctx, client.B().Expire().Key(key).Seconds(windowSecs).Build()).Error()
			}
			if count > int64(limit) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
