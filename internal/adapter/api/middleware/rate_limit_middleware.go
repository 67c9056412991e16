package middleware

import (
	"fmt"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"accmarket/internal/infrastructure/ratelimit"
	"accmarket/pkg/errors"
	"accmarket/pkg/logger"
	"accmarket/pkg/response"
)

// RateLimit keys requests by user when authenticated, otherwise by client
// IP. A limiter failure lets the request through.
func RateLimit(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if uid, ok := c.Get(ContextUID).(string); ok && uid != "" {
				key = "user:" + uid
			}

			d, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing %s: %v", key, err)
				return next(c)
			}
			if !d.Allowed {
				retry := int(math.Ceil(d.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Too many requests, retry in %ds", retry)))
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			return next(c)
		}
	}
}
