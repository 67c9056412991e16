package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"accmarket/pkg/logger"
)

func RequestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		fields := []interface{}{
			"method", req.Method,
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.RealIP(),
		}
		if uid, ok := c.Get(ContextUID).(string); ok {
			fields = append(fields, "uid", uid)
		}

		l := logger.With(fields...)
		switch {
		case status >= 500:
			l.Error("request failed")
		case status >= 400:
			l.Info("request rejected")
		default:
			l.Debug("request served")
		}
		return nil
	}
}
