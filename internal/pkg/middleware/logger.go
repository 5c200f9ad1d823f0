package middleware

import (
	"time"

	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/labstack/echo/v4"
)

// RequestLogger creates a middleware for structured request logging
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			path := c.Request().URL.Path
			if raw := c.Request().URL.RawQuery; raw != "" {
				path = path + "?" + raw
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []logger.Field{
				logger.Int("status", c.Response().Status),
				logger.String("method", c.Request().Method),
				logger.String("path", path),
				logger.String("client_ip", c.RealIP()),
				logger.Duration("latency", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, logger.Err(err))
			}

			status := c.Response().Status
			switch {
			case status >= 500:
				logger.Error("HTTP request", fields...)
			case status >= 400:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}

			return nil
		}
	}
}
