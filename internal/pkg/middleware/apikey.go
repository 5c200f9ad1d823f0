package middleware

import (
	"crypto/subtle"

	"github.com/kurirapp/kurir/internal/utils"
	"github.com/labstack/echo/v4"
)

const (
	// APIKeyHeader is the header carrying the shared secret for trusted
	// non-user traffic (simulator, service-to-service calls).
	APIKeyHeader = "X-API-Key"
)

// ValidateAPIKey middleware validates the shared-secret API key header.
// A server configured without a key rejects all callers.
func ValidateAPIKey(expectedKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey := c.Request().Header.Get(APIKeyHeader)
			if apiKey == "" {
				return utils.UnauthorizedResponse(c, "API key is required")
			}

			if expectedKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(expectedKey)) != 1 {
				return utils.UnauthorizedResponse(c, "Invalid API key")
			}

			return next(c)
		}
	}
}
