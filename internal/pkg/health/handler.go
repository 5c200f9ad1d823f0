package health

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Status is the liveness probe response body.
type Status struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHandler creates a handler for the liveness endpoint. It reports ok
// unconditionally; readiness of collaborators is not part of liveness.
func NewHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, Status{
			Status:    "ok",
			Timestamp: time.Now(),
		})
	}
}
