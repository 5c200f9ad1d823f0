package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/middleware"
	"github.com/kurirapp/kurir/internal/pkg/models"
	"github.com/kurirapp/kurir/internal/utils"
	"github.com/kurirapp/kurir/services/tracking"
	"github.com/labstack/echo/v4"
)

// TrackingHandler handles HTTP requests for the tracking service
type TrackingHandler struct {
	trackingUC tracking.TrackingUC
}

// NewTrackingHandler creates a new tracking HTTP handler
func NewTrackingHandler(trackingUC tracking.TrackingUC) *TrackingHandler {
	return &TrackingHandler{trackingUC: trackingUC}
}

// UpdateLocation is the authenticated HTTP fallback for drivers that cannot
// hold a real-time connection. It runs the same pipeline as the WebSocket
// path.
func (h *TrackingHandler) UpdateLocation(c echo.Context) error {
	var sample models.PositionSample
	if err := c.Bind(&sample); err != nil {
		return utils.BadRequestResponse(c, "invalid request body")
	}

	// The verified identity wins over whatever the payload claims.
	if userID, ok := c.Get(middleware.ContextKeyUserID).(string); ok && userID != "" {
		sample.DriverID = userID
	}

	if err := h.trackingUC.ProcessLocationUpdate(c.Request().Context(), &sample); err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      sample.DriverID,
	})
}

// SimulatorLocation ingests one sample or an array of samples from trusted
// simulator traffic, gated by the shared-secret API key, never end-user auth.
func (h *TrackingHandler) SimulatorLocation(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return utils.BadRequestResponse(c, "invalid request body")
	}

	var samples []models.PositionSample
	if err := json.Unmarshal(body, &samples); err != nil {
		var single models.PositionSample
		if err := json.Unmarshal(body, &single); err != nil {
			return utils.BadRequestResponse(c, "invalid request body")
		}
		samples = []models.PositionSample{single}
	}

	count, err := h.trackingUC.ProcessLocationBatch(c.Request().Context(), samples)
	if err != nil {
		logger.Error("Simulator batch ingestion failed", logger.Err(err))
		return utils.InternalServerErrorResponse(c, "failed to ingest samples")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   count,
	})
}

// GetDriverLocation returns a driver's current position, 404 if none known.
func (h *TrackingHandler) GetDriverLocation(c echo.Context) error {
	driverID := c.Param("driverId")
	if driverID == "" {
		return utils.BadRequestResponse(c, "driverId is required")
	}

	sample, err := h.trackingUC.GetDriverLocation(c.Request().Context(), driverID)
	if err != nil {
		if errors.Is(err, tracking.ErrLocationNotFound) {
			return utils.NotFoundResponse(c, "driver location not found")
		}
		logger.Error("Failed to get driver location",
			logger.String("driver_id", driverID),
			logger.Err(err))
		return utils.InternalServerErrorResponse(c, "failed to get driver location")
	}

	return utils.SuccessResponse(c, http.StatusOK, "Driver location retrieved", sample)
}

// GetLocationHistory returns ordered historical samples for a driver.
func (h *TrackingHandler) GetLocationHistory(c echo.Context) error {
	driverID := c.Param("driverId")
	if driverID == "" {
		return utils.BadRequestResponse(c, "driverId is required")
	}

	start, err := parseTimeParam(c.QueryParam("start"), time.Now().Add(-24*time.Hour))
	if err != nil {
		return utils.BadRequestResponse(c, "invalid start time")
	}
	end, err := parseTimeParam(c.QueryParam("end"), time.Now())
	if err != nil {
		return utils.BadRequestResponse(c, "invalid end time")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return utils.BadRequestResponse(c, "invalid limit")
		}
	}

	samples, err := h.trackingUC.GetLocationHistory(c.Request().Context(), driverID, start, end, limit)
	if err != nil {
		logger.Error("Failed to get location history",
			logger.String("driver_id", driverID),
			logger.Err(err))
		return utils.BadRequestResponse(c, err.Error())
	}

	return utils.SuccessResponse(c, http.StatusOK, "Location history retrieved", samples)
}

// GetNearbyDrivers returns drivers within a radius, distance ascending.
func (h *TrackingHandler) GetNearbyDrivers(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return utils.BadRequestResponse(c, "invalid latitude")
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return utils.BadRequestResponse(c, "invalid longitude")
	}
	radius, err := strconv.ParseFloat(c.QueryParam("radius"), 64)
	if err != nil {
		return utils.BadRequestResponse(c, "invalid radius")
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return utils.BadRequestResponse(c, "invalid limit")
		}
	}

	drivers, err := h.trackingUC.GetNearbyDrivers(c.Request().Context(), lat, lng, radius, limit)
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	return utils.SuccessResponse(c, http.StatusOK, "Nearby drivers found", drivers)
}

// GetOrderTracking returns the combined delivery and current-position view.
func (h *TrackingHandler) GetOrderTracking(c echo.Context) error {
	orderID := c.Param("orderId")
	if orderID == "" {
		return utils.BadRequestResponse(c, "orderId is required")
	}

	view, err := h.trackingUC.GetOrderTracking(c.Request().Context(), orderID)
	if err != nil {
		if errors.Is(err, tracking.ErrDeliveryNotFound) {
			return utils.NotFoundResponse(c, "no active delivery for order")
		}
		logger.Error("Failed to get order tracking view",
			logger.String("order_id", orderID),
			logger.Err(err))
		return utils.InternalServerErrorResponse(c, "failed to get order tracking")
	}

	return utils.SuccessResponse(c, http.StatusOK, "Order tracking retrieved", view)
}

func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func readBody(c echo.Context) ([]byte, error) {
	defer c.Request().Body.Close()
	return io.ReadAll(c.Request().Body)
}
