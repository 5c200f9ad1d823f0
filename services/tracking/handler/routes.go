package handler

import (
	"github.com/kurirapp/kurir/internal/pkg/health"
	"github.com/kurirapp/kurir/internal/pkg/middleware"
	"github.com/kurirapp/kurir/internal/pkg/models"
	natspkg "github.com/kurirapp/kurir/internal/pkg/nats"
	"github.com/kurirapp/kurir/services/tracking"
	httpHandler "github.com/kurirapp/kurir/services/tracking/handler/http"
	wsHandler "github.com/kurirapp/kurir/services/tracking/handler/websocket"
	"github.com/labstack/echo/v4"
)

// Handler combines the HTTP, WebSocket and NATS surfaces of the tracking
// service.
type Handler struct {
	trackingHTTP *httpHandler.TrackingHandler
	trackingNATS *NATSHandler
	wsManager    *wsHandler.Manager
	cfg          *models.Config
}

// NewHandler creates the combined handler
func NewHandler(
	trackingUC tracking.TrackingUC,
	wsManager *wsHandler.Manager,
	natsClient *natspkg.Client,
	cfg *models.Config,
) *Handler {
	return &Handler{
		trackingHTTP: httpHandler.NewTrackingHandler(trackingUC),
		trackingNATS: NewNATSHandler(trackingUC, natsClient),
		wsManager:    wsManager,
		cfg:          cfg,
	}
}

// RegisterRoutes registers all HTTP and WebSocket routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	t := e.Group("/tracking")

	t.GET("/health", health.NewHandler())

	// Real-time channel
	t.GET("/ws", h.wsManager.HandleWebSocket)

	// Authenticated HTTP fallback for drivers
	t.POST("/location", h.trackingHTTP.UpdateLocation, middleware.ValidateJWT(h.cfg.JWT))

	// Trusted simulator traffic, gated by a shared secret
	t.POST("/simulator/location", h.trackingHTTP.SimulatorLocation,
		middleware.ValidateAPIKey(h.cfg.Tracking.SimulatorAPIKey))

	// Query surface
	t.GET("/driver/:driverId/location", h.trackingHTTP.GetDriverLocation)
	t.GET("/driver/:driverId/history", h.trackingHTTP.GetLocationHistory)
	t.GET("/nearby", h.trackingHTTP.GetNearbyDrivers)
	t.GET("/order/:orderId", h.trackingHTTP.GetOrderTracking)
}

// InitNATSConsumers initializes all NATS consumers
func (h *Handler) InitNATSConsumers() error {
	return h.trackingNATS.InitConsumers()
}

// DrainNATSConsumers unsubscribes all NATS consumers
func (h *Handler) DrainNATSConsumers() {
	h.trackingNATS.Drain()
}
