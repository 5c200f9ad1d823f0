package websocket

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/middleware"
	"github.com/kurirapp/kurir/internal/pkg/models"
	"github.com/kurirapp/kurir/services/tracking"
	"github.com/kurirapp/kurir/services/tracking/admission"
	"github.com/kurirapp/kurir/services/tracking/broadcast"
	"github.com/labstack/echo/v4"
)

// client is one live WebSocket connection with its verified identity.
type client struct {
	connID  string
	userID  string
	role    string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Manager owns the real-time connections: admission, the per-connection
// message loop, outbound delivery for the broadcast router and idle reaping.
type Manager struct {
	uc          tracking.TrackingUC
	registry    *admission.Registry
	router      *broadcast.Router
	jwtCfg      models.JWTConfig
	trackingCfg models.TrackingConfig
	upgrader    websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a WebSocket manager. The broadcast router is attached
// afterwards since it delivers through the manager.
func NewManager(uc tracking.TrackingUC, registry *admission.Registry, jwtCfg models.JWTConfig, trackingCfg models.TrackingConfig) *Manager {
	return &Manager{
		uc:          uc,
		registry:    registry,
		jwtCfg:      jwtCfg,
		trackingCfg: trackingCfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
		stop:    make(chan struct{}),
	}
}

// AttachRouter wires the broadcast router that delivers through this manager.
func (m *Manager) AttachRouter(router *broadcast.Router) {
	m.router = router
}

// HandleWebSocket authenticates, admits and serves a new connection.
func (m *Manager) HandleWebSocket(c echo.Context) error {
	claims, err := m.authenticate(c)
	if err != nil {
		return err
	}

	connID := uuid.NewString()
	meta := admission.Metadata{
		UserID:     claims.UserID,
		Role:       claims.Role,
		RemoteAddr: c.RealIP(),
	}
	if err := m.registry.Register(connID, meta); err != nil {
		logger.Warn("Connection rejected at capacity",
			logger.String("user_id", claims.UserID),
			logger.Int("connections", m.registry.Count()))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "connection capacity exceeded")
	}

	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		m.registry.Unregister(connID)
		return err
	}

	cl := &client{
		connID: connID,
		userID: claims.UserID,
		role:   claims.Role,
		conn:   ws,
	}
	m.addClient(cl)

	defer func() {
		m.router.UnsubscribeAll(connID)
		m.registry.Unregister(connID)
		m.removeClient(connID)
		ws.Close()
	}()

	return m.messageLoop(cl)
}

// authenticate validates the Bearer token on the upgrade request.
func (m *Manager) authenticate(c echo.Context) (*models.WebSocketClaims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
	}

	claims, err := middleware.ValidateToken(parts[1], m.jwtCfg.Secret)
	if err != nil {
		logger.Warn("Token validation failed", logger.Err(err))
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return claims, nil
}

// messageLoop reads inbound messages until the connection drops. Every
// inbound message counts as activity for idle reaping.
func (m *Manager) messageLoop(cl *client) error {
	for {
		_, msg, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error",
					logger.String("conn_id", cl.connID),
					logger.Err(err))
			}
			return nil
		}

		m.registry.Touch(cl.connID)

		if err := m.handleMessage(cl, msg); err != nil {
			logger.Warn("Error handling message",
				logger.String("conn_id", cl.connID),
				logger.Err(err))
		}
	}
}

// Send implements broadcast.Sender, delivering an event to one connection.
func (m *Manager) Send(connID, event string, payload interface{}) error {
	m.mu.RLock()
	cl, ok := m.clients[connID]
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	return m.sendMessage(cl, event, payload)
}

// StartReaper periodically disconnects connections that have been idle
// longer than the configured threshold.
func (m *Manager) StartReaper() {
	go func() {
		ticker := time.NewTicker(m.trackingCfg.ReapInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.reapIdle()
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *Manager) reapIdle() {
	for _, connID := range m.registry.FindIdle(m.trackingCfg.IdleTimeout) {
		m.mu.RLock()
		cl, ok := m.clients[connID]
		m.mu.RUnlock()

		if !ok {
			// Registered but no longer tracked here; drop the record.
			m.registry.Unregister(connID)
			continue
		}

		logger.Info("Reaping idle connection",
			logger.String("conn_id", connID),
			logger.String("user_id", cl.userID))
		// Closing the socket makes the message loop exit and clean up.
		cl.conn.Close()
	}
}

// Stop terminates the reaper and closes every live connection.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})

	m.mu.Lock()
	clients := make([]*client, 0, len(m.clients))
	for _, cl := range m.clients {
		clients = append(clients, cl)
	}
	m.mu.Unlock()

	for _, cl := range clients {
		cl.conn.Close()
	}
}

func (m *Manager) addClient(cl *client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[cl.connID] = cl
}

func (m *Manager) removeClient(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, connID)
}
