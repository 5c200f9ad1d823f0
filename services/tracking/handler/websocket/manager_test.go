package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurirapp/kurir/internal/pkg/constants"
	"github.com/kurirapp/kurir/internal/pkg/models"
	"github.com/kurirapp/kurir/services/tracking/admission"
	"github.com/kurirapp/kurir/services/tracking/broadcast"
)

const testSecret = "test-secret"

// fakeUC records processed samples; the rest of the interface is unused by
// the WebSocket surface.
type fakeUC struct {
	mu        sync.Mutex
	processed []models.PositionSample
}

func (f *fakeUC) ProcessLocationUpdate(ctx context.Context, sample *models.PositionSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, *sample)
	return nil
}

func (f *fakeUC) ProcessLocationBatch(ctx context.Context, samples []models.PositionSample) (int, error) {
	return len(samples), nil
}

func (f *fakeUC) GetDriverLocation(ctx context.Context, driverID string) (*models.PositionSample, error) {
	return nil, nil
}

func (f *fakeUC) GetLocationHistory(ctx context.Context, driverID string, start, end time.Time, limit int) ([]models.PositionSample, error) {
	return nil, nil
}

func (f *fakeUC) GetNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.NearbyDriver, error) {
	return nil, nil
}

func (f *fakeUC) GetOrderTracking(ctx context.Context, orderID string) (*models.OrderTrackingView, error) {
	return nil, nil
}

func (f *fakeUC) HandleDeliveryStatus(ctx context.Context, event *models.DeliveryStatusEvent) {}

func (f *fakeUC) samples() []models.PositionSample {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PositionSample, len(f.processed))
	copy(out, f.processed)
	return out
}

type wsFixture struct {
	server   *httptest.Server
	manager  *Manager
	registry *admission.Registry
	router   *broadcast.Router
	uc       *fakeUC
}

func newWSFixture(t *testing.T, maxConnections int) *wsFixture {
	t.Helper()

	uc := &fakeUC{}
	registry := admission.NewRegistry(maxConnections)
	manager := NewManager(uc, registry,
		models.JWTConfig{Secret: testSecret},
		models.TrackingConfig{IdleTimeout: time.Minute, ReapInterval: time.Minute})
	router := broadcast.NewRouter(manager)
	manager.AttachRouter(router)

	e := echo.New()
	e.GET("/tracking/ws", manager.HandleWebSocket)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	t.Cleanup(manager.Stop)

	return &wsFixture{server: server, manager: manager, registry: registry, router: router, uc: uc}
}

func (f *wsFixture) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/tracking/ws"
}

func signedToken(t *testing.T, userID, role string) string {
	t.Helper()
	claims := &models.WebSocketClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func dial(t *testing.T, f *wsFixture, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(f.wsURL(), header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(models.WSMessage{Event: event, Data: data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) models.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandleWebSocket_RejectsMissingToken(t *testing.T) {
	f := newWSFixture(t, 10)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(), nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWebSocket_RejectsAtCapacity(t *testing.T) {
	f := newWSFixture(t, 1)

	dial(t, f, signedToken(t, "driver-1", "driver"))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signedToken(t, "driver-2", "driver"))
	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(), header)

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	// The rejected attempt did not leak a registry slot.
	assert.Equal(t, 1, f.registry.Count())
}

func TestHandleWebSocket_LocationUpdateAcked(t *testing.T) {
	f := newWSFixture(t, 10)
	conn := dial(t, f, signedToken(t, "driver-1", "driver"))

	send(t, conn, constants.EventLocationUpdate, models.PositionSample{
		DriverID:  "spoofed-driver",
		Latitude:  -6.2,
		Longitude: 106.8,
	})

	msg := readEvent(t, conn)
	assert.Equal(t, constants.EventLocationUpdateAck, msg.Event)

	var ack models.LocationUpdateAck
	require.NoError(t, json.Unmarshal(msg.Data, &ack))
	assert.Equal(t, constants.AckStatusReceived, ack.Status)

	samples := f.uc.samples()
	require.Len(t, samples, 1)
	// The connection's verified identity wins over the payload.
	assert.Equal(t, "driver-1", samples[0].DriverID)
}

func TestHandleWebSocket_SubscribeAndReceiveBroadcast(t *testing.T) {
	f := newWSFixture(t, 10)
	conn := dial(t, f, signedToken(t, "customer-1", "customer"))

	send(t, conn, constants.EventSubscribeTracking, models.SubscribeRequest{OrderID: "order-1"})

	msg := readEvent(t, conn)
	require.Equal(t, constants.EventSubscriptionAck, msg.Event)

	var ack models.SubscriptionAck
	require.NoError(t, json.Unmarshal(msg.Data, &ack))
	assert.Equal(t, constants.AckStatusSubscribed, ack.Status)
	assert.Equal(t, "order-1", ack.OrderID)

	f.router.Publish("order-1", constants.EventDriverLocationUpdate, models.DriverLocationUpdate{
		Latitude:  -6.2,
		Longitude: 106.8,
		Timestamp: time.Now(),
	})

	update := readEvent(t, conn)
	assert.Equal(t, constants.EventDriverLocationUpdate, update.Event)
}

func TestHandleWebSocket_SubscribeWithoutOrderIDRejected(t *testing.T) {
	f := newWSFixture(t, 10)
	conn := dial(t, f, signedToken(t, "customer-1", "customer"))

	send(t, conn, constants.EventSubscribeTracking, models.SubscribeRequest{})

	msg := readEvent(t, conn)
	require.Equal(t, constants.EventSubscriptionAck, msg.Event)

	var ack models.SubscriptionAck
	require.NoError(t, json.Unmarshal(msg.Data, &ack))
	assert.Equal(t, constants.AckStatusError, ack.Status)
}

func TestHandleWebSocket_UnknownEventReturnsError(t *testing.T) {
	f := newWSFixture(t, 10)
	conn := dial(t, f, signedToken(t, "driver-1", "driver"))

	send(t, conn, "unknown-event", map[string]string{})

	msg := readEvent(t, conn)
	assert.Equal(t, constants.EventError, msg.Event)
}

func TestHandleWebSocket_DisconnectReleasesSlot(t *testing.T) {
	f := newWSFixture(t, 1)
	conn := dial(t, f, signedToken(t, "driver-1", "driver"))

	conn.Close()

	require.Eventually(t, func() bool {
		return f.registry.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The freed slot admits a new connection.
	dial(t, f, signedToken(t, "driver-2", "driver"))
	assert.Equal(t, 1, f.registry.Count())
}
