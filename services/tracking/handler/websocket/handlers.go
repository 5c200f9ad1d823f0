package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/constants"
	"github.com/kurirapp/kurir/internal/pkg/models"
)

// handleMessage dispatches one inbound WebSocket message.
func (m *Manager) handleMessage(cl *client, msg []byte) error {
	var wsMsg models.WSMessage
	if err := json.Unmarshal(msg, &wsMsg); err != nil {
		return m.sendError(cl, constants.ErrorInvalidFormat, "Invalid message format")
	}

	switch wsMsg.Event {
	case constants.EventLocationUpdate:
		return m.handleLocationUpdate(cl, wsMsg.Data)
	case constants.EventSubscribeTracking:
		return m.handleSubscribe(cl, wsMsg.Data)
	default:
		return m.sendError(cl, constants.ErrorInvalidFormat, "Unknown event type")
	}
}

// handleLocationUpdate runs a driver's sample through the ingestion pipeline
// and acknowledges it. The driver identity always comes from the verified
// connection, never from the payload.
func (m *Manager) handleLocationUpdate(cl *client, data json.RawMessage) error {
	var sample models.PositionSample
	if err := json.Unmarshal(data, &sample); err != nil {
		return m.sendMessage(cl, constants.EventLocationUpdateAck, models.LocationUpdateAck{
			Timestamp: time.Now(),
			Status:    constants.AckStatusError,
			Message:   "invalid location format",
		})
	}

	sample.DriverID = cl.userID

	if err := m.uc.ProcessLocationUpdate(context.Background(), &sample); err != nil {
		return m.sendMessage(cl, constants.EventLocationUpdateAck, models.LocationUpdateAck{
			Timestamp: time.Now(),
			Status:    constants.AckStatusError,
			Message:   err.Error(),
		})
	}

	return m.sendMessage(cl, constants.EventLocationUpdateAck, models.LocationUpdateAck{
		Timestamp: time.Now(),
		Status:    constants.AckStatusReceived,
	})
}

// handleSubscribe joins the connection to an order's broadcast group.
func (m *Manager) handleSubscribe(cl *client, data json.RawMessage) error {
	var req models.SubscribeRequest
	if err := json.Unmarshal(data, &req); err != nil || req.OrderID == "" {
		return m.sendMessage(cl, constants.EventSubscriptionAck, models.SubscriptionAck{
			Timestamp: time.Now(),
			OrderID:   req.OrderID,
			Status:    constants.AckStatusError,
			Message:   "orderId is required",
		})
	}

	m.router.Subscribe(cl.connID, req.OrderID)

	return m.sendMessage(cl, constants.EventSubscriptionAck, models.SubscriptionAck{
		Timestamp: time.Now(),
		OrderID:   req.OrderID,
		Status:    constants.AckStatusSubscribed,
	})
}

// sendMessage sends an event envelope to a client, serialized per connection.
func (m *Manager) sendMessage(cl *client, event string, data interface{}) error {
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshaling message data: %w", err)
	}

	response := models.WSMessage{
		Event: event,
		Data:  rawData,
	}

	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteJSON(response)
}

// sendError sends an error message to a client.
func (m *Manager) sendError(cl *client, code, message string) error {
	return m.sendMessage(cl, constants.EventError, models.WSErrorMessage{
		Code:    code,
		Message: message,
	})
}
