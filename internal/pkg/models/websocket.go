package models

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSErrorMessage represents an error message sent over WebSocket
type WSErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WebSocketClaims are the JWT claims attached to a real-time connection.
type WebSocketClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LocationUpdateAck acknowledges a location-update message.
type LocationUpdateAck struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
}

// SubscriptionAck acknowledges a subscribe-to-tracking message.
type SubscriptionAck struct {
	Timestamp time.Time `json:"timestamp"`
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
}

// SubscribeRequest is the payload of a subscribe-to-tracking message.
type SubscribeRequest struct {
	OrderID string `json:"orderId"`
}
