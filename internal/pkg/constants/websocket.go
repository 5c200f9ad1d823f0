package constants

// WebSocket event types, namespace "tracking"
const (
	// Common events
	EventError = "error"

	// Client -> server
	EventLocationUpdate    = "location-update"
	EventSubscribeTracking = "subscribe-to-tracking"

	// Server -> client
	EventLocationUpdateAck    = "location-update-ack"
	EventSubscriptionAck      = "subscription-ack"
	EventDriverLocationUpdate = "driver-location-update"
)

// Ack statuses
const (
	AckStatusReceived   = "received"
	AckStatusSubscribed = "subscribed"
	AckStatusError      = "error"
)

// WebSocket error codes
const (
	ErrorInvalidFormat    = "invalid_format"
	ErrorInvalidLocation  = "invalid_location"
	ErrorUnauthorized     = "unauthorized"
	ErrorCapacityExceeded = "capacity_exceeded"
	ErrorInternalError    = "internal_error"
)
