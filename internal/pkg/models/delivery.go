package models

import "time"

// Delivery statuses as reported by the delivery service.
const (
	DeliveryStatusAssigned  = "assigned"
	DeliveryStatusPickedUp  = "picked_up"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusCancelled = "cancelled"
)

// GeoPoint represents a geographic coordinate pair
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ActiveDelivery represents an in-flight delivery owned by the delivery
// service; the tracking service only reads it to map drivers to orders.
type ActiveDelivery struct {
	OrderID               string     `json:"orderId"`
	DriverID              string     `json:"driverId"`
	PickupPoint           GeoPoint   `json:"pickupPoint"`
	DestinationPoint      GeoPoint   `json:"destinationPoint"`
	Status                string     `json:"status"`
	StartedAt             time.Time  `json:"startedAt"`
	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime,omitempty"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
}

// IsTerminal reports whether the delivery has reached a final state.
func (d *ActiveDelivery) IsTerminal() bool {
	return d.Status == DeliveryStatusDelivered || d.Status == DeliveryStatusCancelled
}

// DeliveryStatusEvent is the delivery.status event consumed from NATS.
type DeliveryStatusEvent struct {
	OrderID   string    `json:"orderId"`
	DriverID  string    `json:"driverId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderTrackingView combines the delivery record with the driver's current
// position for the customer-facing order tracking endpoint.
type OrderTrackingView struct {
	Delivery        *ActiveDelivery `json:"delivery"`
	CurrentPosition *PositionSample `json:"currentPosition,omitempty"`

	// DistanceToDestinationKm is the straight-line distance from the
	// driver's current position to the destination, absent when no
	// position is known.
	DistanceToDestinationKm *float64 `json:"distanceToDestinationKm,omitempty"`
}
