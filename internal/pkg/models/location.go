package models

import "time"

// PositionSample is one reported driver position. Samples are immutable once
// created; ObservedAt is the client-supplied timestamp used for recency
// ordering, not the server arrival time.
type PositionSample struct {
	DriverID     string    `json:"driverId" db:"driver_id"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	Heading      *float64  `json:"heading,omitempty" db:"heading"`
	Speed        *float64  `json:"speed,omitempty" db:"speed"`
	Accuracy     *float64  `json:"accuracy,omitempty" db:"accuracy"`
	BatteryLevel *float64  `json:"batteryLevel,omitempty" db:"battery_level"`
	OrderID      string    `json:"orderId,omitempty" db:"order_id"`
	ObservedAt   time.Time `json:"timestamp" db:"observed_at"`
}

// NearbyDriver is one result of a radius query, distance in kilometers
// ascending.
type NearbyDriver struct {
	DriverID   string  `json:"driverId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distanceKm"`
}

// DriverLocationUpdate is the payload pushed to customers watching an order.
type DriverLocationUpdate struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Heading   *float64  `json:"heading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
