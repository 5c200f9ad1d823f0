package tracking

import "errors"

var (
	// ErrLocationNotFound indicates no fresh position is known for a driver.
	ErrLocationNotFound = errors.New("driver location not found")

	// ErrDeliveryNotFound indicates no active delivery exists for an order.
	ErrDeliveryNotFound = errors.New("active delivery not found")
)
