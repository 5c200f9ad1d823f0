package tracking

import (
	"context"

	"github.com/kurirapp/kurir/internal/pkg/models"
)

// TrackingGW defines the interface for outbound tracking events
type TrackingGW interface {
	// PublishLocationUpdate publishes an accepted sample to the location
	// event stream. Best-effort: failures are logged, never surfaced to the
	// producing client.
	PublishLocationUpdate(ctx context.Context, sample *models.PositionSample) error
}

// DeliveryGW defines the interface to the delivery service
type DeliveryGW interface {
	// GetActiveDeliveryByDriver returns the in-progress delivery assigned to
	// a driver, or nil when the driver has none.
	GetActiveDeliveryByDriver(ctx context.Context, driverID string) (*models.ActiveDelivery, error)

	// GetActiveDeliveryByOrder returns the in-progress delivery for an order,
	// or nil when there is none.
	GetActiveDeliveryByOrder(ctx context.Context, orderID string) (*models.ActiveDelivery, error)
}
