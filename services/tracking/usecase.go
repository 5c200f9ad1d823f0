package tracking

import (
	"context"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/models"
)

// TrackingUC defines the interface for the tracking pipeline business logic
type TrackingUC interface {
	// ProcessLocationUpdate runs one sample through the ingestion pipeline:
	// validate, cache, enqueue for persistence, resolve the active order and
	// broadcast to its watchers. The only errors surfaced to the caller are
	// validation errors.
	ProcessLocationUpdate(ctx context.Context, sample *models.PositionSample) error

	// ProcessLocationBatch ingests multiple samples (simulator path) and
	// returns the number accepted.
	ProcessLocationBatch(ctx context.Context, samples []models.PositionSample) (int, error)

	// GetDriverLocation returns the driver's current position from the cache,
	// falling back to the durable store; ErrLocationNotFound when neither has
	// a fresh position.
	GetDriverLocation(ctx context.Context, driverID string) (*models.PositionSample, error)

	// GetLocationHistory returns persisted samples ordered by observation time.
	GetLocationHistory(ctx context.Context, driverID string, start, end time.Time, limit int) ([]models.PositionSample, error)

	// GetNearbyDrivers returns drivers within radiusKm, distance ascending.
	GetNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.NearbyDriver, error)

	// GetOrderTracking returns the combined delivery and current-position view
	// for an order; ErrDeliveryNotFound when no active delivery exists.
	GetOrderTracking(ctx context.Context, orderID string) (*models.OrderTrackingView, error)

	// HandleDeliveryStatus reacts to delivery status events; terminal statuses
	// drop the cached driver->order association.
	HandleDeliveryStatus(ctx context.Context, event *models.DeliveryStatusEvent)
}
