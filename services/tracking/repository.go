package tracking

import (
	"context"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/models"
)

// LocationRepo defines the interface for the durable location store: sample
// history in Postgres plus the Redis geo index and latest-position mirror.
type LocationRepo interface {
	// SaveBatch persists a batch of samples and refreshes the per-driver
	// latest-position mirror and geo index. At-least-once: callers may retry
	// a failed batch, duplicates are acceptable.
	SaveBatch(ctx context.Context, samples []models.PositionSample) error

	// GetLocationHistory returns samples for a driver within [start, end],
	// ordered by observation time ascending.
	GetLocationHistory(ctx context.Context, driverID string, start, end time.Time, limit int) ([]models.PositionSample, error)

	// GetNearbyDrivers returns drivers within radiusKm of a point, distance
	// ascending.
	GetNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.NearbyDriver, error)

	// GetLastKnownLocation returns the persisted latest position for a driver,
	// or nil when none is known.
	GetLastKnownLocation(ctx context.Context, driverID string) (*models.PositionSample, error)
}
