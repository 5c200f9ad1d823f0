package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/constants"
	"github.com/kurirapp/kurir/internal/pkg/database"
	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/models"
	"github.com/kurirapp/kurir/internal/utils"
	"github.com/kurirapp/kurir/services/tracking"
)

const (
	// LocationTTL is how long the latest-position mirror lives in Redis.
	// Long enough for trip analysis, short enough to expire stale drivers.
	LocationTTL = 24 * time.Hour

	// DefaultHistoryLimit caps history queries without an explicit limit.
	DefaultHistoryLimit = 500
)

type locationRepo struct {
	db          *database.PostgresClient
	redisClient *database.RedisClient
}

// NewLocationRepository creates a new location repository backed by Postgres
// for history and Redis for the geo index and latest-position mirror.
func NewLocationRepository(db *database.PostgresClient, redisClient *database.RedisClient) tracking.LocationRepo {
	return &locationRepo{
		db:          db,
		redisClient: redisClient,
	}
}

type locationRow struct {
	models.PositionSample
	Geohash string `db:"geohash"`
}

// SaveBatch persists the batch to Postgres in one multi-row insert, then
// refreshes the Redis latest-position mirror and geo index for the newest
// sample per driver. Mirror failures are logged, not surfaced: history is
// the source of truth, the mirror is rebuilt by the next batch.
func (r *locationRepo) SaveBatch(ctx context.Context, samples []models.PositionSample) error {
	if len(samples) == 0 {
		return nil
	}

	rows := make([]locationRow, len(samples))
	for i, sample := range samples {
		rows[i] = locationRow{
			PositionSample: sample,
			Geohash:        utils.EncodeLocation(sample.Latitude, sample.Longitude, utils.GeohashPrecision),
		}
	}

	query := `
		INSERT INTO driver_locations
			(driver_id, latitude, longitude, heading, speed, accuracy, battery_level, order_id, geohash, observed_at)
		VALUES
			(:driver_id, :latitude, :longitude, :heading, :speed, :accuracy, :battery_level, :order_id, :geohash, :observed_at)
	`

	if _, err := r.db.GetDB().NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert location batch: %w", err)
	}

	for driverID, sample := range newestPerDriver(samples) {
		if err := r.updateLatest(ctx, driverID, sample); err != nil {
			logger.Warn("Failed to update latest-position mirror",
				logger.String("driver_id", driverID),
				logger.Err(err))
		}
	}

	return nil
}

// newestPerDriver keeps the sample with the highest ObservedAt per driver.
func newestPerDriver(samples []models.PositionSample) map[string]models.PositionSample {
	latest := make(map[string]models.PositionSample)
	for _, sample := range samples {
		if cur, ok := latest[sample.DriverID]; !ok || sample.ObservedAt.After(cur.ObservedAt) {
			latest[sample.DriverID] = sample
		}
	}
	return latest
}

func (r *locationRepo) updateLatest(ctx context.Context, driverID string, sample models.PositionSample) error {
	locationKey := fmt.Sprintf(constants.KeyDriverLocation, driverID)
	fields := map[string]interface{}{
		constants.FieldLatitude:  strconv.FormatFloat(sample.Latitude, 'f', -1, 64),
		constants.FieldLongitude: strconv.FormatFloat(sample.Longitude, 'f', -1, 64),
		constants.FieldTimestamp: strconv.FormatInt(sample.ObservedAt.Unix(), 10),
	}
	if sample.Heading != nil {
		fields[constants.FieldHeading] = strconv.FormatFloat(*sample.Heading, 'f', -1, 64)
	}

	if err := r.redisClient.HSet(ctx, locationKey, fields); err != nil {
		return fmt.Errorf("failed to store latest position: %w", err)
	}
	if err := r.redisClient.Expire(ctx, locationKey, LocationTTL); err != nil {
		return fmt.Errorf("failed to set latest position TTL: %w", err)
	}

	if err := r.redisClient.GeoAdd(ctx, constants.KeyDriverGeo, sample.Longitude, sample.Latitude, driverID); err != nil {
		return fmt.Errorf("failed to update geo index: %w", err)
	}

	return nil
}

// GetLocationHistory returns samples for a driver within [start, end],
// oldest first.
func (r *locationRepo) GetLocationHistory(ctx context.Context, driverID string, start, end time.Time, limit int) ([]models.PositionSample, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT driver_id, latitude, longitude, heading, speed, accuracy, battery_level, order_id, observed_at
		FROM driver_locations
		WHERE driver_id = $1 AND observed_at BETWEEN $2 AND $3
		ORDER BY observed_at ASC
		LIMIT $4
	`

	var samples []models.PositionSample
	if err := r.db.GetDB().SelectContext(ctx, &samples, query, driverID, start, end, limit); err != nil {
		return nil, fmt.Errorf("failed to query location history: %w", err)
	}
	return samples, nil
}

// GetNearbyDrivers queries the Redis geo index, distance ascending.
func (r *locationRepo) GetNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.NearbyDriver, error) {
	locations, err := r.redisClient.GeoRadius(ctx, constants.KeyDriverGeo, lng, lat, radiusKm, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby drivers: %w", err)
	}

	drivers := make([]models.NearbyDriver, 0, len(locations))
	for _, loc := range locations {
		drivers = append(drivers, models.NearbyDriver{
			DriverID:   loc.Name,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			DistanceKm: loc.Dist,
		})
	}
	return drivers, nil
}

// GetLastKnownLocation reads the latest-position mirror; nil when the driver
// has no persisted position.
func (r *locationRepo) GetLastKnownLocation(ctx context.Context, driverID string) (*models.PositionSample, error) {
	locationKey := fmt.Sprintf(constants.KeyDriverLocation, driverID)

	values, err := r.redisClient.HGetAll(ctx, locationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest position: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(values[constants.FieldLatitude], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(values[constants.FieldLongitude], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %w", err)
	}
	ts, err := strconv.ParseInt(values[constants.FieldTimestamp], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	sample := &models.PositionSample{
		DriverID:   driverID,
		Latitude:   lat,
		Longitude:  lng,
		ObservedAt: time.Unix(ts, 0),
	}
	if raw, ok := values[constants.FieldHeading]; ok {
		if heading, err := strconv.ParseFloat(raw, 64); err == nil {
			sample.Heading = &heading
		}
	}

	return sample, nil
}
