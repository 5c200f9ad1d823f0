package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/constants"
	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/models"
	"github.com/kurirapp/kurir/internal/utils"
	"github.com/kurirapp/kurir/services/tracking"
	"github.com/kurirapp/kurir/services/tracking/batcher"
	"github.com/kurirapp/kurir/services/tracking/broadcast"
	"github.com/kurirapp/kurir/services/tracking/cache"
	"github.com/kurirapp/kurir/services/tracking/resolver"
)

// TrackingService implements the tracking.TrackingUC interface
type TrackingService struct {
	cache    *cache.PositionCache
	batcher  *batcher.Batcher
	resolver *resolver.Resolver
	router   *broadcast.Router
	repo     tracking.LocationRepo
	gw       tracking.TrackingGW
	delivery tracking.DeliveryGW
}

// NewTrackingService creates the tracking use case
func NewTrackingService(
	positionCache *cache.PositionCache,
	locationBatcher *batcher.Batcher,
	deliveryResolver *resolver.Resolver,
	router *broadcast.Router,
	repo tracking.LocationRepo,
	gw tracking.TrackingGW,
	delivery tracking.DeliveryGW,
) *TrackingService {
	return &TrackingService{
		cache:    positionCache,
		batcher:  locationBatcher,
		resolver: deliveryResolver,
		router:   router,
		repo:     repo,
		gw:       gw,
		delivery: delivery,
	}
}

// AttachRouter wires the broadcast router. It is attached after construction
// because the router delivers through the WebSocket manager, which in turn
// needs this use case.
func (s *TrackingService) AttachRouter(router *broadcast.Router) {
	s.router = router
}

// ProcessLocationUpdate runs a sample through the ingestion pipeline. Only
// validation errors reach the caller; persistence and resolution degradation
// stay internal so ingestion availability wins over persistence freshness.
func (s *TrackingService) ProcessLocationUpdate(ctx context.Context, sample *models.PositionSample) error {
	if err := validateSample(sample); err != nil {
		return err
	}

	if sample.ObservedAt.IsZero() {
		sample.ObservedAt = time.Now()
	}

	newest := s.cache.Put(*sample)

	if err := s.batcher.Enqueue(*sample); err != nil {
		// The sample stays in the cache and the drop is counted; the
		// producing client is not told.
		logger.Warn("Failed to enqueue location sample",
			logger.String("driver_id", sample.DriverID),
			logger.Err(err))
	}

	// An out-of-order sample is persisted for history but never fanned out:
	// consumers observe positions in non-decreasing ObservedAt order.
	if !newest {
		return nil
	}

	if err := s.gw.PublishLocationUpdate(ctx, sample); err != nil {
		logger.Warn("Failed to publish location update event",
			logger.String("driver_id", sample.DriverID),
			logger.Err(err))
	}

	orderID, ok := s.resolver.Resolve(ctx, sample.DriverID, sample.OrderID)
	if !ok {
		return nil
	}

	s.router.Publish(orderID, constants.EventDriverLocationUpdate, models.DriverLocationUpdate{
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Heading:   sample.Heading,
		Timestamp: sample.ObservedAt,
	})

	return nil
}

// ProcessLocationBatch ingests simulator samples, skipping invalid ones.
func (s *TrackingService) ProcessLocationBatch(ctx context.Context, samples []models.PositionSample) (int, error) {
	accepted := 0
	for i := range samples {
		if err := s.ProcessLocationUpdate(ctx, &samples[i]); err != nil {
			logger.Debug("Skipping invalid simulator sample",
				logger.Int("index", i),
				logger.Err(err))
			continue
		}
		accepted++
	}
	return accepted, nil
}

// GetDriverLocation returns the current position from the cache, falling
// back to the durable store's latest-position mirror.
func (s *TrackingService) GetDriverLocation(ctx context.Context, driverID string) (*models.PositionSample, error) {
	if sample, ok := s.cache.Get(driverID); ok {
		return &sample, nil
	}

	sample, err := s.repo.GetLastKnownLocation(ctx, driverID)
	if err != nil {
		logger.Warn("Last known location lookup failed",
			logger.String("driver_id", driverID),
			logger.Err(err))
		return nil, tracking.ErrLocationNotFound
	}
	if sample == nil {
		return nil, tracking.ErrLocationNotFound
	}
	return sample, nil
}

// GetLocationHistory returns persisted samples for a driver within a time
// range, oldest first.
func (s *TrackingService) GetLocationHistory(ctx context.Context, driverID string, start, end time.Time, limit int) ([]models.PositionSample, error) {
	if start.After(end) {
		return nil, errors.New("start time must be before end time")
	}
	return s.repo.GetLocationHistory(ctx, driverID, start, end, limit)
}

// GetNearbyDrivers returns drivers within radiusKm, distance ascending.
func (s *TrackingService) GetNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.NearbyDriver, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, errors.New("radius must be positive")
	}
	return s.repo.GetNearbyDrivers(ctx, lat, lng, radiusKm, limit)
}

// GetOrderTracking combines the active delivery with the driver's current
// position. A missing position degrades the view rather than failing it.
func (s *TrackingService) GetOrderTracking(ctx context.Context, orderID string) (*models.OrderTrackingView, error) {
	delivery, err := s.delivery.GetActiveDeliveryByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up delivery: %w", err)
	}
	if delivery == nil {
		return nil, tracking.ErrDeliveryNotFound
	}

	view := &models.OrderTrackingView{Delivery: delivery}

	position, err := s.GetDriverLocation(ctx, delivery.DriverID)
	if err == nil {
		view.CurrentPosition = position
		distance := utils.CalculateDistance(models.GeoPoint{
			Latitude:  position.Latitude,
			Longitude: position.Longitude,
		}, delivery.DestinationPoint)
		view.DistanceToDestinationKm = &distance
	}

	return view, nil
}

// HandleDeliveryStatus invalidates the cached driver->order association once
// a delivery completes or is cancelled.
func (s *TrackingService) HandleDeliveryStatus(ctx context.Context, event *models.DeliveryStatusEvent) {
	if event.Status != models.DeliveryStatusDelivered && event.Status != models.DeliveryStatusCancelled {
		return
	}

	s.resolver.Invalidate(event.DriverID)
	logger.Info("Delivery association invalidated",
		logger.String("driver_id", event.DriverID),
		logger.String("order_id", event.OrderID),
		logger.String("status", event.Status))
}

func validateSample(sample *models.PositionSample) error {
	if sample == nil {
		return errors.New("sample cannot be nil")
	}
	if sample.DriverID == "" {
		return errors.New("driverId is required")
	}
	return validateCoordinates(sample.Latitude, sample.Longitude)
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}
