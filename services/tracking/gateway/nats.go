package gateway

import (
	"context"

	"github.com/kurirapp/kurir/internal/pkg/constants"
	"github.com/kurirapp/kurir/internal/pkg/models"
	natspkg "github.com/kurirapp/kurir/internal/pkg/nats"
	"github.com/kurirapp/kurir/services/tracking"
)

type trackingGW struct {
	natsClient *natspkg.Client
}

// NewTrackingGW creates a new tracking gateway publishing to NATS
func NewTrackingGW(natsClient *natspkg.Client) tracking.TrackingGW {
	return &trackingGW{natsClient: natsClient}
}

// PublishLocationUpdate publishes an accepted sample to the location event
// stream for downstream consumers (analytics, billing aggregation).
func (g *trackingGW) PublishLocationUpdate(_ context.Context, sample *models.PositionSample) error {
	return g.natsClient.PublishJSON(constants.SubjectLocationUpdate, sample)
}
