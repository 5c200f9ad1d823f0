package handler

import (
	"context"
	"encoding/json"

	"github.com/kurirapp/kurir/internal/pkg/constants"
	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/models"
	natspkg "github.com/kurirapp/kurir/internal/pkg/nats"
	"github.com/kurirapp/kurir/services/tracking"
	"github.com/nats-io/nats.go"
)

// NATSHandler consumes delivery-service events
type NATSHandler struct {
	trackingUC tracking.TrackingUC
	natsClient *natspkg.Client
	subs       []*nats.Subscription
}

// NewNATSHandler creates a new NATS handler
func NewNATSHandler(trackingUC tracking.TrackingUC, natsClient *natspkg.Client) *NATSHandler {
	return &NATSHandler{
		trackingUC: trackingUC,
		natsClient: natsClient,
	}
}

// InitConsumers subscribes to the delivery status stream. Terminal statuses
// invalidate the cached driver->order association immediately instead of
// waiting for TTL expiry.
func (h *NATSHandler) InitConsumers() error {
	sub, err := h.natsClient.QueueSubscribe(
		constants.SubjectDeliveryStatus,
		constants.QueueGroupTracking,
		h.handleDeliveryStatus,
	)
	if err != nil {
		return err
	}
	h.subs = append(h.subs, sub)
	return nil
}

func (h *NATSHandler) handleDeliveryStatus(msg *nats.Msg) {
	var event models.DeliveryStatusEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Warn("Invalid delivery status event",
			logger.String("subject", msg.Subject),
			logger.Err(err))
		return
	}

	h.trackingUC.HandleDeliveryStatus(context.Background(), &event)
}

// Drain unsubscribes all consumers.
func (h *NATSHandler) Drain() {
	for _, sub := range h.subs {
		if err := sub.Drain(); err != nil {
			logger.Warn("Failed to drain NATS subscription", logger.Err(err))
		}
	}
}
