package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/kurirapp/kurir/internal/pkg/circuitbreaker"
	httppkg "github.com/kurirapp/kurir/internal/pkg/http"
	"github.com/kurirapp/kurir/internal/pkg/models"
	"github.com/kurirapp/kurir/services/tracking"
)

type deliveryGW struct {
	client  *httppkg.APIKeyClient
	breaker *circuitbreaker.CircuitBreaker
}

// NewDeliveryGW creates a client for the delivery service's internal API,
// protected by a circuit breaker so a failing delivery service degrades to
// "no active delivery" quickly instead of stalling every lookup.
func NewDeliveryGW(cfg models.ServicesConfig) tracking.DeliveryGW {
	return &deliveryGW{
		client:  httppkg.NewAPIKeyClient(cfg.DeliveryServiceURL, cfg.DeliveryServiceAPIKey),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("delivery-service")),
	}
}

type deliveryEnvelope struct {
	Success bool                   `json:"success"`
	Data    *models.ActiveDelivery `json:"data"`
}

// GetActiveDeliveryByDriver returns the in-progress delivery assigned to a
// driver, or nil when there is none.
func (g *deliveryGW) GetActiveDeliveryByDriver(ctx context.Context, driverID string) (*models.ActiveDelivery, error) {
	endpoint := fmt.Sprintf("/internal/deliveries/active?driverId=%s", url.QueryEscape(driverID))
	return g.fetch(ctx, endpoint)
}

// GetActiveDeliveryByOrder returns the in-progress delivery for an order, or
// nil when there is none.
func (g *deliveryGW) GetActiveDeliveryByOrder(ctx context.Context, orderID string) (*models.ActiveDelivery, error) {
	endpoint := fmt.Sprintf("/internal/deliveries/order/%s", url.PathEscape(orderID))
	return g.fetch(ctx, endpoint)
}

func (g *deliveryGW) fetch(ctx context.Context, endpoint string) (*models.ActiveDelivery, error) {
	var envelope deliveryEnvelope
	var notFound bool

	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		err := g.client.GetJSON(ctx, endpoint, &envelope)
		if errors.Is(err, httppkg.ErrNotFound) {
			// An empty result is a valid answer, not a service failure.
			notFound = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delivery service request failed: %w", err)
	}
	if notFound {
		return nil, nil
	}

	return envelope.Data, nil
}
