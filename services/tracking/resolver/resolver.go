package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/models"
)

// DeliverySource answers which delivery a driver is currently assigned to.
// Returning (nil, nil) means the driver has no active delivery.
type DeliverySource interface {
	GetActiveDeliveryByDriver(ctx context.Context, driverID string) (*models.ActiveDelivery, error)
}

type association struct {
	orderID   string
	negative  bool
	expiresAt time.Time
}

// Resolver maps drivers to the order they are currently delivering, caching
// associations so the hot path rarely touches the delivery service. Lookups
// are bounded by a timeout and fail open to "no active delivery".
type Resolver struct {
	source      DeliverySource
	ttl         time.Duration
	negativeTTL time.Duration
	timeout     time.Duration

	mu      sync.RWMutex
	entries map[string]association
	now     func() time.Time
}

// NewResolver creates a resolver. negativeTTL should be short so idle
// drivers don't hammer the delivery service but new assignments are picked
// up quickly.
func NewResolver(source DeliverySource, ttl, negativeTTL, timeout time.Duration) *Resolver {
	return &Resolver{
		source:      source,
		ttl:         ttl,
		negativeTTL: negativeTTL,
		timeout:     timeout,
		entries:     make(map[string]association),
		now:         time.Now,
	}
}

// Resolve returns the order the driver is delivering, if any. An explicit
// order ID on the sample is trusted and cached. Otherwise the cached
// association is used; on a miss the delivery source is queried and the
// result cached, positive or negative.
func (r *Resolver) Resolve(ctx context.Context, driverID, explicitOrderID string) (string, bool) {
	if explicitOrderID != "" {
		r.cache(driverID, explicitOrderID, false)
		return explicitOrderID, true
	}

	r.mu.RLock()
	a, ok := r.entries[driverID]
	r.mu.RUnlock()

	if ok && a.expiresAt.After(r.now()) {
		if a.negative {
			return "", false
		}
		return a.orderID, true
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	delivery, err := r.source.GetActiveDeliveryByDriver(lookupCtx, driverID)
	if err != nil {
		// Fail open: a slow or failing delivery service must not block
		// ingestion. The result is not cached so the next sample retries.
		logger.Warn("Active delivery lookup failed, treating as no delivery",
			logger.String("driver_id", driverID),
			logger.Err(err))
		return "", false
	}

	if delivery == nil {
		r.cache(driverID, "", true)
		return "", false
	}

	r.cache(driverID, delivery.OrderID, false)
	return delivery.OrderID, true
}

// Invalidate drops the cached association for a driver, called when a
// delivery reaches a terminal state.
func (r *Resolver) Invalidate(driverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, driverID)
}

func (r *Resolver) cache(driverID, orderID string, negative bool) {
	ttl := r.ttl
	if negative {
		ttl = r.negativeTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[driverID] = association{
		orderID:   orderID,
		negative:  negative,
		expiresAt: r.now().Add(ttl),
	}
}
