package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurirapp/kurir/internal/pkg/models"
)

// fakeDeliverySource returns a scripted answer and counts lookups.
type fakeDeliverySource struct {
	mu       sync.Mutex
	delivery *models.ActiveDelivery
	err      error
	calls    int
}

func (f *fakeDeliverySource) GetActiveDeliveryByDriver(ctx context.Context, driverID string) (*models.ActiveDelivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.delivery, f.err
}

func (f *fakeDeliverySource) set(delivery *models.ActiveDelivery, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivery = delivery
	f.err = err
}

func (f *fakeDeliverySource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestResolver(source DeliverySource) *Resolver {
	return NewResolver(source, 5*time.Minute, 30*time.Second, time.Second)
}

func TestResolve_ExplicitOrderIDTrusted(t *testing.T) {
	source := &fakeDeliverySource{}
	r := newTestResolver(source)

	orderID, ok := r.Resolve(context.Background(), "driver-1", "order-1")

	require.True(t, ok)
	assert.Equal(t, "order-1", orderID)
	// The explicit ID never triggers a lookup.
	assert.Equal(t, 0, source.callCount())
}

func TestResolve_ExplicitOrderIDCachedForLaterSamples(t *testing.T) {
	source := &fakeDeliverySource{}
	r := newTestResolver(source)

	_, ok := r.Resolve(context.Background(), "driver-1", "order-1")
	require.True(t, ok)

	// The next sample carries no order ID but resolves from the cache.
	orderID, ok := r.Resolve(context.Background(), "driver-1", "")

	require.True(t, ok)
	assert.Equal(t, "order-1", orderID)
	assert.Equal(t, 0, source.callCount())
}

func TestResolve_LookupResultCached(t *testing.T) {
	source := &fakeDeliverySource{delivery: &models.ActiveDelivery{
		OrderID:  "order-7",
		DriverID: "driver-1",
		Status:   models.DeliveryStatusPickedUp,
	}}
	r := newTestResolver(source)

	for i := 0; i < 3; i++ {
		orderID, ok := r.Resolve(context.Background(), "driver-1", "")
		require.True(t, ok)
		assert.Equal(t, "order-7", orderID)
	}

	assert.Equal(t, 1, source.callCount())
}

func TestResolve_NegativeResultCached(t *testing.T) {
	source := &fakeDeliverySource{}
	r := newTestResolver(source)

	for i := 0; i < 3; i++ {
		_, ok := r.Resolve(context.Background(), "driver-1", "")
		assert.False(t, ok)
	}

	// "No active delivery" is cached too; idle drivers must not hammer the
	// delivery service on every sample.
	assert.Equal(t, 1, source.callCount())
}

func TestResolve_NegativeEntryExpires(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeDeliverySource{}
	r := newTestResolver(source)
	r.now = func() time.Time { return current }

	_, ok := r.Resolve(context.Background(), "driver-1", "")
	require.False(t, ok)

	// A new assignment appears after the negative TTL lapses.
	source.set(&models.ActiveDelivery{OrderID: "order-9", DriverID: "driver-1"}, nil)
	current = current.Add(time.Minute)

	orderID, ok := r.Resolve(context.Background(), "driver-1", "")

	require.True(t, ok)
	assert.Equal(t, "order-9", orderID)
	assert.Equal(t, 2, source.callCount())
}

func TestResolve_LookupErrorFailsOpenUncached(t *testing.T) {
	source := &fakeDeliverySource{err: errors.New("delivery service down")}
	r := newTestResolver(source)

	_, ok := r.Resolve(context.Background(), "driver-1", "")
	assert.False(t, ok)

	// Errors are not cached; the next sample retries immediately.
	source.set(&models.ActiveDelivery{OrderID: "order-3", DriverID: "driver-1"}, nil)

	orderID, ok := r.Resolve(context.Background(), "driver-1", "")
	require.True(t, ok)
	assert.Equal(t, "order-3", orderID)
	assert.Equal(t, 2, source.callCount())
}

func TestInvalidate_DropsCachedAssociation(t *testing.T) {
	source := &fakeDeliverySource{delivery: &models.ActiveDelivery{
		OrderID:  "order-5",
		DriverID: "driver-1",
	}}
	r := newTestResolver(source)

	_, ok := r.Resolve(context.Background(), "driver-1", "")
	require.True(t, ok)

	r.Invalidate("driver-1")
	source.set(nil, nil)

	_, ok = r.Resolve(context.Background(), "driver-1", "")
	assert.False(t, ok)
	assert.Equal(t, 2, source.callCount())
}

func TestInvalidate_UnknownDriverIsNoOp(t *testing.T) {
	r := newTestResolver(&fakeDeliverySource{})

	r.Invalidate("driver-unknown")
}
