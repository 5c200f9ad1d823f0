package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurirapp/kurir/internal/pkg/models"
)

func sampleAt(driverID string, observedAt time.Time, lat float64) models.PositionSample {
	return models.PositionSample{
		DriverID:   driverID,
		Latitude:   lat,
		Longitude:  106.8,
		ObservedAt: observedAt,
	}
}

func TestPut_NewestTimestampWins(t *testing.T) {
	cache := NewPositionCache(time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newer := sampleAt("driver-1", base.Add(10*time.Second), -6.2)
	older := sampleAt("driver-1", base, -6.1)

	// Out-of-order arrival: the newer sample lands first.
	assert.True(t, cache.Put(newer))
	assert.False(t, cache.Put(older))

	got, ok := cache.Get("driver-1")
	require.True(t, ok)
	assert.Equal(t, newer.Latitude, got.Latitude)
	assert.Equal(t, newer.ObservedAt, got.ObservedAt)
}

func TestPut_EqualTimestampLaterArrivalWins(t *testing.T) {
	cache := NewPositionCache(time.Minute)
	observedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, cache.Put(sampleAt("driver-1", observedAt, -6.1)))
	assert.True(t, cache.Put(sampleAt("driver-1", observedAt, -6.2)))

	got, ok := cache.Get("driver-1")
	require.True(t, ok)
	assert.Equal(t, -6.2, got.Latitude)
}

func TestGet_UnknownDriver(t *testing.T) {
	cache := NewPositionCache(time.Minute)

	_, ok := cache.Get("driver-unknown")

	assert.False(t, ok)
}

func TestGet_ExpiredEntryEvicted(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewPositionCache(2 * time.Minute)
	cache.now = func() time.Time { return current }

	cache.Put(sampleAt("driver-1", current, -6.1))

	current = current.Add(3 * time.Minute)

	_, ok := cache.Get("driver-1")
	assert.False(t, ok)
	// The read evicted the expired entry.
	assert.Equal(t, 0, cache.Len())
}

func TestPut_RefreshesExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewPositionCache(2 * time.Minute)
	cache.now = func() time.Time { return current }

	cache.Put(sampleAt("driver-1", current, -6.1))

	// A later write extends the entry's lifetime past the original deadline.
	current = current.Add(90 * time.Second)
	cache.Put(sampleAt("driver-1", current, -6.2))

	current = current.Add(90 * time.Second)
	got, ok := cache.Get("driver-1")
	assert.True(t, ok)
	assert.Equal(t, -6.2, got.Latitude)
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewPositionCache(2 * time.Minute)
	cache.now = func() time.Time { return current }

	cache.Put(sampleAt("driver-old", current, -6.1))

	current = current.Add(90 * time.Second)
	cache.Put(sampleAt("driver-new", current, -6.2))

	current = current.Add(time.Minute)
	cache.Sweep()

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("driver-new")
	assert.True(t, ok)
}

func TestStop_Idempotent(t *testing.T) {
	cache := NewPositionCache(time.Minute)
	cache.StartSweeper(time.Hour)

	cache.Stop()
	cache.Stop()
}
