package cache

import (
	"sync"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/models"
)

type entry struct {
	sample    models.PositionSample
	expiresAt time.Time
}

// PositionCache is the in-process latest-known-position map. It is a
// correctness-transparent cache: its whole state can be lost and rebuilt
// from the durable store.
type PositionCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewPositionCache creates a cache whose entries expire ttl after the last
// write.
func NewPositionCache(ttl time.Duration) *PositionCache {
	return &PositionCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Put stores the sample as the driver's latest position unless an existing
// entry carries a strictly newer ObservedAt: the newest sample by timestamp
// wins regardless of arrival order, ties go to the later arrival. It reports
// whether the sample was accepted as the newest; callers suppress downstream
// fan-out of rejected samples so watchers never see positions move backwards
// in time.
func (c *PositionCache) Put(sample models.PositionSample) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[sample.DriverID]; ok {
		if existing.sample.ObservedAt.After(sample.ObservedAt) {
			return false
		}
	}

	c.entries[sample.DriverID] = entry{
		sample:    sample,
		expiresAt: c.now().Add(c.ttl),
	}
	return true
}

// Get returns the driver's cached position if present and not expired.
// Expired entries are evicted on read; the caller falls back to the durable
// store.
func (c *PositionCache) Get(driverID string) (models.PositionSample, bool) {
	c.mu.RLock()
	e, ok := c.entries[driverID]
	c.mu.RUnlock()

	if !ok {
		return models.PositionSample{}, false
	}

	if !e.expiresAt.After(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock: a fresher write may have landed.
		if cur, ok := c.entries[driverID]; ok && !cur.expiresAt.After(c.now()) {
			delete(c.entries, driverID)
		}
		c.mu.Unlock()
		return models.PositionSample{}, false
	}

	return e.sample, true
}

// Len returns the number of cached entries, expired or not.
func (c *PositionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all expired entries.
func (c *PositionCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, id)
		}
	}
}

// StartSweeper runs Sweep on the given interval until Stop is called.
func (c *PositionCache) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the background sweeper.
func (c *PositionCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
