package admission

import (
	"errors"
	"sync"
	"time"
)

// ErrCapacityExceeded is returned when the connection ceiling is reached.
// The caller closes the connection; the server never retries admission.
var ErrCapacityExceeded = errors.New("connection capacity exceeded")

// Metadata carries connection attributes recorded at admission time.
type Metadata struct {
	UserID     string
	Role       string
	RemoteAddr string
}

// ConnectionRecord tracks one live real-time connection.
type ConnectionRecord struct {
	ConnID         string
	ConnectedAt    time.Time
	LastActivityAt time.Time
	Metadata       Metadata
}

// Registry admits connections against a global ceiling and tracks
// per-connection liveness for idle reaping.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*ConnectionRecord
	limit int
	now   func() time.Time
}

// NewRegistry creates a registry with the given connection ceiling.
func NewRegistry(limit int) *Registry {
	return &Registry{
		conns: make(map[string]*ConnectionRecord),
		limit: limit,
		now:   time.Now,
	}
}

// Register records a new connection. It fails with ErrCapacityExceeded when
// the ceiling is reached, leaving the connection count unchanged.
func (r *Registry) Register(connID string, meta Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.conns) >= r.limit {
		return ErrCapacityExceeded
	}

	now := r.now()
	r.conns[connID] = &ConnectionRecord{
		ConnID:         connID,
		ConnectedAt:    now,
		LastActivityAt: now,
		Metadata:       meta,
	}
	return nil
}

// Touch updates the connection's last activity time. Unknown connections
// (already disconnected) are a no-op.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.conns[connID]; ok {
		rec.LastActivityAt = r.now()
	}
}

// Unregister removes the connection record. Idempotent.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// FindIdle returns a snapshot of connection IDs whose last activity is older
// than the threshold. Each call produces a fresh snapshot.
func (r *Registry) FindIdle(threshold time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-threshold)
	var idle []string
	for id, rec := range r.conns {
		if rec.LastActivityAt.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	return idle
}
