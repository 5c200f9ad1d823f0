package admission

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegister_Success(t *testing.T) {
	registry := NewRegistry(10)

	err := registry.Register("conn-1", Metadata{UserID: "driver-1", Role: "driver"})

	assert.NoError(t, err)
	assert.Equal(t, 1, registry.Count())
}

func TestRegister_CapacityExceeded(t *testing.T) {
	registry := NewRegistry(2)

	assert.NoError(t, registry.Register("conn-1", Metadata{UserID: "driver-1"}))
	assert.NoError(t, registry.Register("conn-2", Metadata{UserID: "driver-2"}))

	err := registry.Register("conn-3", Metadata{UserID: "driver-3"})

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	// The rejected connection must not change the count.
	assert.Equal(t, 2, registry.Count())
}

func TestRegister_AdmitsAfterUnregister(t *testing.T) {
	registry := NewRegistry(1)

	assert.NoError(t, registry.Register("conn-1", Metadata{UserID: "driver-1"}))
	assert.ErrorIs(t, registry.Register("conn-2", Metadata{UserID: "driver-2"}), ErrCapacityExceeded)

	registry.Unregister("conn-1")

	assert.NoError(t, registry.Register("conn-2", Metadata{UserID: "driver-2"}))
	assert.Equal(t, 1, registry.Count())
}

func TestUnregister_Idempotent(t *testing.T) {
	registry := NewRegistry(5)
	assert.NoError(t, registry.Register("conn-1", Metadata{UserID: "driver-1"}))

	registry.Unregister("conn-1")
	registry.Unregister("conn-1")
	registry.Unregister("never-registered")

	assert.Equal(t, 0, registry.Count())
}

func TestTouch_UnknownConnectionIsNoOp(t *testing.T) {
	registry := NewRegistry(5)

	registry.Touch("never-registered")

	assert.Equal(t, 0, registry.Count())
}

func TestFindIdle_ReturnsOnlyStaleConnections(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := NewRegistry(10)
	registry.now = func() time.Time { return current }

	assert.NoError(t, registry.Register("conn-stale", Metadata{UserID: "driver-1"}))
	assert.NoError(t, registry.Register("conn-fresh", Metadata{UserID: "driver-2"}))

	// Time passes; only conn-fresh shows activity.
	current = current.Add(5 * time.Minute)
	registry.Touch("conn-fresh")

	current = current.Add(1 * time.Minute)
	idle := registry.FindIdle(3 * time.Minute)

	assert.Equal(t, []string{"conn-stale"}, idle)
}

func TestFindIdle_FreshSnapshotPerCall(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := NewRegistry(10)
	registry.now = func() time.Time { return current }

	assert.NoError(t, registry.Register("conn-1", Metadata{UserID: "driver-1"}))

	current = current.Add(10 * time.Minute)
	assert.Len(t, registry.FindIdle(time.Minute), 1)

	// Activity between calls removes the connection from the next snapshot.
	registry.Touch("conn-1")
	assert.Empty(t, registry.FindIdle(time.Minute))
}

func TestRegistry_ConcurrentAdmission(t *testing.T) {
	registry := NewRegistry(50)
	done := make(chan struct{})

	for i := 0; i < 100; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			registry.Register(fmt.Sprintf("conn-%d", i), Metadata{})
		}(i)
	}
	for i := 0; i < 100; i++ {
		<-done
	}

	// The ceiling holds regardless of interleaving.
	assert.Equal(t, 50, registry.Count())
}
