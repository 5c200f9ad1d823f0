package batcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/models"
)

// Store persists a batch of samples. Implementations must tolerate
// duplicates: a failed batch is retried whole (at-least-once).
type Store interface {
	SaveBatch(ctx context.Context, samples []models.PositionSample) error
}

var (
	// ErrBufferFull is returned when the pending buffer has hit its retention
	// limit; the sample is dropped and counted.
	ErrBufferFull = errors.New("location buffer full")

	// ErrStopped is returned once the batcher no longer accepts work.
	ErrStopped = errors.New("batcher stopped")
)

// Batcher accumulates samples and flushes them to the store when the size
// threshold is reached or on a fixed interval, decoupling ingestion rate
// from storage latency.
type Batcher struct {
	store          Store
	size           int
	interval       time.Duration
	flushTimeout   time.Duration
	retentionLimit int

	mu      sync.Mutex
	pending []models.PositionSample
	closed  bool

	// flushMu serializes flushes: two flushers must never swap and persist
	// the same batch.
	flushMu sync.Mutex

	dropped uint64

	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewBatcher creates a batcher. retentionLimit bounds the pending buffer,
// including samples held back after failed flushes.
func NewBatcher(store Store, size int, interval, flushTimeout time.Duration, retentionLimit int) *Batcher {
	if retentionLimit < size {
		retentionLimit = size
	}
	return &Batcher{
		store:          store,
		size:           size,
		interval:       interval,
		flushTimeout:   flushTimeout,
		retentionLimit: retentionLimit,
		kick:           make(chan struct{}, 1),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start launches the background flusher: a periodic flush bounds worst-case
// staleness under low traffic, and threshold kicks flush bursts promptly.
func (b *Batcher) Start() {
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.flushAndLog()
			case <-b.kick:
				b.flushAndLog()
			case <-b.stop:
				return
			}
		}
	}()
}

// Enqueue appends a sample to the pending batch. When the batch reaches the
// size threshold an immediate flush is signalled. Never blocks on storage.
func (b *Batcher) Enqueue(sample models.PositionSample) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrStopped
	}
	if len(b.pending) >= b.retentionLimit {
		b.mu.Unlock()
		atomic.AddUint64(&b.dropped, 1)
		return ErrBufferFull
	}
	b.pending = append(b.pending, sample)
	reached := len(b.pending) >= b.size
	b.mu.Unlock()

	if reached {
		select {
		case b.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush drains the pending buffer in chunks of at most the size threshold,
// one SaveBatch call per chunk, preserving order. Samples that accumulate
// behind a slow flush never inflate a single store call past the threshold.
// On failure the chunk is prepended back onto the live buffer up to the
// retention limit; overflow is dropped and counted.
func (b *Batcher) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	for {
		b.mu.Lock()
		if len(b.pending) == 0 {
			b.mu.Unlock()
			return nil
		}
		n := len(b.pending)
		if n > b.size {
			n = b.size
		}
		chunk := b.pending[:n:n]
		b.pending = b.pending[n:]
		b.mu.Unlock()

		if err := b.saveChunk(ctx, chunk); err != nil {
			b.requeue(chunk)
			return fmt.Errorf("persist location batch: %w", err)
		}
	}
}

func (b *Batcher) saveChunk(ctx context.Context, chunk []models.PositionSample) error {
	flushCtx, cancel := context.WithTimeout(ctx, b.flushTimeout)
	defer cancel()
	return b.store.SaveBatch(flushCtx, chunk)
}

// requeue prepends a failed batch in front of samples enqueued during the
// flush, trimming to the retention limit.
func (b *Batcher) requeue(batch []models.PositionSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	combined := make([]models.PositionSample, 0, len(batch)+len(b.pending))
	combined = append(combined, batch...)
	combined = append(combined, b.pending...)

	if over := len(combined) - b.retentionLimit; over > 0 {
		combined = combined[:b.retentionLimit]
		atomic.AddUint64(&b.dropped, uint64(over))
		logger.Warn("Location buffer overflow, dropping samples",
			logger.Int("dropped", over),
			logger.Int("retained", b.retentionLimit))
	}
	b.pending = combined
}

// PendingCount returns the number of buffered samples.
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// DroppedCount returns the total number of samples dropped due to the
// retention limit.
func (b *Batcher) DroppedCount() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

// Stop terminates the background flusher, attempts a final flush of any
// pending samples, then refuses new work.
func (b *Batcher) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		close(b.stop)
		<-b.done

		err = b.Flush(ctx)

		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
	})
	return err
}

func (b *Batcher) flushAndLog() {
	if err := b.Flush(context.Background()); err != nil {
		logger.Error("Location batch flush failed", logger.Err(err))
	}
}
