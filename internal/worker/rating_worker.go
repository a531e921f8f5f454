package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

const (
	// Events for the same product within this window collapse into one
	// database recompute.
	debounceWindow = 1 * time.Second

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	attemptTimeout = 5 * time.Second
)

// RatingWorker consumes review events and keeps product rating aggregates in
// sync. Events are treated as dirty-flags: the worker recomputes from database
// state, so duplicate or reordered deliveries are harmless.
type RatingWorker struct {
	calculator *Calculator
	logger     *logger.Logger

	mu         sync.Mutex
	dirty      map[int64]*dirtyProduct
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// dirtyProduct tracks the newest event timestamp seen for a product and the
// timer that will flush it.
type dirtyProduct struct {
	timestamp time.Time
	timer     *time.Timer
}

func NewRatingWorker(calculator *Calculator, logger *logger.Logger) *RatingWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &RatingWorker{
		calculator: calculator,
		logger:     logger,
		dirty:      make(map[int64]*dirtyProduct),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// HandleEvent decodes a review event and schedules a debounced recompute for
// its product.
func (w *RatingWorker) HandleEvent(data []byte) error {
	var event domain.ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"product_id": event.ProductID,
		"review_id":  event.ReviewID,
	}).Info("Received review event")

	w.markDirty(event.ProductID, event.Timestamp)
	return nil
}

// markDirty records the event and (re)arms the debounce timer. Events older
// than the newest one already pending are dropped.
func (w *RatingWorker) markDirty(productID int64, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	if existing, ok := w.dirty[productID]; ok {
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"product_id": productID,
				"event_ts":   timestamp,
			}).Debug("Ignoring stale event")
			return
		}
		// Stop reports false when the timer already fired; that flush will
		// still run and consume the existing WaitGroup slot, so the re-armed
		// timer needs its own.
		if !existing.timer.Stop() {
			w.wg.Add(1)
		}
	} else {
		w.wg.Add(1)
	}

	timer := time.AfterFunc(debounceWindow, func() {
		w.flush(productID)
	})
	w.dirty[productID] = &dirtyProduct{timestamp: timestamp, timer: timer}
}

// flush runs the recompute for one product, retrying with exponential backoff.
func (w *RatingWorker) flush(productID int64) {
	defer w.wg.Done()

	w.mu.Lock()
	delete(w.dirty, productID)
	w.mu.Unlock()

	w.logger.With("product_id", productID).Info("Processing rating update")

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			w.logger.WithFields(map[string]any{
				"product_id": productID,
				"attempt":    attempt,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying rating update")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}
			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, attemptTimeout)
		err := w.calculator.CalculateAndUpdate(ctx, productID)
		cancel()

		if err == nil {
			return
		}
		lastErr = err
		w.logger.Errorf(err, "Failed to update rating for product %d (attempt %d)", productID, attempt)
	}

	// Giving up is safe: the next event for this product recomputes everything.
	w.logger.Errorf(lastErr, "Rating update for product %d failed after %d attempts", productID, maxRetries)
}

// Shutdown stops accepting events, cancels armed timers and waits for
// in-flight recomputes until ctx expires.
func (w *RatingWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down rating worker...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	cancelled := 0
	for _, d := range w.dirty {
		// A timer that already fired has a flush waiting on the mutex; it
		// will release its own WaitGroup slot, so only release for timers
		// that were actually stopped.
		if d.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
	}
	w.dirty = make(map[int64]*dirtyProduct)
	w.mu.Unlock()

	w.logger.With("cancelled_updates", cancelled).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// GetPendingCount reports how many products are awaiting a recompute.
func (w *RatingWorker) GetPendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirty)
}
