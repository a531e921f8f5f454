package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

func setupTestWorker(t *testing.T) (*RatingWorker, sqlmock.Sqlmock, *sqlx.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	log := logger.New("test")
	calculator := NewCalculator(sqlxDB, log)
	worker := NewRatingWorker(calculator, log)

	return worker, mock, sqlxDB
}

func expectReconcile(mock sqlmock.Sqlmock, productID int64) {
	mock.ExpectExec("UPDATE products").
		WithArgs(productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reviews").
		WithArgs(productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestRatingWorker_HandleEvent_Success(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	productID := int64(42)
	event := domain.ReviewEvent{
		EventType: domain.EventReviewCreated,
		ProductID: productID,
		ReviewID:  7,
		Timestamp: time.Now(),
	}

	eventData, err := json.Marshal(event)
	require.NoError(t, err)

	// Expect UPDATE queries after debounce window
	expectReconcile(mock, productID)

	// Handle event
	err = worker.HandleEvent(eventData)
	assert.NoError(t, err)

	// Verify pending update was scheduled
	assert.Equal(t, 1, worker.GetPendingCount())

	// Wait for debounce window + processing time
	time.Sleep(debounceWindow + 100*time.Millisecond)

	// Verify update was processed
	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingWorker_HandleEvent_InvalidJSON(t *testing.T) {
	worker, _, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	invalidJSON := []byte(`{invalid json}`)

	err := worker.HandleEvent(invalidJSON)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestRatingWorker_Debouncing_MultipleEvents(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	productID := int64(42)

	// Expect only ONE database update despite multiple events
	expectReconcile(mock, productID)

	// Send 10 events for the same product within debounce window
	for i := 0; i < 10; i++ {
		event := domain.ReviewEvent{
			EventType: domain.EventReviewCreated,
			ProductID: productID,
			Timestamp: time.Now(),
		}
		eventData, _ := json.Marshal(event)
		err := worker.HandleEvent(eventData)
		assert.NoError(t, err)
		time.Sleep(50 * time.Millisecond) // Within debounce window
	}

	// Should still have 1 pending update (debounced)
	assert.Equal(t, 1, worker.GetPendingCount())

	// Wait for debounce window + processing time
	time.Sleep(debounceWindow + 200*time.Millisecond)

	// Verify only one update was executed
	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingWorker_EventOrdering_IgnoreStaleEvents(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	productID := int64(42)
	now := time.Now()

	// Expect only ONE update (for the newer event)
	expectReconcile(mock, productID)

	// Send newer event first
	newerEvent := domain.ReviewEvent{
		EventType: domain.EventReviewUpdated,
		ProductID: productID,
		Timestamp: now.Add(10 * time.Second),
	}
	newerData, _ := json.Marshal(newerEvent)
	err := worker.HandleEvent(newerData)
	assert.NoError(t, err)

	// Send older event (should be ignored)
	olderEvent := domain.ReviewEvent{
		EventType: domain.EventReviewCreated,
		ProductID: productID,
		Timestamp: now,
	}
	olderData, _ := json.Marshal(olderEvent)
	err = worker.HandleEvent(olderData)
	assert.NoError(t, err)

	// Should still have 1 pending update (stale event ignored)
	assert.Equal(t, 1, worker.GetPendingCount())

	// Wait for processing
	time.Sleep(debounceWindow + 200*time.Millisecond)

	// Verify only one update
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingWorker_MultipleProducts(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	products := []int64{1, 2, 3}

	// Expect one update per product
	for _, productID := range products {
		expectReconcile(mock, productID)
	}

	// Send events for different products
	for _, productID := range products {
		event := domain.ReviewEvent{
			EventType: domain.EventReviewCreated,
			ProductID: productID,
			Timestamp: time.Now(),
		}
		eventData, _ := json.Marshal(event)
		err := worker.HandleEvent(eventData)
		assert.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	// Should have 3 pending updates
	assert.Equal(t, 3, worker.GetPendingCount())

	// Wait for processing
	time.Sleep(debounceWindow + 300*time.Millisecond)

	// Verify all updates executed
	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingWorker_GracefulShutdown(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	productID := int64(42)

	// Expect one update to complete
	expectReconcile(mock, productID)

	event := domain.ReviewEvent{
		EventType: domain.EventReviewCreated,
		ProductID: productID,
		Timestamp: time.Now(),
	}
	eventData, _ := json.Marshal(event)
	err := worker.HandleEvent(eventData)
	assert.NoError(t, err)

	// Verify pending update
	assert.Equal(t, 1, worker.GetPendingCount())

	// Wait for processing to start
	time.Sleep(debounceWindow + 50*time.Millisecond)

	// Shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = worker.Shutdown(ctx)
	assert.NoError(t, err)

	// Verify clean shutdown
	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingWorker_ShutdownCancelsPendingUpdates(t *testing.T) {
	worker, _, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	productID := int64(42)

	// Send event
	event := domain.ReviewEvent{
		EventType: domain.EventReviewCreated,
		ProductID: productID,
		Timestamp: time.Now(),
	}
	eventData, _ := json.Marshal(event)
	err := worker.HandleEvent(eventData)
	assert.NoError(t, err)

	// Verify pending update
	assert.Equal(t, 1, worker.GetPendingCount())

	// Shutdown immediately (before processing starts)
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err = worker.Shutdown(ctx)
	assert.NoError(t, err)

	// Verify pending update was cancelled
	assert.Equal(t, 0, worker.GetPendingCount())
}

func TestRatingWorker_RearmAfterTimerFired(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	productID := int64(42)
	expectReconcile(mock, productID)
	expectReconcile(mock, productID)

	// A timer that fires while its map entry is still armed leaves Stop()
	// returning false; the flush it triggered owns the existing WaitGroup
	// slot, so the re-arm must claim a fresh one or the counter goes
	// negative and panics.
	worker.wg.Add(1)
	flushed := make(chan struct{})
	timer := time.AfterFunc(time.Millisecond, func() {
		worker.flush(productID)
		close(flushed)
	})
	<-flushed

	worker.mu.Lock()
	worker.dirty[productID] = &dirtyProduct{timestamp: time.Now().Add(-time.Minute), timer: timer}
	worker.mu.Unlock()

	worker.markDirty(productID, time.Now())
	assert.Equal(t, 1, worker.GetPendingCount())

	time.Sleep(debounceWindow + 100*time.Millisecond)

	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingWorker_ShutdownAfterTimerFired(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	productID := int64(42)
	expectReconcile(mock, productID)

	worker.wg.Add(1)
	flushed := make(chan struct{})
	timer := time.AfterFunc(time.Millisecond, func() {
		worker.flush(productID)
		close(flushed)
	})
	<-flushed

	// The fired timer's flush already released its WaitGroup slot; Shutdown
	// must not release it a second time.
	worker.mu.Lock()
	worker.dirty[productID] = &dirtyProduct{timestamp: time.Now(), timer: timer}
	worker.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := worker.Shutdown(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}
