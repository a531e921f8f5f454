package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/storefront_api/internal/config"
	"github.com/Pesokrava/storefront_api/internal/delivery/events"
	"github.com/Pesokrava/storefront_api/internal/pkg/database"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/worker"
)

const (
	fetchBatchSize = 10
	fetchMaxWait   = 5 * time.Second
	shutdownGrace  = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting rating worker...")

	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	ratingWorker := worker.NewRatingWorker(worker.NewCalculator(db, appLogger), appLogger)

	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to create JetStream context", err)
	}
	appLogger.With("url", cfg.NATS.URL).Info("Connected to NATS JetStream")

	streamConfig := events.NewStreamConfig(js, appLogger)
	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}
	if err := streamConfig.EnsureConsumer(); err != nil {
		appLogger.Fatal("Failed to ensure consumer", err)
	}

	sub, err := js.PullSubscribe(events.StreamSubjects, events.ConsumerName, nats.ManualAck())
	if err != nil {
		appLogger.Fatal("Failed to subscribe to JetStream consumer", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			appLogger.Error("Failed to unsubscribe from JetStream", err)
		}
	}()

	appLogger.WithFields(map[string]any{
		"stream":   events.StreamName,
		"consumer": events.ConsumerName,
	}).Info("Subscribed to JetStream consumer")

	go consumeLoop(sub, ratingWorker, appLogger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	appLogger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := ratingWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}

	appLogger.Info("Rating worker stopped")
}

// consumeLoop fetches review events in batches and feeds them to the worker.
// Failed messages are NAKed and redelivered with backoff until MaxDeliver,
// then dropped; the next event for the product triggers a full recompute, so
// nothing is lost permanently.
func consumeLoop(sub *nats.Subscription, w *worker.RatingWorker, log *logger.Logger) {
	for {
		msgs, err := sub.Fetch(fetchBatchSize, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			log.Error("Failed to fetch messages from JetStream", err)
			time.Sleep(fetchMaxWait)
			continue
		}

		for _, msg := range msgs {
			if err := w.HandleEvent(msg.Data); err != nil {
				log.Error("Failed to handle event", err)
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error("Failed to NAK message", nakErr)
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error("Failed to ACK message", ackErr)
			}
		}
	}
}
