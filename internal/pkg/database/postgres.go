package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Pesokrava/storefront_api/internal/config"
)

const pingTimeout = 5 * time.Second

// NewPostgresDB opens a pooled connection to PostgreSQL and verifies it.
func NewPostgresDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// WaitForDB retries NewPostgresDB until it succeeds or attempts run out.
// Used at startup so services tolerate the database coming up after them.
func WaitForDB(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*sqlx.DB, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err := NewPostgresDB(cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err

		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("database unavailable after %d attempts: %w", maxRetries, lastErr)
}
