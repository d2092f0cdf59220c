package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPgxPool creates a new PostgreSQL connection pool. When checkConnection is
// set the pool is pinged with exponential backoff until maxWait elapses, so the
// service can start alongside a database that is still booting.
func NewPgxPool(ctx context.Context, databaseURL string, checkConnection bool, maxWait time.Duration) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	// pgxpool.ParseConfig automatically reads environment variables like PGHOST, PGUSER, etc.
	// but we can also force the use of the URL.
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if !checkConnection {
		return pool, nil
	}

	if err := PingWithBackoff(ctx, pool.Ping, maxWait); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database.")
	return pool, nil
}

// PingWithBackoff retries ping with exponential backoff until it succeeds,
// ctx is cancelled or maxWait elapses.
func PingWithBackoff(ctx context.Context, ping func(context.Context) error, maxWait time.Duration) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxInterval = 10 * time.Second
	expBackoff.MaxElapsedTime = maxWait

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := ping(ctx)
		if err != nil {
			slog.Warn("Connection attempt failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		}
		return err
	}, backoff.WithContext(expBackoff, ctx))
}

// ClosePgxPool closes the PostgreSQL connection pool.
func ClosePgxPool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
		slog.Info("PostgreSQL connection pool closed.")
	}
}
