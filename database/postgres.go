package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates and validates the connection pool
func ConnectPostgres(ctx context.Context, opts Options) (*PostgresStore, error) {
	config, err := poolConfig(opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// pgxpool dials lazily; force a round trip before reporting success.
	checkCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := fastHealthCheck(checkCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// poolConfig parses the URL and applies pool bounds. The database from the
// URL (or the server default) is only replaced when a name was given.
func poolConfig(opts Options) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if opts.Name != "" {
		config.ConnConfig.Database = opts.Name
	}

	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 15 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	config.ConnConfig.ConnectTimeout = opts.Timeout
	config.ConnConfig.RuntimeParams["application_name"] = opts.AppName
	return config, nil
}

// fastHealthCheck performs a lightweight database connectivity check
func fastHealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	var result int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Kind reports the driver name.
func (p *PostgresStore) Kind() string { return "postgres" }

// Ping runs the health query.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return fastHealthCheck(ctx, p.pool)
}

// Close releases every pooled connection. pgxpool.Close blocks until
// acquired connections are returned, so it runs under ctx.
func (p *PostgresStore) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.pool.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("closing postgres pool: %w", ctx.Err())
	}
}
