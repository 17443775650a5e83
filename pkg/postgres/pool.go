package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pooled connections are recycled on these horizons unless the config says
// otherwise. The conversation store holds one JSONB document per
// conversation and sees short bursts per turn, so idle connections are
// cheap to drop.
const (
	defaultConnLifetime = 1 * time.Hour
	defaultConnIdleTime = 15 * time.Minute
)

// Config describes how the orchestrator reaches its state database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32

	// ConnLifetime and ConnIdleTime bound connection reuse. Zero means
	// the package defaults above.
	ConnLifetime time.Duration
	ConnIdleTime time.Duration
}

// DSN builds the connection string. Host, port, and sslmode fall back to
// localhost, 5432, and require.
func (c Config) DSN() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, host, port, c.Database, sslMode,
	)
}

// NewPool opens a pgx pool and verifies connectivity with a ping before
// handing it back. Conn limits and lifetimes come from cfg; unset values
// get the package defaults.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	poolCfg.MaxConnLifetime = cfg.ConnLifetime
	if poolCfg.MaxConnLifetime == 0 {
		poolCfg.MaxConnLifetime = defaultConnLifetime
	}
	poolCfg.MaxConnIdleTime = cfg.ConnIdleTime
	if poolCfg.MaxConnIdleTime == 0 {
		poolCfg.MaxConnIdleTime = defaultConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}

// HealthCheck pings the database. The readiness probe routes through here.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check: %w", err)
	}
	return nil
}
