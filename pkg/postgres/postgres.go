package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds connection settings for one logical database.
type Config struct {
	URL             string `split_words:"true" required:"true"`
	MaxConns        int32  `split_words:"true" default:"10"`
	MinConns        int32  `split_words:"true" default:"2"`
	MaxConnLifetime int    `split_words:"true" default:"3600"`
	MaxConnIdleTime int    `split_words:"true" default:"1800"`
}

// New builds a pgx pool for the configured database and verifies the
// connection with a ping before returning it.
func (c *Config) New(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolConfig.MaxConns = c.MaxConns
	poolConfig.MinConns = c.MinConns
	poolConfig.MaxConnLifetime = time.Duration(c.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(c.MaxConnIdleTime) * time.Second
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
