package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects the store named by driver. For "postgres" the pool is
// pinged and, when migrate is set, the schema is applied. The returned close
// function releases the pool.
func Open(ctx context.Context, driver, dsn string, migrate bool) (*Store, func(), error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), func() {}, nil
	case "postgres":
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if migrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return NewPostgresStore(pool), pool.Close, nil
}
