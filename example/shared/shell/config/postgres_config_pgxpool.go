package config

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPGXPoolConfig creates a pgxpool.Config for dsn with the given sizing.
func PostgresPGXPoolConfig(dsn string, sizing PoolSizing) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	dbConfig.MaxConns = sizing.MaxConns
	dbConfig.MinConns = sizing.MinConns
	dbConfig.MaxConnLifetime = sizing.MaxConnLifetime
	dbConfig.MaxConnIdleTime = sizing.MaxConnIdleTime
	dbConfig.ConnConfig.ConnectTimeout = sizing.ConnectTimeout

	return dbConfig, nil
}

func openPGXPool(ctx context.Context, dsn string, sizing PoolSizing) (*pgxpool.Pool, error) {
	dbConfig, err := PostgresPGXPoolConfig(dsn, sizing)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, pingErr
	}

	return pool, nil
}
