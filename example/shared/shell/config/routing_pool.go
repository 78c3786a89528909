package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
)

// ErrOpeningPoolFailed is returned when the primary or the replica cannot be reached.
var ErrOpeningPoolFailed = errors.New("opening database pool failed")

// NewRoutingPool opens the primary and, if configured, the replica with the configured adapter
// and combines them into a routing pool.
func NewRoutingPool(ctx context.Context, cfg File, options ...routingpool.Option) (*routingpool.Pool, error) {
	db := cfg.Database

	switch db.Adapter {
	case AdapterPGXPool:
		primary, replica, err := openPair(ctx, db, openPGXPool, (*pgxpool.Pool).Close)
		if err != nil {
			return nil, err
		}

		return routingpool.NewFromPGXPools(primary, replica, options...)

	case AdapterSQLDB:
		primary, replica, err := openPair(ctx, db, OpenPostgresSQLDB, func(db *sql.DB) { _ = db.Close() })
		if err != nil {
			return nil, err
		}

		return routingpool.NewFromSQLDBs(primary, replica, options...)

	case AdapterSQLXDB:
		primary, replica, err := openPair(ctx, db, OpenPostgresSQLX, func(db *sqlx.DB) { _ = db.Close() })
		if err != nil {
			return nil, err
		}

		return routingpool.NewFromSQLX(primary, replica, options...)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, db.Adapter)
	}
}

// openPair opens the primary and the optional replica. A nil replica is returned when no
// replica DSN is configured.
func openPair[T any](
	ctx context.Context,
	db DatabaseConfig,
	open func(ctx context.Context, dsn string, sizing PoolSizing) (*T, error),
	closeFn func(*T),
) (*T, *T, error) {

	primary, err := open(ctx, db.PrimaryDSN, db.Pool)
	if err != nil {
		return nil, nil, errors.Join(ErrOpeningPoolFailed, fmt.Errorf("primary: %w", err))
	}

	if db.ReplicaDSN == "" {
		return primary, nil, nil
	}

	replica, err := open(ctx, db.ReplicaDSN, db.Pool)
	if err != nil {
		closeFn(primary)
		return nil, nil, errors.Join(ErrOpeningPoolFailed, fmt.Errorf("replica: %w", err))
	}

	return primary, replica, nil
}
