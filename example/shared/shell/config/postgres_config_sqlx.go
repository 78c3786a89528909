package config

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// OpenPostgresSQLX opens and pings a *sqlx.DB for dsn with the given sizing.
func OpenPostgresSQLX(ctx context.Context, dsn string, sizing PoolSizing) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// Configure connection pool settings
	db.SetMaxOpenConns(int(sizing.MaxConns))
	db.SetMaxIdleConns(int(sizing.MinConns))
	db.SetConnMaxLifetime(sizing.MaxConnLifetime)
	db.SetConnMaxIdleTime(sizing.MaxConnIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, sizing.ConnectTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}
