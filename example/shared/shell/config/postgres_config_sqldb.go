package config

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq" // postgres driver
)

// OpenPostgresSQLDB opens and pings a *sql.DB for dsn with the given sizing.
func OpenPostgresSQLDB(ctx context.Context, dsn string, sizing PoolSizing) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
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
