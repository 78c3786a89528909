// Package adapters provides database adapter implementations for the routing pool.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. Each adapter wraps exactly one physical pool (either a primary
// or a replica); choosing between them is the job of the routing pool, not of the adapters.
package adapters
