// Package config provides configuration helpers for the routing example: PostgreSQL DSNs for the
// primary and the replica, a TOML configuration file with environment overrides, factory functions
// for the supported drivers (pgx.Pool, sql.DB, sqlx.DB) and the OpenTelemetry provider setup.
//
// This package is part of the shell (infrastructure) layer of the example.
package config
