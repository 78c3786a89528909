package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
)

// Supported values of DatabaseConfig.Adapter.
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLXDB  = "sqlx.db"
)

var (
	ErrLoadingConfigFailed = errors.New("loading config file failed")
	ErrUnknownConfigKey    = errors.New("unknown config key")
	ErrUnknownAdapter      = errors.New("unknown database adapter")
	ErrInvalidPoolSizing   = errors.New("invalid pool sizing")
	ErrInvalidHintKey      = errors.New("operation hint key must be <unit>.<operation>")
)

// File is the content of the routing example's TOML configuration file.
type File struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Routing  RoutingConfig  `toml:"routing"`
}

// DatabaseConfig selects the driver and describes both pools.
// An empty ReplicaDSN means the primary serves reads as well.
type DatabaseConfig struct {
	Adapter    string     `toml:"adapter"`
	PrimaryDSN string     `toml:"primary_dsn"`
	ReplicaDSN string     `toml:"replica_dsn"`
	Pool       PoolSizing `toml:"pool"`
}

// PoolSizing is applied to the primary and the replica pool alike.
type PoolSizing struct {
	MaxConns        int32         `toml:"max_conns"`
	MinConns        int32         `toml:"min_conns"`
	MaxConnLifetime time.Duration `toml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `toml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `toml:"connect_timeout"`
}

// LoggingConfig configures the example's logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// RoutingConfig holds hints as text, e.g.
//
//	[routing.units]
//	CustomerService = "write"
//
//	[routing.operations]
//	"CustomerService.getById" = "read"
type RoutingConfig struct {
	Units      map[string]string `toml:"units"`
	Operations map[string]string `toml:"operations"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() File {
	return File{
		Database: DatabaseConfig{
			Adapter:    AdapterPGXPool,
			PrimaryDSN: defaultPrimaryDSN,
			ReplicaDSN: defaultReplicaDSN,
			Pool: PoolSizing{
				MaxConns:        8,
				MinConns:        2,
				MaxConnLifetime: time.Hour,
				MaxConnIdleTime: time.Minute * 5,
				ConnectTimeout:  time.Second * 5,
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Routing: RoutingConfig{
			Units:      map[string]string{},
			Operations: map[string]string{},
		},
	}
}

// Load reads the TOML file at path on top of Defaults and applies the environment overrides.
// An empty path yields the defaults with the overrides applied.
func Load(path string) (File, error) {
	cfg := Defaults()

	if path != "" {
		metaData, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return File{}, errors.Join(ErrLoadingConfigFailed, err)
		}

		if undecoded := metaData.Undecoded(); len(undecoded) > 0 {
			return File{}, errors.Join(ErrLoadingConfigFailed, fmt.Errorf("%w: %s", ErrUnknownConfigKey, undecoded[0]))
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return File{}, err
	}

	return cfg, nil
}

func (f *File) applyEnv() {
	f.Database.PrimaryDSN = envOr(EnvPrimaryDSN, f.Database.PrimaryDSN)
	f.Database.ReplicaDSN = envOr(EnvReplicaDSN, f.Database.ReplicaDSN)
}

// Validate checks the adapter, the pool sizing and every hint.
func (f *File) Validate() error {
	switch f.Database.Adapter {
	case AdapterPGXPool, AdapterSQLDB, AdapterSQLXDB:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAdapter, f.Database.Adapter)
	}

	if f.Database.Pool.MaxConns <= 0 || f.Database.Pool.MinConns < 0 || f.Database.Pool.MinConns > f.Database.Pool.MaxConns {
		return fmt.Errorf("%w: min %d, max %d", ErrInvalidPoolSizing, f.Database.Pool.MinConns, f.Database.Pool.MaxConns)
	}

	if f.Database.Pool.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect timeout must be positive", ErrInvalidPoolSizing)
	}

	_, err := f.Hints()

	return err
}

// Hints converts the hint tables into a registry for routing.WithHints.
func (f *File) Hints() (*routing.HintRegistry, error) {
	return f.RegisterHints(routing.NewHintRegistry())
}

// RegisterHints adds the hint tables to registry, replacing hints registered before for the
// same unit or operation.
func (f *File) RegisterHints(registry *routing.HintRegistry) (*routing.HintRegistry, error) {
	for unit, value := range f.Routing.Units {
		hint, err := routing.ParseHint(value)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", unit, err)
		}

		registry.ForUnit(unit, hint)
	}

	for key, value := range f.Routing.Operations {
		separator := strings.LastIndex(key, ".")
		if separator <= 0 || separator == len(key)-1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHintKey, key)
		}

		hint, err := routing.ParseHint(value)
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", key, err)
		}

		registry.ForOperation(key[:separator], key[separator+1:], hint)
	}

	return registry, nil
}
