package routingtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/shell/config"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
)

// Environment of the database tests. EnvAdapterType selects pgx.pool (default), sql.db or sqlx.db.
const (
	EnvTestPrimaryDSN = "ROUTING_TEST_PRIMARY_DSN"
	EnvTestReplicaDSN = "ROUTING_TEST_REPLICA_DSN"
	EnvAdapterType    = "ADAPTER_TYPE"
)

// ConnectPoolOrSkip opens a routing pool on the test databases with the adapter named by
// EnvAdapterType, or skips the test when EnvTestPrimaryDSN is not set.
// The pool is closed when the test finishes.
func ConnectPoolOrSkip(t testing.TB, options ...routingpool.Option) *routingpool.Pool {
	t.Helper()

	primaryDSN := os.Getenv(EnvTestPrimaryDSN)
	if primaryDSN == "" {
		t.Skipf("%s not set, skipping database test", EnvTestPrimaryDSN)
	}

	cfg := config.Defaults()
	cfg.Database.PrimaryDSN = primaryDSN
	cfg.Database.ReplicaDSN = os.Getenv(EnvTestReplicaDSN)

	if adapter := strings.ToLower(os.Getenv(EnvAdapterType)); adapter != "" {
		cfg.Database.Adapter = adapter
	}

	require.NoError(t, cfg.Validate(), "invalid database test configuration")

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Database.Pool.ConnectTimeout)
	defer cancel()

	pool, err := config.NewRoutingPool(ctx, cfg, options...)
	require.NoError(t, err, "error connecting to the test databases")

	t.Cleanup(func() { _ = pool.Close() })

	return pool
}
