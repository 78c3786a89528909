package routingpool_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	. "github.com/AntonStoeckl/dynamic-datasource-routing-go/testutil/routingtest" //nolint:revive
)

func Test_Integration_Pool_ServesReadsAndWrites(t *testing.T) {
	// setup
	pool := ConnectPoolOrSkip(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	interceptor, err := routing.NewInterceptor()
	require.NoError(t, err)

	// act
	inRecovery, err := routing.Call(ctx, interceptor, routing.Op("HealthMapper", "selectRecoveryState"),
		func(ctx context.Context) (bool, error) {
			rows, err := pool.Query(ctx, "SELECT pg_is_in_recovery()")
			if err != nil {
				return false, err
			}
			defer func() { _ = rows.Close() }()

			var recovery bool
			for rows.Next() {
				if err := rows.Scan(&recovery); err != nil {
					return false, err
				}
			}

			return recovery, rows.Err()
		},
	)

	// assert
	require.NoError(t, err)
	if !pool.HasReplica() {
		assert.False(t, inRecovery, "reads fall back to the primary without a replica")
	}

	err = interceptor.Intercept(ctx, routing.Op("HealthMapper", "touch"), func(ctx context.Context) error {
		return pool.WithinTx(ctx, func(ctx context.Context) error {
			_, err := pool.Exec(ctx, "SELECT pg_is_in_recovery()")
			return err
		})
	})
	require.NoError(t, err)
}
