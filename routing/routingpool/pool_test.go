package routingpool_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
	. "github.com/AntonStoeckl/dynamic-datasource-routing-go/testutil/routingtest" //nolint:revive
)

func givenPool(t *testing.T, withReplica bool, options ...routingpool.Option) (*routingpool.Pool, *RecordingTarget, *RecordingTarget) {
	t.Helper()

	primary := NewRecordingTarget(routingpool.TargetPrimary)
	replica := NewRecordingTarget(routingpool.TargetReplica)

	var replicaTarget routingpool.Target
	if withReplica {
		replicaTarget = replica
	}

	pool, err := routingpool.New(primary, replicaTarget, options...)
	require.NoError(t, err)

	return pool, primary, replica
}

func Test_Pool_Query_RoutesByCurrentRoute(t *testing.T) {
	testCases := []struct {
		name            string
		ctx             context.Context
		withReplica     bool
		expectedPrimary int
		expectedReplica int
	}{
		{
			name:            "read route goes to replica",
			ctx:             routing.SetRoute(context.Background(), routing.RouteRead),
			withReplica:     true,
			expectedReplica: 1,
		},
		{
			name:            "write route goes to primary",
			ctx:             routing.SetRoute(context.Background(), routing.RouteWrite),
			withReplica:     true,
			expectedPrimary: 1,
		},
		{
			name:            "no route goes to primary",
			ctx:             context.Background(),
			withReplica:     true,
			expectedPrimary: 1,
		},
		{
			name:            "read route without replica goes to primary",
			ctx:             routing.SetRoute(context.Background(), routing.RouteRead),
			withReplica:     false,
			expectedPrimary: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			pool, primary, replica := givenPool(t, tc.withReplica)

			// act
			rows, err := pool.Query(tc.ctx, "SELECT 1")

			// assert
			require.NoError(t, err)
			require.NoError(t, rows.Close())
			assert.Equal(t, tc.expectedPrimary, primary.StatementCount())
			assert.Equal(t, tc.expectedReplica, replica.StatementCount())
			assert.Equal(t, tc.withReplica, pool.HasReplica())
		})
	}
}

func Test_Pool_Exec_RoutesByCurrentRoute(t *testing.T) {
	// setup
	pool, primary, replica := givenPool(t, true)

	// act
	_, readErr := pool.Exec(routing.SetRoute(context.Background(), routing.RouteRead), "REFRESH MATERIALIZED VIEW totals")
	result, writeErr := pool.Exec(context.Background(), "DELETE FROM customer WHERE id = $1", 7)

	// assert
	require.NoError(t, readErr)
	require.NoError(t, writeErr)
	assert.Equal(t, 1, replica.StatementCount())
	assert.Equal(t, 1, primary.StatementCount())

	rowsAffected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), rowsAffected)

	statement, ok := primary.LastStatement()
	require.True(t, ok)
	assert.Equal(t, []any{7}, statement.Args)
}

func Test_Pool_ThroughInterceptor_ReadsAndWritesSplit(t *testing.T) {
	// setup
	pool, primary, replica := givenPool(t, true)
	interceptor, err := routing.NewInterceptor()
	require.NoError(t, err)
	mapper := interceptor.Unit("CustomerMapper")

	// act
	selectErr := mapper.Intercept(context.Background(), "selectById", func(ctx context.Context) error {
		rows, err := pool.Query(ctx, "SELECT * FROM customer WHERE id = $1", 1)
		if err != nil {
			return err
		}

		return rows.Close()
	})
	insertErr := mapper.Intercept(context.Background(), "insert", func(ctx context.Context) error {
		_, err := pool.Exec(ctx, "INSERT INTO customer (name) VALUES ($1)", "Ada")
		return err
	})

	// assert
	require.NoError(t, selectErr)
	require.NoError(t, insertErr)
	assert.True(t, replica.HasStatementContaining("SELECT * FROM customer"))
	assert.True(t, primary.HasStatementContaining("INSERT INTO customer"))
	assert.False(t, primary.HasStatementContaining("SELECT"))
}

func Test_Pool_Query_Failure_IsWrapped(t *testing.T) {
	// setup
	pool, _, replica := givenPool(t, true)
	dbErr := errors.New("relation does not exist")
	replica.FailQueriesWith(dbErr)

	// act
	_, err := pool.Query(routing.SetRoute(context.Background(), routing.RouteRead), "SELECT * FROM nope")

	// assert
	assert.ErrorIs(t, err, routingpool.ErrQueryFailed)
	assert.ErrorIs(t, err, dbErr)
}

func Test_Pool_Exec_Failure_IsWrapped(t *testing.T) {
	// setup
	pool, primary, _ := givenPool(t, true)
	dbErr := errors.New("unique violation")
	primary.FailExecWith(dbErr)

	// act
	_, err := pool.Exec(context.Background(), "INSERT INTO customer (code) VALUES ($1)", "C1")

	// assert
	assert.ErrorIs(t, err, routingpool.ErrExecFailed)
	assert.ErrorIs(t, err, dbErr)
}

func Test_Pool_WithinTx_CommitsOnSuccess(t *testing.T) {
	// setup
	pool, primary, replica := givenPool(t, true)

	// act
	err := pool.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, pool.InTx(ctx))

		if _, err := pool.Exec(ctx, "INSERT INTO orders (order_no) VALUES ($1)", "O-1"); err != nil {
			return err
		}

		_, err := pool.Exec(ctx, "INSERT INTO orders (order_no) VALUES ($1)", "O-2")

		return err
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, primary.Commits())
	assert.Equal(t, 0, primary.Rollbacks())
	assert.Equal(t, 0, replica.StatementCount())

	statements := primary.Statements()
	require.Len(t, statements, 3)
	assert.Equal(t, ActionBegin, statements[0].Action)
	assert.True(t, statements[1].InTx)
	assert.True(t, statements[2].InTx)
}

func Test_Pool_WithinTx_StatementsStayOnTransactionWhateverTheirRoute(t *testing.T) {
	// setup
	pool, primary, replica := givenPool(t, true)

	// act
	err := pool.WithinTx(context.Background(), func(ctx context.Context) error {
		rows, err := pool.Query(routing.SetRoute(ctx, routing.RouteRead), "SELECT count(*) FROM orders")
		if err != nil {
			return err
		}

		return rows.Close()
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, replica.StatementCount())
	assert.True(t, primary.HasStatementContaining("SELECT count(*)"))
}

func Test_Pool_WithinTx_BeginsOnReplicaForReadRoute(t *testing.T) {
	// setup
	pool, primary, replica := givenPool(t, true)

	// act
	err := pool.WithinTx(routing.SetRoute(context.Background(), routing.RouteRead), func(ctx context.Context) error {
		rows, err := pool.Query(ctx, "SELECT 1")
		if err != nil {
			return err
		}

		return rows.Close()
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, primary.StatementCount())
	assert.Equal(t, 1, replica.Commits())
}

func Test_Pool_WithinTx_RollsBackOnError(t *testing.T) {
	// setup
	pool, primary, _ := givenPool(t, true)
	fnErr := errors.New("validation failed")

	// act
	err := pool.WithinTx(context.Background(), func(context.Context) error {
		return fnErr
	})

	// assert
	assert.Same(t, fnErr, err)
	assert.Equal(t, 0, primary.Commits())
	assert.Equal(t, 1, primary.Rollbacks())
}

func Test_Pool_WithinTx_RollbackFailure_IsJoined(t *testing.T) {
	// setup
	pool, primary, _ := givenPool(t, true)
	fnErr := errors.New("validation failed")
	rollbackErr := errors.New("connection reset")
	primary.FailRollbackWith(rollbackErr)

	// act
	err := pool.WithinTx(context.Background(), func(context.Context) error {
		return fnErr
	})

	// assert
	assert.ErrorIs(t, err, fnErr)
	assert.ErrorIs(t, err, routingpool.ErrRollbackFailed)
	assert.ErrorIs(t, err, rollbackErr)
}

func Test_Pool_WithinTx_RollsBackOnPanic(t *testing.T) {
	// setup
	pool, primary, _ := givenPool(t, true)

	// act
	assert.PanicsWithValue(t, "boom", func() {
		_ = pool.WithinTx(context.Background(), func(context.Context) error {
			panic("boom")
		})
	})

	// assert
	assert.Equal(t, 1, primary.Rollbacks())
	assert.Equal(t, 0, primary.Commits())
}

func Test_Pool_WithinTx_CommitFailure_IsWrapped(t *testing.T) {
	// setup
	pool, primary, _ := givenPool(t, true)
	commitErr := errors.New("serialization failure")
	primary.FailCommitWith(commitErr)

	// act
	err := pool.WithinTx(context.Background(), func(context.Context) error { return nil })

	// assert
	assert.ErrorIs(t, err, routingpool.ErrCommitFailed)
	assert.ErrorIs(t, err, commitErr)
}

func Test_Pool_WithinTx_BeginFailure_IsWrapped(t *testing.T) {
	// setup
	pool, primary, _ := givenPool(t, true)
	beginErr := errors.New("too many connections")
	primary.FailBeginWith(beginErr)
	called := false

	// act
	err := pool.WithinTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	// assert
	assert.ErrorIs(t, err, routingpool.ErrBeginTxFailed)
	assert.ErrorIs(t, err, beginErr)
	assert.False(t, called)
}

func Test_Pool_WithinTx_Nested_JoinsOuterTransaction(t *testing.T) {
	// setup
	pool, primary, _ := givenPool(t, true)

	// act
	err := pool.WithinTx(context.Background(), func(ctx context.Context) error {
		return pool.WithinTx(ctx, func(ctx context.Context) error {
			_, err := pool.Exec(ctx, "UPDATE customer SET status = $1", "INACTIVE")
			return err
		})
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, primary.Commits())

	begins := 0
	for _, statement := range primary.Statements() {
		if statement.Action == ActionBegin {
			begins++
		}
	}
	assert.Equal(t, 1, begins)
}

func Test_Pool_WithinTx_WithNilFunc_ReturnsError(t *testing.T) {
	pool, _, _ := givenPool(t, false)

	err := pool.WithinTx(context.Background(), nil)

	assert.ErrorIs(t, err, routingpool.ErrNilTxFunc)
}

func Test_Pool_InTx_IgnoresTransactionsOfOtherPools(t *testing.T) {
	// setup
	poolA, _, _ := givenPool(t, false)
	poolB, primaryB, _ := givenPool(t, false)

	// act
	err := poolA.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.False(t, poolB.InTx(ctx))

		_, err := poolB.Exec(ctx, "DELETE FROM orders")

		return err
	})

	// assert
	require.NoError(t, err)
	statement, ok := primaryB.LastStatement()
	require.True(t, ok)
	assert.False(t, statement.InTx)
}

func Test_Pool_Close_ClosesBothTargets(t *testing.T) {
	// setup
	pool, primary, replica := givenPool(t, true)

	// act
	err := pool.Close()

	// assert
	require.NoError(t, err)
	assert.True(t, primary.Closed())
	assert.True(t, replica.Closed())
}

func Test_Pool_Close_ReportsEveryFailure(t *testing.T) {
	// setup
	pool, primary, replica := givenPool(t, true)
	primaryErr := errors.New("primary close failed")
	replicaErr := errors.New("replica close failed")
	primary.FailCloseWith(primaryErr)
	replica.FailCloseWith(replicaErr)

	// act
	err := pool.Close()

	// assert
	assert.ErrorIs(t, err, routingpool.ErrClosingPoolFailed)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, replicaErr)
	assert.True(t, replica.Closed())
}

func Test_New_WithNilPrimary_ReturnsError(t *testing.T) {
	testCases := []struct {
		name   string
		create func() (*routingpool.Pool, error)
	}{
		{name: "New", create: func() (*routingpool.Pool, error) { return routingpool.New(nil, nil) }},
		{name: "NewFromPGXPools", create: func() (*routingpool.Pool, error) { return routingpool.NewFromPGXPools(nil, nil) }},
		{name: "NewFromSQLDBs", create: func() (*routingpool.Pool, error) { return routingpool.NewFromSQLDBs(nil, nil) }},
		{name: "NewFromSQLX", create: func() (*routingpool.Pool, error) { return routingpool.NewFromSQLX(nil, nil) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := tc.create()

			assert.ErrorIs(t, err, routingpool.ErrNilDatabaseConnection)
			assert.Nil(t, pool)
		})
	}
}

func Test_New_WithNilOptions_ReturnsErrors(t *testing.T) {
	testCases := []struct {
		name        string
		option      routingpool.Option
		expectedErr error
	}{
		{name: "nil logger", option: routingpool.WithLogger(nil), expectedErr: routingpool.ErrNilLogger},
		{name: "nil contextual logger", option: routingpool.WithContextualLogger(nil), expectedErr: routingpool.ErrNilLogger},
		{name: "nil metrics", option: routingpool.WithMetrics(nil), expectedErr: routingpool.ErrNilMetricsCollector},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := routingpool.New(NewRecordingTarget(routingpool.TargetPrimary), nil, tc.option)

			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Nil(t, pool)
		})
	}
}

func Test_Observability_Pool_LogsAndCountsAcquisitions(t *testing.T) {
	// setup
	logSpy := NewLogHandlerSpy(false)
	metricsSpy := NewMetricsCollectorSpy()
	pool, _, _ := givenPool(t, true, routingpool.WithLogger(logSpy.Logger()), routingpool.WithMetrics(metricsSpy))

	// act
	rows, err := pool.Query(routing.SetRoute(context.Background(), routing.RouteRead), "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	_, err = pool.Exec(context.Background(), "DELETE FROM orders")
	require.NoError(t, err)

	// assert
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelDebug, "connection acquired", "target", routingpool.TargetReplica))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelDebug, "connection acquired", "target", routingpool.TargetPrimary))
	assert.Equal(t, 1, metricsSpy.CountCounter(routingpool.MetricAcquisitions, map[string]string{
		"route":  "read",
		"target": routingpool.TargetReplica,
		"action": "query",
	}))
	assert.Equal(t, 1, metricsSpy.CountCounter(routingpool.MetricAcquisitions, map[string]string{
		"route":  "write",
		"target": routingpool.TargetPrimary,
		"action": "exec",
	}))
}

func Test_Observability_Pool_LogsFailures(t *testing.T) {
	// setup
	logSpy := NewLogHandlerSpy(false)
	pool, primary, _ := givenPool(t, true, routingpool.WithContextualLogger(logSpy.Logger()))
	primary.FailExecWith(errors.New("disk full"))

	// act
	_, err := pool.Exec(context.Background(), "INSERT INTO orders DEFAULT VALUES")

	// assert
	assert.Error(t, err)
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelError, "routed exec failed", "error", "disk full"))
}
