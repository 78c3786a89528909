// Package routingpool provides the routing connection-pool proxy: one handle over a primary
// and an optional replica pool that picks the physical pool at the moment a connection is
// acquired, based on routing.CurrentRoute of the call's context.
//
// Supported pool types are pgx.Pool, sql.DB and sqlx.DB. Any other pool can take part by
// implementing Target.
//
// Key features:
//   - The route is read exactly once per acquisition (Query, Exec, transaction begin) and never cached
//   - Without a replica, every route is served by the primary
//   - Transactions are bound to the pool selected when they begin; statements inside a
//     transaction reuse its connection regardless of their own route
//
// Usage examples:
//
//	primary, _ := pgxpool.New(ctx, primaryDSN)
//	replica, _ := pgxpool.New(ctx, replicaDSN)
//	pool, _ := routingpool.NewFromPGXPools(primary, replica, routingpool.WithLogger(logger))
//	defer pool.Close()
//
//	err := interceptor.Intercept(ctx, routing.Op("CustomerMapper", "selectById"), func(ctx context.Context) error {
//		rows, err := pool.Query(ctx, sql, id) // served by the replica
//		...
//	})
package routingpool
