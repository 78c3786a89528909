// Package routing decides, for every data-access call, whether it is served by the primary
// (write) store or by a replica (read) store.
//
// The decision is made by an Interceptor that wraps each call, published into the call's
// context.Context for the duration of the call, and read by the connection-pool proxy
// (package routingpool) at the moment a physical connection is acquired.
//
// Resolution order for one call:
//   - a non-Auto hint on the operation itself
//   - a non-Auto hint on the enclosing unit (the type that owns the operation)
//   - the operation name: names starting with select, find, get, query, count, list,
//     search or exists (case-insensitive) go to the replica, everything else to the primary
//
// Every intercepted call runs in its own route scope, so concurrent calls never observe each
// other's route and a nested call never overwrites the route of the call that contains it.
// The scope is cleared when the call returns, fails, panics or is canceled.
//
// Usage:
//
//	hints := routing.NewHintRegistry().
//		ForUnit("ReportService", routing.HintForceRead).
//		ForOperation("CustomerService", "getCustomerById", routing.HintForceRead)
//
//	interceptor, _ := routing.NewInterceptor(routing.WithHints(hints))
//	mapper := interceptor.Unit("CustomerMapper")
//
//	customer, err := routing.CallUnit(ctx, mapper, "selectById", func(ctx context.Context) (Customer, error) {
//		return loadCustomer(ctx, pool, id) // pool.Query reads routing.CurrentRoute(ctx)
//	})
package routing
