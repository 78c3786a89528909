package routing

import (
	"context"
	"sync/atomic"
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// routeScopeKey is the context key under which the route cell of the current call chain is stored.
const routeScopeKey contextKey = "routing.route_scope"

const cellUnset int32 = 0

// routeCell holds the route of one call chain. Goroutines started by the wrapped call may read it
// while the interceptor clears it, hence the atomic.
type routeCell struct {
	state atomic.Int32

	// published cells belong to an Interceptor and are cleared only by it.
	published bool
}

func (c *routeCell) store(route Route) {
	c.state.Store(int32(route.normalized()) + 1)
}

func (c *routeCell) load() (Route, bool) {
	state := c.state.Load()
	if state == cellUnset {
		return RouteWrite, false
	}

	return Route(state - 1), true
}

func (c *routeCell) clear() {
	c.state.Store(cellUnset)
}

func cellFrom(ctx context.Context) *routeCell {
	if ctx == nil {
		return nil
	}

	cell, _ := ctx.Value(routeScopeKey).(*routeCell)

	return cell
}

// WithRouteScope returns a context carrying a fresh, unset route scope.
// Routes set on the returned context are invisible to ctx and to every other scope.
func WithRouteScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, routeScopeKey, &routeCell{})
}

// publishRoute returns a context carrying a new scope owned by the Interceptor, with route set.
func publishRoute(ctx context.Context, route Route) (context.Context, *routeCell) {
	cell := &routeCell{published: true}
	cell.store(route)

	return context.WithValue(ctx, routeScopeKey, cell), cell
}

// SetRoute returns a context carrying a new route scope with the route set.
// The scope of ctx is left untouched, so the route an Interceptor published for a running call
// cannot be changed from inside that call. Values other than RouteWrite and RouteRead are stored
// as RouteWrite.
//
// Example usage:
//
//	ctx = routing.SetRoute(ctx, routing.RouteRead)
//	rows, err := pool.Query(ctx, sql)
func SetRoute(ctx context.Context, route Route) context.Context {
	cell := &routeCell{}
	cell.store(route)

	return context.WithValue(ctx, routeScopeKey, cell)
}

// CurrentRoute returns the route stored in the route scope of ctx.
// If no route is set, it returns RouteWrite as the safe default.
func CurrentRoute(ctx context.Context) Route {
	cell := cellFrom(ctx)
	if cell == nil {
		return RouteWrite // Safe default: the primary is always consistent
	}

	route, _ := cell.load()

	return route
}

// RouteIsSet reports whether the route scope of ctx currently holds a route.
func RouteIsSet(ctx context.Context) bool {
	cell := cellFrom(ctx)
	if cell == nil {
		return false
	}

	_, isSet := cell.load()

	return isSet
}

// ClearRoute removes the route from the route scope of ctx; CurrentRoute returns RouteWrite afterward.
// Clearing a context without a scope is a no-op, and so is clearing the scope an Interceptor
// published for a running call.
func ClearRoute(ctx context.Context) {
	if cell := cellFrom(ctx); cell != nil && !cell.published {
		cell.clear()
	}
}
