package routing

// Route identifies which store serves a data-access call.
type Route int

const (
	// RouteWrite sends the call to the primary store. It is the default whenever no route is set,
	// because the primary is the only store that guarantees read-after-write consistency.
	RouteWrite Route = iota

	// RouteRead sends the call to a replica store, which may serve slightly stale data.
	RouteRead
)

// String provides a string representation of Route for logging and metrics labels.
func (r Route) String() string {
	switch r {
	case RouteWrite:
		return "write"
	case RouteRead:
		return "read"
	default:
		return "unknown"
	}
}

// normalized maps any value outside the defined routes to RouteWrite.
func (r Route) normalized() Route {
	if r == RouteRead {
		return RouteRead
	}

	return RouteWrite
}
