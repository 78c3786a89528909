package routing

import "strings"

// readPrefixes is fixed and checked in order, but the order carries no priority:
// any matching prefix yields RouteRead.
var readPrefixes = []string{
	"select",
	"find",
	"get",
	"query",
	"count",
	"list",
	"search",
	"exists",
}

// Classify maps an operation name to its default route by naming convention.
// Names starting with one of the read prefixes (case-insensitive) are routed to the replica,
// everything else, including the empty name, is routed to the primary.
func Classify(operationName string) Route {
	if operationName == "" {
		return RouteWrite
	}

	lower := strings.ToLower(operationName)

	for _, prefix := range readPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return RouteRead
		}
	}

	return RouteWrite
}

// ReadPrefixes returns a copy of the operation name prefixes that Classify routes to the replica.
func ReadPrefixes() []string {
	prefixes := make([]string, len(readPrefixes))
	copy(prefixes, readPrefixes)

	return prefixes
}
