package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Hint is an explicit routing override attached to an operation or to its enclosing unit.
type Hint int

const (
	// HintAuto defers to the next level of resolution. It is the zero value.
	HintAuto Hint = iota

	// HintForceWrite routes the call to the primary store.
	HintForceWrite

	// HintForceRead routes the call to a replica store.
	HintForceRead
)

// String provides a string representation of Hint for logging and configuration.
func (h Hint) String() string {
	switch h {
	case HintAuto:
		return "auto"
	case HintForceWrite:
		return "write"
	case HintForceRead:
		return "read"
	default:
		return "unknown"
	}
}

// ParseHint parses the textual form of a Hint, case-insensitively.
// Accepted values are auto, write and read, plus master/primary and slave/replica as aliases
// for write and read.
func ParseHint(s string) (Hint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return HintAuto, nil
	case "write", "master", "primary":
		return HintForceWrite, nil
	case "read", "slave", "replica":
		return HintForceRead, nil
	default:
		return HintAuto, errors.Join(ErrUnknownHint, fmt.Errorf("hint %q", s))
	}
}

// route returns the route a non-Auto hint designates.
// The boolean is false for HintAuto and for unknown values.
func (h Hint) route() (Route, bool) {
	switch h {
	case HintForceWrite:
		return RouteWrite, true
	case HintForceRead:
		return RouteRead, true
	default:
		return RouteWrite, false
	}
}

// Hints holds the hints that apply to a single call.
// The zero value means no hints are attached at either level.
type Hints struct {
	Operation Hint
	Unit      Hint
}

type operationKey struct {
	unit string
	name string
}

// HintRegistry collects hints at registration time, replacing annotations on methods and types.
//
// A HintRegistry is not safe for concurrent mutation. NewInterceptor takes a snapshot of it,
// so changes made after the interceptor is built do not affect that interceptor.
type HintRegistry struct {
	units      map[string]Hint
	operations map[operationKey]Hint
}

// NewHintRegistry creates an empty HintRegistry.
func NewHintRegistry() *HintRegistry {
	return &HintRegistry{
		units:      make(map[string]Hint),
		operations: make(map[operationKey]Hint),
	}
}

// ForUnit attaches a hint to every operation of the given unit.
func (r *HintRegistry) ForUnit(unit string, hint Hint) *HintRegistry {
	r.units[unit] = hint
	return r
}

// ForOperation attaches a hint to a single operation of the given unit.
func (r *HintRegistry) ForOperation(unit, operation string, hint Hint) *HintRegistry {
	r.operations[operationKey{unit: unit, name: operation}] = hint
	return r
}

// Lookup returns the hints registered for the operation. Missing entries are HintAuto.
func (r *HintRegistry) Lookup(unit, operation string) Hints {
	if r == nil {
		return Hints{}
	}

	return Hints{
		Operation: r.operations[operationKey{unit: unit, name: operation}],
		Unit:      r.units[unit],
	}
}

// Len returns the number of registered unit and operation hints.
func (r *HintRegistry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.units) + len(r.operations)
}

func (r *HintRegistry) snapshot() *HintRegistry {
	clone := NewHintRegistry()

	if r == nil {
		return clone
	}

	for unit, hint := range r.units {
		clone.units[unit] = hint
	}

	for key, hint := range r.operations {
		clone.operations[key] = hint
	}

	return clone
}
