package routing

import "context"

// Operation identifies one intercepted unit of work.
type Operation struct {
	// Unit is the enclosing unit, typically the name of the type that owns the operation.
	Unit string

	// Name is the operation (method) name; it drives classification when no hint applies.
	Name string

	// Hint is an explicit operation-level hint for this call. When not Auto, it takes the place
	// of any operation-level hint registered for Unit and Name.
	Hint Hint
}

// Op builds an Operation without an explicit hint.
func Op(unit, name string) Operation {
	return Operation{Unit: unit, Name: name}
}

// WithHint returns a copy of the Operation carrying the explicit operation-level hint.
func (o Operation) WithHint(hint Hint) Operation {
	o.Hint = hint
	return o
}

// Interceptor wraps data-access calls: it resolves the route, publishes it into a fresh route
// scope of the call's context, runs the call and clears the scope on every exit path.
//
// An Interceptor is safe for concurrent use.
type Interceptor struct {
	hints            *HintRegistry
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewInterceptor creates an Interceptor with optional configuration.
func NewInterceptor(options ...Option) (*Interceptor, error) {
	interceptor := &Interceptor{
		hints: NewHintRegistry(),
	}

	for _, option := range options {
		if err := option(interceptor); err != nil {
			return nil, err
		}
	}

	return interceptor, nil
}

// Decide resolves the route for op from the explicit hint, the registered hints and the
// operation name, without running anything.
func (i *Interceptor) Decide(op Operation) Decision {
	hints := i.hints.Lookup(op.Unit, op.Name)

	if op.Hint != HintAuto {
		hints.Operation = op.Hint
	}

	return Decide(op.Name, hints)
}

// Intercept runs call with the route resolved for op published in its context.
//
// The context handed to call carries its own route scope: routing.CurrentRoute returns the resolved
// route for the whole duration of the call, and the scope is cleared once call returns, fails or
// panics. The caller's ctx is never modified, so after a nested Intercept returns, the enclosing
// call observes its own route again.
//
// Errors returned by call are passed through unchanged; panics continue unwinding unchanged.
func (i *Interceptor) Intercept(ctx context.Context, op Operation, call func(ctx context.Context) error) error {
	if call == nil {
		return ErrNilCall
	}

	decision := i.Decide(op)
	scopedCtx, cell := publishRoute(ctx, decision.Route)

	observation, callCtx := i.startObservation(scopedCtx, op, decision)

	completed := false
	defer func() {
		clearScope(cell)

		if !completed {
			observation.finishPanicked()
		}
	}()

	err := call(callCtx)
	completed = true

	observation.finish(err)

	return err
}

// clearScope clears the published route scope and verifies that it is unset afterward.
func clearScope(cell *routeCell) {
	cell.clear()

	if _, isSet := cell.load(); isSet {
		panic(ErrRouteLeaked)
	}
}

// Unit binds the Interceptor to an enclosing unit, so that every operation of a type
// (e.g. every method of a mapper) can be intercepted uniformly.
func (i *Interceptor) Unit(name string) UnitInterceptor {
	return UnitInterceptor{interceptor: i, unit: name}
}

// Call runs call through the Interceptor and returns its result.
// Whatever call returns, result and error alike, is returned unchanged.
func Call[T any](
	ctx context.Context,
	interceptor *Interceptor,
	op Operation,
	call func(ctx context.Context) (T, error),
) (T, error) {

	var result T

	if call == nil {
		return result, ErrNilCall
	}

	err := interceptor.Intercept(ctx, op, func(ctx context.Context) error {
		var callErr error
		result, callErr = call(ctx)

		return callErr
	})

	return result, err
}

// UnitInterceptor is an Interceptor bound to one enclosing unit.
type UnitInterceptor struct {
	interceptor *Interceptor
	unit        string
}

// Name returns the name of the bound unit.
func (u UnitInterceptor) Name() string {
	return u.unit
}

// Intercept runs call as the named operation of the bound unit.
func (u UnitInterceptor) Intercept(ctx context.Context, operation string, call func(ctx context.Context) error) error {
	return u.interceptor.Intercept(ctx, Op(u.unit, operation), call)
}

// InterceptWithHint runs call as the named operation of the bound unit with an explicit
// operation-level hint.
func (u UnitInterceptor) InterceptWithHint(
	ctx context.Context,
	operation string,
	hint Hint,
	call func(ctx context.Context) error,
) error {

	return u.interceptor.Intercept(ctx, Op(u.unit, operation).WithHint(hint), call)
}

// CallUnit runs call as the named operation of the bound unit and returns its result.
func CallUnit[T any](
	ctx context.Context,
	unit UnitInterceptor,
	operation string,
	call func(ctx context.Context) (T, error),
) (T, error) {

	return Call(ctx, unit.interceptor, Op(unit.unit, operation), call)
}
