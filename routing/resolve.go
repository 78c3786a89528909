package routing

// DecisionSource names the resolution level that produced a Decision.
type DecisionSource string

// Decision sources, used as log attribute and metric label values.
const (
	SourceOperationHint DecisionSource = "operation_hint"
	SourceUnitHint      DecisionSource = "unit_hint"
	SourceClassifier    DecisionSource = "classifier"
)

// Decision is the effective route of one call together with the level that produced it.
type Decision struct {
	Route  Route
	Source DecisionSource
}

// Decide resolves the effective route for one call.
// A non-Auto operation hint wins over a non-Auto unit hint, which wins over Classify.
// Hints never merge: exactly one level decides.
func Decide(operationName string, hints Hints) Decision {
	if route, ok := hints.Operation.route(); ok {
		return Decision{Route: route, Source: SourceOperationHint}
	}

	if route, ok := hints.Unit.route(); ok {
		return Decision{Route: route, Source: SourceUnitHint}
	}

	return Decision{Route: Classify(operationName), Source: SourceClassifier}
}

// Resolve returns the effective route for one call. See Decide for the precedence rules.
func Resolve(operationName string, hints Hints) Route {
	return Decide(operationName, hints).Route
}
