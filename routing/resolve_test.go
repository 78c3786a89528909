package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
)

func Test_Resolve(t *testing.T) {
	testCases := []struct {
		name           string
		operationName  string
		hints          routing.Hints
		expectedRoute  routing.Route
		expectedSource routing.DecisionSource
	}{
		{
			name:           "no hints, read name",
			operationName:  "selectById",
			expectedRoute:  routing.RouteRead,
			expectedSource: routing.SourceClassifier,
		},
		{
			name:           "no hints, write name",
			operationName:  "insert",
			expectedRoute:  routing.RouteWrite,
			expectedSource: routing.SourceClassifier,
		},
		{
			name:           "no hints, empty name",
			operationName:  "",
			expectedRoute:  routing.RouteWrite,
			expectedSource: routing.SourceClassifier,
		},
		{
			name:           "operation hint overrides read name",
			operationName:  "checkExists",
			hints:          routing.Hints{Operation: routing.HintForceWrite},
			expectedRoute:  routing.RouteWrite,
			expectedSource: routing.SourceOperationHint,
		},
		{
			name:           "operation hint overrides write name",
			operationName:  "insert",
			hints:          routing.Hints{Operation: routing.HintForceRead},
			expectedRoute:  routing.RouteRead,
			expectedSource: routing.SourceOperationHint,
		},
		{
			name:           "operation hint wins over unit hint",
			operationName:  "selectById",
			hints:          routing.Hints{Operation: routing.HintForceWrite, Unit: routing.HintForceRead},
			expectedRoute:  routing.RouteWrite,
			expectedSource: routing.SourceOperationHint,
		},
		{
			name:           "unit hint applies when operation hint is auto",
			operationName:  "selectById",
			hints:          routing.Hints{Operation: routing.HintAuto, Unit: routing.HintForceWrite},
			expectedRoute:  routing.RouteWrite,
			expectedSource: routing.SourceUnitHint,
		},
		{
			name:           "unit read hint on write name",
			operationName:  "deleteById",
			hints:          routing.Hints{Unit: routing.HintForceRead},
			expectedRoute:  routing.RouteRead,
			expectedSource: routing.SourceUnitHint,
		},
		{
			name:           "both hints auto fall back to the name",
			operationName:  "countAll",
			hints:          routing.Hints{Operation: routing.HintAuto, Unit: routing.HintAuto},
			expectedRoute:  routing.RouteRead,
			expectedSource: routing.SourceClassifier,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decision := routing.Decide(tc.operationName, tc.hints)

			assert.Equal(t, tc.expectedRoute, decision.Route)
			assert.Equal(t, tc.expectedSource, decision.Source)
			assert.Equal(t, tc.expectedRoute, routing.Resolve(tc.operationName, tc.hints))
		})
	}
}

func Test_Resolve_IsIdempotent(t *testing.T) {
	hints := routing.Hints{Unit: routing.HintForceRead}

	first := routing.Resolve("insert", hints)
	second := routing.Resolve("insert", hints)

	assert.Equal(t, first, second)
}
