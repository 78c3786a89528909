package zerologadapter_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/zerologadapter"
)

func Test_Logger_WritesKeyValuePairs(t *testing.T) {
	// setup
	buf := bytes.NewBuffer([]byte{})
	logger, err := zerologadapter.New().FromWriter(buf).Make()
	require.NoError(t, err)

	// act
	logger.Debug("routing decision", "route", "read", "duration_ms", 1.5)
	logger.ErrorContext(context.Background(), "intercepted call failed", "error", "boom")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"debug"`)
	assert.Contains(t, output, `"route":"read"`)
	assert.Contains(t, output, `"duration_ms":1.5`)
	assert.Contains(t, output, `"level":"error"`)
	assert.Contains(t, output, `"message":"intercepted call failed"`)
}

func Test_Logger_RespectsLevel(t *testing.T) {
	// setup
	buf := bytes.NewBuffer([]byte{})
	logger, err := zerologadapter.New().FromWriter(buf).WithLevel("warn").Make()
	require.NoError(t, err)

	// act
	logger.Info("connection acquired")
	logger.DebugContext(context.Background(), "routing decision")
	logger.Warn("replica missing")

	// assert
	assert.NotContains(t, buf.String(), "connection acquired")
	assert.NotContains(t, buf.String(), "routing decision")
	assert.Contains(t, buf.String(), "replica missing")
}

func Test_Logger_IgnoresMalformedArguments(t *testing.T) {
	buf := bytes.NewBuffer([]byte{})
	logger, err := zerologadapter.New().FromWriter(buf).Make()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "odd", "dangling")
		logger.WarnContext(context.Background(), "non-string key", 42, "value")
	})
	assert.Contains(t, buf.String(), "non-string key")
}

func Test_Logger_FromPath_AppendsToFile(t *testing.T) {
	// setup
	path := filepath.Join(t.TempDir(), "routing.log")
	logger, err := zerologadapter.New().FromPath(path).Make()
	require.NoError(t, err)

	// act
	logger.Info("pool closed")
	require.NoError(t, logger.Close())

	// assert
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "pool closed")
}

func Test_Logger_WithInterceptor_LogsDecision(t *testing.T) {
	// setup
	buf := bytes.NewBuffer([]byte{})
	logger, err := zerologadapter.New().FromWriter(buf).Make()
	require.NoError(t, err)

	interceptor, err := routing.NewInterceptor(routing.WithLogger(logger))
	require.NoError(t, err)

	// act
	err = interceptor.Intercept(context.Background(), routing.Op("CustomerMapper", "existsByCode"), func(context.Context) error {
		return nil
	})

	// assert
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"source":"classifier"`)
	assert.Contains(t, buf.String(), `"route":"read"`)
}
