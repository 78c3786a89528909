// Package main runs a weighted read/write workload of the customer and order example against a
// primary and an optional replica, with every data-access call routed by the interceptor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/customer"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/order"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/retry"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/shell/config"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/oteladapters"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/zerologadapter"
)

const (
	serviceName            = "routing-demo"
	defaultRate            = 20
	defaultSeedCustomers   = 50
	defaultScenarioWeights = "80,20" // reads, writes

	loggerSlog    = "slog"
	loggerZerolog = "zerolog"
)

type Config struct {
	ConfigPath           string
	Logger               string
	Rate                 int
	Duration             time.Duration
	SeedCustomers        int
	ScenarioWeights      []int
	ObservabilityEnabled bool
}

func main() {
	cfg := parseFlags()

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger, closeLogger := newLogger(cfg.Logger, fileCfg.Logging.Level)
	defer closeLogger()

	interceptorOptions := []routing.Option{routing.WithLogger(logger)}
	poolOptions := []routingpool.Option{routingpool.WithLogger(logger)}
	var retryOptions []retry.Option

	if cfg.ObservabilityEnabled {
		providers, err := config.NewObservabilityConfig(ctx, serviceName)
		if err != nil {
			log.Fatalf("Failed to create observability providers: %v", err)
		}
		defer func() {
			if err := providers.Shutdown(); err != nil {
				log.Printf("Failed to shut down observability providers: %v", err)
			}
		}()

		metricsCollector := oteladapters.NewMetricsCollector(otel.Meter(serviceName))
		contextualLogger := oteladapters.NewSlogBridgeLogger(serviceName)

		interceptorOptions = append(interceptorOptions,
			routing.WithContextualLogger(contextualLogger),
			routing.WithMetrics(metricsCollector),
			routing.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(serviceName))),
		)
		poolOptions = append(poolOptions,
			routingpool.WithContextualLogger(contextualLogger),
			routingpool.WithMetrics(metricsCollector),
		)
		retryOptions = append(retryOptions, retry.WithMetrics(metricsCollector, serviceName))

		log.Printf("Observability enabled, exporting to %s", config.OTELCollectorEndpoint())
	}

	// hints from the configuration file take precedence over the ones the example registers
	hints, err := fileCfg.RegisterHints(customer.RegisterHints(order.RegisterHints(routing.NewHintRegistry())))
	if err != nil {
		log.Fatalf("Invalid routing hints: %v", err)
	}

	interceptor, err := routing.NewInterceptor(append(interceptorOptions, routing.WithHints(hints))...)
	if err != nil {
		log.Fatalf("Failed to create interceptor: %v", err)
	}

	pool, err := config.NewRoutingPool(ctx, fileCfg, poolOptions...)
	if err != nil {
		log.Fatalf("Failed to open routing pool: %v", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			log.Printf("Failed to close routing pool: %v", err)
		}
	}()

	log.Printf("Routing pool opened with adapter %s, replica configured: %v", fileCfg.Database.Adapter, pool.HasReplica())

	workload, err := NewWorkload(interceptor, pool, cfg, retryOptions...)
	if err != nil {
		log.Fatalf("Failed to create workload: %v", err)
	}

	if err := workload.Prepare(ctx); err != nil {
		log.Fatalf("Failed to prepare schema and seed data: %v", err)
	}

	runCtx := ctx
	if cfg.Duration > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeout(ctx, cfg.Duration)
		defer stop()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- workload.Start(runCtx)
	}()

	log.Printf("Routing demo started: rate=%d req/s, scenario_weights=%v", cfg.Rate, cfg.ScenarioWeights)
	log.Printf("Press Ctrl+C to stop...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case err := <-errChan:
		if err != nil && runCtx.Err() == nil {
			log.Printf("Error occurred: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := workload.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Routing demo stopped")
}

func parseFlags() Config {
	var (
		configPath      = flag.String("config", "", "Path to a TOML configuration file")
		loggerKind      = flag.String("logger", loggerSlog, "Logger implementation: slog or zerolog")
		rate            = flag.Int("rate", defaultRate, "Requests per second")
		duration        = flag.Duration("duration", 0, "Stop after this duration, 0 runs until interrupted")
		seedCustomers   = flag.Int("seed-customers", defaultSeedCustomers, "Number of customers created before the run")
		scenarioWeights = flag.String("scenario-weights", defaultScenarioWeights, "Comma-separated weights for read,write scenarios")
		observability   = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
	)

	flag.Parse()

	weights, err := parseScenarioWeights(*scenarioWeights)
	if err != nil {
		log.Fatalf("Invalid scenario weights '%s': %v", *scenarioWeights, err)
	}

	if *rate <= 0 {
		log.Fatalf("Rate must be positive, got %d", *rate)
	}

	return Config{
		ConfigPath:           *configPath,
		Logger:               *loggerKind,
		Rate:                 *rate,
		Duration:             *duration,
		SeedCustomers:        *seedCustomers,
		ScenarioWeights:      weights,
		ObservabilityEnabled: *observability,
	}
}

func parseScenarioWeights(weightsStr string) ([]int, error) {
	parts := strings.Split(weightsStr, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected 2 weights, got %d", len(parts))
	}

	weights := make([]int, 2)
	total := 0
	for i, part := range parts {
		weight, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s': %w", part, err)
		}
		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("weight %d out of range [0, 100]", weight)
		}
		weights[i] = weight
		total += weight
	}

	if total != 100 {
		return nil, fmt.Errorf("weights must sum to 100, got %d", total)
	}

	return weights, nil
}

// newLogger builds the routing.Logger selected by kind at the configured level.
func newLogger(kind, level string) (routing.Logger, func()) {
	switch kind {
	case loggerZerolog:
		logger, err := zerologadapter.New().FromWriter(os.Stdout).WithLevel(level).Make()
		if err != nil {
			log.Fatalf("Failed to create zerolog logger: %v", err)
		}

		return logger, func() { _ = logger.Close() }

	case loggerSlog:
		var slogLevel slog.Level
		if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
			log.Fatalf("Invalid log level %q: %v", level, err)
		}

		handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})

		return slog.New(handler), func() {}

	default:
		log.Fatalf("Unknown logger %q, expected %s or %s", kind, loggerSlog, loggerZerolog)
		return nil, nil
	}
}
