package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/customer"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/order"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/retry"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
)

const (
	scenarioRead  = "read"
	scenarioWrite = "write"
)

// Workload issues a weighted mix of read and write use cases at a fixed rate.
type Workload struct {
	pool      *routingpool.Pool
	config    Config
	customers *customer.Service
	orders    *order.Service

	retryOptions []retry.Option

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.RWMutex
	requestCount map[string]int64
	errorCount   int64
	startTime    time.Time
}

// NewWorkload wires the customer and order services onto the pool.
func NewWorkload(
	interceptor *routing.Interceptor,
	pool *routingpool.Pool,
	config Config,
	retryOptions ...retry.Option,
) (*Workload, error) {

	customerMapper, err := customer.NewMapper(interceptor, pool)
	if err != nil {
		return nil, err
	}

	customers, err := customer.NewService(interceptor, customerMapper, pool)
	if err != nil {
		return nil, err
	}

	orderMapper, err := order.NewMapper(interceptor, pool)
	if err != nil {
		return nil, err
	}

	orders, err := order.NewService(interceptor, orderMapper, pool)
	if err != nil {
		return nil, err
	}

	return &Workload{
		pool:         pool,
		config:       config,
		customers:    customers,
		orders:       orders,
		retryOptions: retryOptions,
		stopChan:     make(chan struct{}),
		requestCount: make(map[string]int64),
	}, nil
}

// Prepare creates the tables on the primary and seeds customers if there are fewer than configured.
func (w *Workload) Prepare(ctx context.Context) error {
	for _, schema := range []string{customer.Schema, order.Schema} {
		if _, err := w.pool.Exec(ctx, schema); err != nil {
			return err
		}
	}

	existing, err := w.customers.GetTotalCount(ctx)
	if err != nil {
		return err
	}

	missing := int64(w.config.SeedCustomers) - existing
	if missing <= 0 {
		return nil
	}

	seed := make([]customer.Customer, 0, missing)
	for i := int64(0); i < missing; i++ {
		seed = append(seed, customer.Customer{
			Code:  "C-" + uuid.NewString()[:8],
			Name:  fmt.Sprintf("Customer %d", existing+i+1),
			Email: fmt.Sprintf("customer%d@example.com", existing+i+1),
			Age:   18 + rand.Intn(60), //nolint:gosec // demo code - weak random is acceptable
		})
	}

	created, err := w.customers.BatchCreateCustomers(ctx, seed)
	if err != nil {
		return err
	}

	log.Printf("Seeded %d customers", created)

	return nil
}

// Start issues requests at the configured rate until ctx is done or Stop is called.
func (w *Workload) Start(ctx context.Context) error {
	w.mu.Lock()
	w.startTime = time.Now()
	w.mu.Unlock()

	interval := time.Second / time.Duration(w.config.Rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.wg.Add(1)
	go w.statsReporter(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-w.stopChan:
			return nil

		case <-ticker.C:
			w.wg.Add(1)
			go w.executeScenario(ctx)
		}
	}
}

// Stop waits for in-flight requests and logs the final statistics.
func (w *Workload) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stopChan) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	defer w.logStats("Final stats")

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("shutdown timeout exceeded")
	}
}

func (w *Workload) executeScenario(ctx context.Context) {
	defer w.wg.Done()

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	scenario := scenarioWrite
	if rand.Intn(100) < w.config.ScenarioWeights[0] { //nolint:gosec // demo code - weak random is acceptable
		scenario = scenarioRead
	}

	var err error
	if scenario == scenarioRead {
		err = w.runReadScenario(opCtx)
	} else {
		err = w.runWriteScenario(opCtx)
	}

	w.mu.Lock()
	w.requestCount[scenario]++
	if err != nil && !errors.Is(err, context.Canceled) {
		w.errorCount++
		log.Printf("Scenario error (%s): %v", scenario, err)
	}
	w.mu.Unlock()
}

// runReadScenario runs one of the read use cases; all of them are routed to the replica.
func (w *Workload) runReadScenario(ctx context.Context) error {
	customerID := w.randomCustomerID()

	switch rand.Intn(4) { //nolint:gosec // demo code - weak random is acceptable
	case 0:
		_, err := w.customers.GetCustomerByID(ctx, customerID)
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return nil
		}
		return err
	case 1:
		_, err := w.orders.GetOrdersByCustomerID(ctx, customerID)
		return err
	case 2:
		_, err := w.customers.GetCustomersByPage(ctx, 1+rand.Intn(5), 10) //nolint:gosec // demo code
		return err
	default:
		_, err := w.orders.GetCountByStatus(ctx, order.StatusPaid)
		return err
	}
}

// runWriteScenario places an order and pays it, or toggles a customer's status.
func (w *Workload) runWriteScenario(ctx context.Context) error {
	customerID := w.randomCustomerID()

	if rand.Intn(4) == 0 { //nolint:gosec // demo code - weak random is acceptable
		err := w.customers.DeactivateCustomer(ctx, customerID)
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return w.customers.ActivateCustomer(ctx, customerID)
	}

	var placed order.Order
	err := retry.Do(ctx, func(ctx context.Context) error {
		var createErr error
		placed, createErr = w.orders.CreateOrder(ctx, order.Order{
			CustomerID: customerID,
			Items: []order.Item{
				{SKU: "BOOK-" + uuid.NewString()[:4], Quantity: 1 + rand.Intn(3), UnitPrice: decimal.RequireFromString("19.90")}, //nolint:gosec // demo code
			},
		})

		return createErr
	}, w.retryOptions...)
	if err != nil {
		return err
	}

	return retry.Do(ctx, func(ctx context.Context) error {
		return w.orders.PayOrder(ctx, placed.ID, "CARD")
	}, w.retryOptions...)
}

func (w *Workload) randomCustomerID() int64 {
	return rand.Int63n(int64(max(w.config.SeedCustomers, 1))) + 1 //nolint:gosec // demo code - weak random is acceptable
}

func (w *Workload) statsReporter(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.logStats("Stats")
		}
	}
}

func (w *Workload) logStats(prefix string) {
	w.mu.RLock()
	duration := time.Since(w.startTime)
	reads := w.requestCount[scenarioRead]
	writes := w.requestCount[scenarioWrite]
	errorCount := w.errorCount
	w.mu.RUnlock()

	requests := reads + writes
	if requests == 0 || duration <= 0 {
		return
	}

	log.Printf("%s: %d requests (%d read, %d write) in %v (%.1f req/s), %d errors (%.1f%%), %d goroutines",
		prefix, requests, reads, writes, duration.Truncate(time.Second), float64(requests)/duration.Seconds(),
		errorCount, float64(errorCount)/float64(requests)*100, runtime.NumGoroutine())
}
