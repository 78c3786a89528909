package customer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/customer"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/paging"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
	. "github.com/AntonStoeckl/dynamic-datasource-routing-go/testutil/routingtest" //nolint:revive
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type customerFixture struct {
	service *customer.Service
	mapper  *customer.Mapper
	primary *RecordingTarget
	replica *RecordingTarget
}

func givenCustomerFixture(t *testing.T) customerFixture {
	t.Helper()

	primary := NewRecordingTarget(routingpool.TargetPrimary)
	replica := NewRecordingTarget(routingpool.TargetReplica)

	pool, err := routingpool.New(primary, replica)
	require.NoError(t, err)

	interceptor, err := routing.NewInterceptor(
		routing.WithHints(customer.RegisterHints(routing.NewHintRegistry())),
	)
	require.NoError(t, err)

	mapper, err := customer.NewMapper(interceptor, pool)
	require.NoError(t, err)

	service, err := customer.NewService(interceptor, mapper, pool, customer.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	return customerFixture{service: service, mapper: mapper, primary: primary, replica: replica}
}

func customerRow(id int64, code string) []any {
	return []any{id, code, "Alice", "alice@example.com", "555-0100", 34, "Main Street 1", customer.StatusActive, "", fixedNow, fixedNow}
}

// customersAndCounts answers COUNT queries with a total and every other query with one customer row.
func customersAndCounts(query string, _ []any) [][]any {
	if strings.Contains(query, "COUNT(") {
		return [][]any{{int64(3)}}
	}

	return [][]any{customerRow(1, "C001")}
}

func validCustomer(code string) customer.Customer {
	return customer.Customer{Code: code, Name: "Bob", Email: "bob@example.com", Age: 41}
}

func Test_Service_RoutesEachOperation(t *testing.T) {
	intPtr := func(i int) *int { return &i }

	testCases := []struct {
		name          string
		call          func(ctx context.Context, s *customer.Service) error
		expectedRoute routing.Route
	}{
		{
			name: "getCustomerById reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetCustomerByID(ctx, 1)
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "getCustomerByCode reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetCustomerByCode(ctx, "C001")
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "getAllCustomers reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetAllCustomers(ctx)
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "getCustomersByStatus reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetCustomersByStatus(ctx, customer.StatusActive)
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "getCustomersByAgeRange reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetCustomersByAgeRange(ctx, intPtr(18), intPtr(65))
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "getCustomersByPage reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetCustomersByPage(ctx, 2, 10)
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "getTotalCount reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetTotalCount(ctx)
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "getCountByStatus reads from replica",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.GetCountByStatus(ctx, customer.StatusInactive)
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "isCustomerCodeExists reads from replica through the mapper hint",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.IsCustomerCodeExists(ctx, "C001")
				return err
			},
			expectedRoute: routing.RouteRead,
		},
		{
			name: "updateCustomer writes to primary",
			call: func(ctx context.Context, s *customer.Service) error {
				name := "Carol"
				return s.UpdateCustomer(ctx, 1, customer.Patch{Name: &name})
			},
			expectedRoute: routing.RouteWrite,
		},
		{
			name: "deleteCustomer writes to primary",
			call: func(ctx context.Context, s *customer.Service) error {
				return s.DeleteCustomer(ctx, 1)
			},
			expectedRoute: routing.RouteWrite,
		},
		{
			name: "activateCustomer writes to primary",
			call: func(ctx context.Context, s *customer.Service) error {
				return s.ActivateCustomer(ctx, 1)
			},
			expectedRoute: routing.RouteWrite,
		},
		{
			name: "deactivateCustomer writes to primary",
			call: func(ctx context.Context, s *customer.Service) error {
				return s.DeactivateCustomer(ctx, 1)
			},
			expectedRoute: routing.RouteWrite,
		},
		{
			name: "batchCreateCustomers writes to primary",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.BatchCreateCustomers(ctx, []customer.Customer{validCustomer("C100"), validCustomer("C101")})
				return err
			},
			expectedRoute: routing.RouteWrite,
		},
		{
			name: "batchDeleteCustomers writes to primary",
			call: func(ctx context.Context, s *customer.Service) error {
				_, err := s.BatchDeleteCustomers(ctx, []int64{1, 2})
				return err
			},
			expectedRoute: routing.RouteWrite,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			fixture := givenCustomerFixture(t)
			fixture.primary.RespondWith(customersAndCounts)
			fixture.replica.RespondWith(customersAndCounts)

			// act
			err := tc.call(context.Background(), fixture.service)

			// assert
			require.NoError(t, err)

			expectedTarget, otherTarget := fixture.primary, fixture.replica
			if tc.expectedRoute == routing.RouteRead {
				expectedTarget, otherTarget = fixture.replica, fixture.primary
			}

			require.Equal(t, 1, expectedTarget.StatementCount())
			assert.Equal(t, 0, otherTarget.StatementCount())

			statement, _ := expectedTarget.LastStatement()
			assert.Equal(t, tc.expectedRoute, statement.Route)
			assert.False(t, statement.InTx)
		})
	}
}

func Test_Service_GetCustomerByID_ReturnsScannedCustomer(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)
	fixture.replica.RespondWithRows(customerRow(7, "C007"))

	// act
	found, err := fixture.service.GetCustomerByID(context.Background(), 7)

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(7), found.ID)
	assert.Equal(t, "C007", found.Code)
	assert.Equal(t, 34, found.Age)
	assert.Equal(t, customer.StatusActive, found.Status)
	assert.Equal(t, fixedNow, found.CreatedAt)
}

func Test_Service_GetCustomerByID_NotFound(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)

	// act
	_, err := fixture.service.GetCustomerByID(context.Background(), 404)

	// assert
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
}

func Test_Service_CreateCustomer_RunsCheckAndInsertInOnePrimaryTransaction(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)
	fixture.primary.RespondWith(func(query string, _ []any) [][]any {
		if strings.HasPrefix(query, "INSERT") {
			return [][]any{{int64(42)}}
		}

		return nil
	})

	// act
	created, err := fixture.service.CreateCustomer(context.Background(), validCustomer("C042"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, customer.StatusActive, created.Status)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, fixedNow, created.UpdatedAt)

	assert.Equal(t, 0, fixture.replica.StatementCount())
	assert.Equal(t, 1, fixture.primary.Commits())

	statements := fixture.primary.Statements()
	require.Len(t, statements, 3)
	assert.Equal(t, ActionBegin, statements[0].Action)
	assert.Equal(t, routing.RouteWrite, statements[0].Route)

	assert.True(t, statements[1].InTx)
	assert.Contains(t, statements[1].Query, `"customer_code"`)
	assert.Equal(t, routing.RouteRead, statements[1].Route, "the mapper hint still applies, the transaction pins the connection")

	assert.True(t, statements[2].InTx)
	assert.Contains(t, statements[2].Query, `RETURNING "id"`)
}

func Test_Service_CreateCustomer_KeepsExplicitStatus(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)
	fixture.primary.RespondWith(func(query string, _ []any) [][]any {
		if strings.HasPrefix(query, "INSERT") {
			return [][]any{{int64(1)}}
		}

		return nil
	})

	input := validCustomer("C001")
	input.Status = customer.StatusInactive

	// act
	created, err := fixture.service.CreateCustomer(context.Background(), input)

	// assert
	require.NoError(t, err)
	assert.Equal(t, customer.StatusInactive, created.Status)
}

func Test_Service_CreateCustomer_RejectsDuplicateCode(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)
	fixture.primary.RespondWithRows(customerRow(1, "C001"))

	// act
	_, err := fixture.service.CreateCustomer(context.Background(), validCustomer("C001"))

	// assert
	assert.ErrorIs(t, err, customer.ErrCustomerCodeExists)
	assert.Equal(t, 1, fixture.primary.Rollbacks())
	assert.Equal(t, 0, fixture.primary.Commits())
	assert.False(t, fixture.primary.HasStatementContaining("INSERT"))
}

func Test_Service_CreateCustomer_RejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name  string
		input customer.Customer
	}{
		{name: "blank code", input: customer.Customer{Name: "A", Age: 20}},
		{name: "blank name", input: customer.Customer{Code: "C1", Age: 20}},
		{name: "non-positive age", input: customer.Customer{Code: "C1", Name: "A"}},
		{name: "malformed email", input: customer.Customer{Code: "C1", Name: "A", Age: 20, Email: "not-an-email"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			fixture := givenCustomerFixture(t)

			// act
			_, err := fixture.service.CreateCustomer(context.Background(), tc.input)

			// assert
			assert.ErrorIs(t, err, customer.ErrInvalidCustomer)
			assert.Equal(t, 0, fixture.primary.StatementCount())
			assert.Equal(t, 0, fixture.replica.StatementCount())
		})
	}
}

func Test_Service_UpdateCustomer_Errors(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		// setup
		fixture := givenCustomerFixture(t)

		// act
		err := fixture.service.UpdateCustomer(context.Background(), 0, customer.Patch{})

		// assert
		assert.ErrorIs(t, err, customer.ErrMissingID)
	})

	t.Run("no matching row", func(t *testing.T) {
		// setup
		fixture := givenCustomerFixture(t)
		fixture.primary.WithRowsAffected(0)
		remark := "vip"

		// act
		err := fixture.service.UpdateCustomer(context.Background(), 99, customer.Patch{Remark: &remark})

		// assert
		assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
	})
}

func Test_Service_ActivateCustomer_SetsStatusAndUpdateTime(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)

	// act
	err := fixture.service.ActivateCustomer(context.Background(), 5)

	// assert
	require.NoError(t, err)

	statement, ok := fixture.primary.LastStatement()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(statement.Query, `UPDATE "customers" SET`))
	assert.Contains(t, statement.Args, customer.StatusActive)
	assert.Contains(t, statement.Args, fixedNow)
}

func Test_Service_BatchOperations_RejectEmptyInput(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)

	// act
	_, createErr := fixture.service.BatchCreateCustomers(context.Background(), nil)
	_, deleteErr := fixture.service.BatchDeleteCustomers(context.Background(), []int64{})

	// assert
	assert.ErrorIs(t, createErr, customer.ErrEmptyBatch)
	assert.ErrorIs(t, deleteErr, customer.ErrEmptyBatch)
	assert.Equal(t, 0, fixture.primary.StatementCount())
}

func Test_Service_GetCustomersByPage_RejectsInvalidPage(t *testing.T) {
	// setup
	fixture := givenCustomerFixture(t)

	// act
	_, err := fixture.service.GetCustomersByPage(context.Background(), 0, 10)

	// assert
	assert.ErrorIs(t, err, paging.ErrInvalidPage)
	assert.Equal(t, 0, fixture.replica.StatementCount())
}

func Test_NewService_RejectsNilDependencies(t *testing.T) {
	// setup
	interceptor, err := routing.NewInterceptor()
	require.NoError(t, err)

	// act
	_, nilInterceptorErr := customer.NewService(nil, nil, nil)
	_, nilMapperErr := customer.NewService(interceptor, nil, nil)
	_, nilDBErr := customer.NewMapper(interceptor, nil)
	_, okErr := customer.NewMapper(interceptor, &routingpool.Pool{})

	// assert
	assert.ErrorIs(t, nilInterceptorErr, routing.ErrNilInterceptor)
	assert.ErrorIs(t, nilMapperErr, customer.ErrNilDatabaseConnection)
	assert.ErrorIs(t, nilDBErr, customer.ErrNilDatabaseConnection)
	assert.NoError(t, okErr)
}
