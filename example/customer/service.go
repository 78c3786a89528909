package customer

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/paging"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
)

// ServiceUnit is the unit name under which all Service operations are intercepted.
const ServiceUnit = "CustomerService"

// Service operation names.
const (
	OpGetCustomerByID        = "getCustomerById"
	OpGetCustomerByCode      = "getCustomerByCode"
	OpGetAllCustomers        = "getAllCustomers"
	OpGetCustomersByStatus   = "getCustomersByStatus"
	OpGetCustomersByAgeRange = "getCustomersByAgeRange"
	OpGetCustomersByPage     = "getCustomersByPage"
	OpGetTotalCount          = "getTotalCount"
	OpGetCountByStatus       = "getCountByStatus"
	OpCreateCustomer         = "createCustomer"
	OpUpdateCustomer         = "updateCustomer"
	OpDeleteCustomer         = "deleteCustomer"
	OpBatchCreateCustomers   = "batchCreateCustomers"
	OpBatchDeleteCustomers   = "batchDeleteCustomers"
	OpActivateCustomer       = "activateCustomer"
	OpDeactivateCustomer     = "deactivateCustomer"
	OpIsCustomerCodeExists   = "isCustomerCodeExists"
)

// TxRunner runs fn inside one transaction; routingpool.Pool implements it.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock replaces time.Now as the source of create and update timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service implements the customer use cases on top of the Mapper.
type Service struct {
	unit   routing.UnitInterceptor
	mapper *Mapper
	tx     TxRunner
	now    func() time.Time
}

// NewService creates a Service whose operations are intercepted as unit ServiceUnit.
func NewService(interceptor *routing.Interceptor, mapper *Mapper, tx TxRunner, options ...ServiceOption) (*Service, error) {
	if interceptor == nil {
		return nil, routing.ErrNilInterceptor
	}

	if mapper == nil || tx == nil {
		return nil, ErrNilDatabaseConnection
	}

	service := &Service{
		unit:   interceptor.Unit(ServiceUnit),
		mapper: mapper,
		tx:     tx,
		now:    time.Now,
	}

	for _, option := range options {
		option(service)
	}

	return service, nil
}

// GetCustomerByID returns one customer.
func (s *Service) GetCustomerByID(ctx context.Context, id int64) (Customer, error) {
	return routing.CallUnit(ctx, s.unit, OpGetCustomerByID, func(ctx context.Context) (Customer, error) {
		return s.mapper.SelectByID(ctx, id)
	})
}

// GetCustomerByCode returns the customer with the given code.
func (s *Service) GetCustomerByCode(ctx context.Context, code string) (Customer, error) {
	return routing.CallUnit(ctx, s.unit, OpGetCustomerByCode, func(ctx context.Context) (Customer, error) {
		return s.mapper.SelectByCustomerCode(ctx, code)
	})
}

// GetAllCustomers returns all customers.
func (s *Service) GetAllCustomers(ctx context.Context) ([]Customer, error) {
	return routing.CallUnit(ctx, s.unit, OpGetAllCustomers, s.mapper.SelectAll)
}

// GetCustomersByStatus returns all customers with the given status.
func (s *Service) GetCustomersByStatus(ctx context.Context, status string) ([]Customer, error) {
	return routing.CallUnit(ctx, s.unit, OpGetCustomersByStatus, func(ctx context.Context) ([]Customer, error) {
		return s.mapper.SelectByStatus(ctx, status)
	})
}

// GetCustomersByAgeRange returns customers within the inclusive age bounds; nil bounds are open.
func (s *Service) GetCustomersByAgeRange(ctx context.Context, minAge, maxAge *int) ([]Customer, error) {
	return routing.CallUnit(ctx, s.unit, OpGetCustomersByAgeRange, func(ctx context.Context) ([]Customer, error) {
		return s.mapper.SelectByAgeRange(ctx, minAge, maxAge)
	})
}

// GetCustomersByPage returns the one-based page of customers.
func (s *Service) GetCustomersByPage(ctx context.Context, pageNumber, pageSize int) ([]Customer, error) {
	page, err := paging.New(pageNumber, pageSize)
	if err != nil {
		return nil, err
	}

	return routing.CallUnit(ctx, s.unit, OpGetCustomersByPage, func(ctx context.Context) ([]Customer, error) {
		return s.mapper.SelectByPage(ctx, page)
	})
}

// GetTotalCount returns the number of customers.
func (s *Service) GetTotalCount(ctx context.Context) (int64, error) {
	return routing.CallUnit(ctx, s.unit, OpGetTotalCount, s.mapper.CountAll)
}

// GetCountByStatus returns the number of customers with the given status.
func (s *Service) GetCountByStatus(ctx context.Context, status string) (int64, error) {
	return routing.CallUnit(ctx, s.unit, OpGetCountByStatus, func(ctx context.Context) (int64, error) {
		return s.mapper.CountByStatus(ctx, status)
	})
}

// CreateCustomer validates and stores c, defaulting its status to StatusActive.
// The duplicate check and the insert share one transaction on the primary.
func (s *Service) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	if err := c.Validate(); err != nil {
		return Customer{}, err
	}

	return routing.CallUnit(ctx, s.unit, OpCreateCustomer, func(ctx context.Context) (Customer, error) {
		created := s.withDefaults(c)

		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			exists, err := s.codeExists(ctx, created.Code)
			if err != nil {
				return err
			}

			if exists {
				return ErrCustomerCodeExists
			}

			created.ID, err = s.mapper.Insert(ctx, created)

			return err
		})

		if err != nil {
			return Customer{}, err
		}

		return created, nil
	})
}

// UpdateCustomer applies patch to the customer with the given id.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, patch Patch) error {
	if id == 0 {
		return ErrMissingID
	}

	return s.unit.Intercept(ctx, OpUpdateCustomer, func(ctx context.Context) error {
		patch.UpdatedAt = s.now()

		return s.requireAffected(s.mapper.UpdateByIDSelective(ctx, id, patch))
	})
}

// DeleteCustomer deletes the customer with the given id.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if id == 0 {
		return ErrMissingID
	}

	return s.unit.Intercept(ctx, OpDeleteCustomer, func(ctx context.Context) error {
		return s.requireAffected(s.mapper.DeleteByID(ctx, id))
	})
}

// BatchCreateCustomers validates and stores all customers in one statement.
func (s *Service) BatchCreateCustomers(ctx context.Context, customers []Customer) (int64, error) {
	if len(customers) == 0 {
		return 0, ErrEmptyBatch
	}

	prepared := make([]Customer, len(customers))
	for i, c := range customers {
		if err := c.Validate(); err != nil {
			return 0, err
		}

		prepared[i] = s.withDefaults(c)
	}

	return routing.CallUnit(ctx, s.unit, OpBatchCreateCustomers, func(ctx context.Context) (int64, error) {
		return s.mapper.BatchInsert(ctx, prepared)
	})
}

// BatchDeleteCustomers deletes all customers with the given ids.
func (s *Service) BatchDeleteCustomers(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyBatch
	}

	return routing.CallUnit(ctx, s.unit, OpBatchDeleteCustomers, func(ctx context.Context) (int64, error) {
		return s.mapper.BatchDelete(ctx, ids)
	})
}

// ActivateCustomer sets the status of the customer to StatusActive.
func (s *Service) ActivateCustomer(ctx context.Context, id int64) error {
	return s.changeStatus(ctx, OpActivateCustomer, id, StatusActive)
}

// DeactivateCustomer sets the status of the customer to StatusInactive.
func (s *Service) DeactivateCustomer(ctx context.Context, id int64) error {
	return s.changeStatus(ctx, OpDeactivateCustomer, id, StatusInactive)
}

// IsCustomerCodeExists reports whether a customer with the given code exists.
func (s *Service) IsCustomerCodeExists(ctx context.Context, code string) (bool, error) {
	return routing.CallUnit(ctx, s.unit, OpIsCustomerCodeExists, func(ctx context.Context) (bool, error) {
		return s.codeExists(ctx, code)
	})
}

func (s *Service) changeStatus(ctx context.Context, operation string, id int64, status string) error {
	if id == 0 {
		return ErrMissingID
	}

	return s.unit.Intercept(ctx, operation, func(ctx context.Context) error {
		return s.requireAffected(s.mapper.UpdateByIDSelective(ctx, id, StatusPatch(status, s.now())))
	})
}

func (s *Service) codeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.mapper.SelectByCustomerCode(ctx, code)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrCustomerNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) withDefaults(c Customer) Customer {
	now := s.now()

	if c.Status == "" {
		c.Status = StatusActive
	}

	c.CreatedAt = now
	c.UpdatedAt = now

	return c
}

func (s *Service) requireAffected(affected int64, err error) error {
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}
