package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/paging"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
)

// ServiceUnit is the unit name under which all Service operations are intercepted.
const ServiceUnit = "OrderService"

// Service operation names.
const (
	OpGetOrderByID          = "getOrderById"
	OpGetOrderByOrderNo     = "getOrderByOrderNo"
	OpGetAllOrders          = "getAllOrders"
	OpGetOrdersByCustomerID = "getOrdersByCustomerId"
	OpGetOrdersByStatus     = "getOrdersByStatus"
	OpGetOrdersByAmount     = "getOrdersByAmountRange"
	OpGetOrdersByPage       = "getOrdersByPage"
	OpGetTotalCount         = "getTotalCount"
	OpGetCountByStatus      = "getCountByStatus"
	OpGetCountByCustomerID  = "getCountByCustomerId"
	OpCreateOrder           = "createOrder"
	OpUpdateOrder           = "updateOrder"
	OpDeleteOrder           = "deleteOrder"
	OpPayOrder              = "payOrder"
	OpBatchCreateOrders     = "batchCreateOrders"
	OpBatchDeleteOrders     = "batchDeleteOrders"
	OpIsOrderNoExists       = "isOrderNoExists"
)

// TxRunner runs fn inside one transaction; routingpool.Pool implements it.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock replaces time.Now as the source of create, update and payment timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOrderNoGenerator replaces the generator for order numbers of orders created without one.
func WithOrderNoGenerator(generate func() string) ServiceOption {
	return func(s *Service) {
		if generate != nil {
			s.newOrderNo = generate
		}
	}
}

// Service implements the order use cases on top of the Mapper.
type Service struct {
	unit       routing.UnitInterceptor
	mapper     *Mapper
	tx         TxRunner
	now        func() time.Time
	newOrderNo func() string
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
		unit:       interceptor.Unit(ServiceUnit),
		mapper:     mapper,
		tx:         tx,
		now:        time.Now,
		newOrderNo: func() string { return "ORD-" + uuid.NewString() },
	}

	for _, option := range options {
		option(service)
	}

	return service, nil
}

func (s *Service) GetOrderByID(ctx context.Context, id int64) (Order, error) {
	return routing.CallUnit(ctx, s.unit, OpGetOrderByID, func(ctx context.Context) (Order, error) {
		return s.mapper.SelectByID(ctx, id)
	})
}

func (s *Service) GetOrderByOrderNo(ctx context.Context, orderNo string) (Order, error) {
	return routing.CallUnit(ctx, s.unit, OpGetOrderByOrderNo, func(ctx context.Context) (Order, error) {
		return s.mapper.SelectByOrderNo(ctx, orderNo)
	})
}

func (s *Service) GetAllOrders(ctx context.Context) ([]Order, error) {
	return routing.CallUnit(ctx, s.unit, OpGetAllOrders, s.mapper.SelectAll)
}

func (s *Service) GetOrdersByCustomerID(ctx context.Context, customerID int64) ([]Order, error) {
	return routing.CallUnit(ctx, s.unit, OpGetOrdersByCustomerID, func(ctx context.Context) ([]Order, error) {
		return s.mapper.SelectByCustomerID(ctx, customerID)
	})
}

func (s *Service) GetOrdersByStatus(ctx context.Context, status string) ([]Order, error) {
	return routing.CallUnit(ctx, s.unit, OpGetOrdersByStatus, func(ctx context.Context) ([]Order, error) {
		return s.mapper.SelectByStatus(ctx, status)
	})
}

// GetOrdersByAmountRange returns orders within the inclusive amount bounds; nil bounds are open.
func (s *Service) GetOrdersByAmountRange(ctx context.Context, minAmount, maxAmount *decimal.Decimal) ([]Order, error) {
	return routing.CallUnit(ctx, s.unit, OpGetOrdersByAmount, func(ctx context.Context) ([]Order, error) {
		return s.mapper.SelectByAmountRange(ctx, minAmount, maxAmount)
	})
}

// GetOrdersByPage returns the one-based page of orders, newest first.
func (s *Service) GetOrdersByPage(ctx context.Context, pageNumber, pageSize int) ([]Order, error) {
	page, err := paging.New(pageNumber, pageSize)
	if err != nil {
		return nil, err
	}

	return routing.CallUnit(ctx, s.unit, OpGetOrdersByPage, func(ctx context.Context) ([]Order, error) {
		return s.mapper.SelectByPage(ctx, page)
	})
}

func (s *Service) GetTotalCount(ctx context.Context) (int64, error) {
	return routing.CallUnit(ctx, s.unit, OpGetTotalCount, s.mapper.CountAll)
}

func (s *Service) GetCountByStatus(ctx context.Context, status string) (int64, error) {
	return routing.CallUnit(ctx, s.unit, OpGetCountByStatus, func(ctx context.Context) (int64, error) {
		return s.mapper.CountByStatus(ctx, status)
	})
}

func (s *Service) GetCountByCustomerID(ctx context.Context, customerID int64) (int64, error) {
	return routing.CallUnit(ctx, s.unit, OpGetCountByCustomerID, func(ctx context.Context) (int64, error) {
		return s.mapper.CountByCustomerID(ctx, customerID)
	})
}

// CreateOrder validates and stores o. An empty order number is generated, an empty status
// defaults to StatusPending and a zero total is taken from the items.
// The duplicate check and the insert share one transaction on the primary.
func (s *Service) CreateOrder(ctx context.Context, o Order) (Order, error) {
	if err := o.Validate(); err != nil {
		return Order{}, err
	}

	return routing.CallUnit(ctx, s.unit, OpCreateOrder, func(ctx context.Context) (Order, error) {
		created := s.withDefaults(o)

		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			exists, err := s.orderNoExists(ctx, created.OrderNo)
			if err != nil {
				return err
			}

			if exists {
				return ErrOrderNoExists
			}

			created.ID, err = s.mapper.Insert(ctx, created)

			return err
		})

		if err != nil {
			return Order{}, err
		}

		return created, nil
	})
}

// UpdateOrder applies the non-nil fields of patch to the order with id.
func (s *Service) UpdateOrder(ctx context.Context, id int64, patch Patch) error {
	if id == 0 {
		return ErrMissingID
	}

	return s.unit.Intercept(ctx, OpUpdateOrder, func(ctx context.Context) error {
		patch.UpdatedAt = s.now()

		return requireAffected(s.mapper.UpdateByIDSelective(ctx, id, patch))
	})
}

// DeleteOrder removes the order with id.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if id == 0 {
		return ErrMissingID
	}

	return s.unit.Intercept(ctx, OpDeleteOrder, func(ctx context.Context) error {
		return requireAffected(s.mapper.DeleteByID(ctx, id))
	})
}

// PayOrder marks the order as paid with paymentMethod at the current time.
func (s *Service) PayOrder(ctx context.Context, id int64, paymentMethod string) error {
	if id == 0 {
		return ErrMissingID
	}

	if paymentMethod == "" {
		return errors.Join(ErrInvalidOrder, errors.New("payment method must not be blank"))
	}

	return s.unit.Intercept(ctx, OpPayOrder, func(ctx context.Context) error {
		return requireAffected(s.mapper.UpdateByIDSelective(ctx, id, PaymentPatch(paymentMethod, s.now())))
	})
}

// BatchCreateOrders validates and stores all orders in one statement.
func (s *Service) BatchCreateOrders(ctx context.Context, orders []Order) (int64, error) {
	if len(orders) == 0 {
		return 0, ErrEmptyBatch
	}

	prepared := make([]Order, len(orders))
	for i, o := range orders {
		if err := o.Validate(); err != nil {
			return 0, err
		}

		prepared[i] = s.withDefaults(o)
	}

	return routing.CallUnit(ctx, s.unit, OpBatchCreateOrders, func(ctx context.Context) (int64, error) {
		return s.mapper.BatchInsert(ctx, prepared)
	})
}

// BatchDeleteOrders removes all orders with the given ids and returns how many were deleted.
func (s *Service) BatchDeleteOrders(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyBatch
	}

	return routing.CallUnit(ctx, s.unit, OpBatchDeleteOrders, func(ctx context.Context) (int64, error) {
		return s.mapper.BatchDelete(ctx, ids)
	})
}

// IsOrderNoExists reports whether an order with orderNo is stored.
func (s *Service) IsOrderNoExists(ctx context.Context, orderNo string) (bool, error) {
	return routing.CallUnit(ctx, s.unit, OpIsOrderNoExists, func(ctx context.Context) (bool, error) {
		return s.orderNoExists(ctx, orderNo)
	})
}

func (s *Service) orderNoExists(ctx context.Context, orderNo string) (bool, error) {
	_, err := s.mapper.SelectByOrderNo(ctx, orderNo)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrOrderNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) withDefaults(o Order) Order {
	now := s.now()

	if o.OrderNo == "" {
		o.OrderNo = s.newOrderNo()
	}

	if o.Status == "" {
		o.Status = StatusPending
	}

	if o.TotalAmount.IsZero() {
		o.TotalAmount = o.ItemsTotal()
	}

	o.CreatedAt = now
	o.UpdatedAt = now

	return o
}

func requireAffected(affected int64, err error) error {
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
