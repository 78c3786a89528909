package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/paging"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
)

// MapperUnit is the unit name under which all Mapper operations are intercepted.
const MapperUnit = "OrderMapper"

// Mapper operation names.
const (
	OpSelectByID          = "selectById"
	OpSelectByOrderNo     = "selectByOrderNo"
	OpSelectAll           = "selectAll"
	OpSelectByCustomerID  = "selectByCustomerId"
	OpSelectByStatus      = "selectByStatus"
	OpSelectByAmountRange = "selectByAmountRange"
	OpSelectByPage        = "selectByPage"
	OpCountAll            = "countAll"
	OpCountByStatus       = "countByStatus"
	OpCountByCustomerID   = "countByCustomerId"
	OpInsert              = "insert"
	OpUpdateByIDSelective = "updateByIdSelective"
	OpDeleteByID          = "deleteById"
	OpBatchInsert         = "batchInsert"
	OpBatchDelete         = "batchDelete"
)

// DB is the part of routingpool.Pool the Mapper needs.
type DB interface {
	Query(ctx context.Context, query string, args ...any) (routingpool.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (routingpool.Result, error)
}

// Mapper issues one SQL statement per operation against the orders table.
type Mapper struct {
	unit routing.UnitInterceptor
	db   DB
	sql  goqu.DialectWrapper
}

// NewMapper creates a Mapper whose operations are intercepted as unit MapperUnit.
func NewMapper(interceptor *routing.Interceptor, db DB) (*Mapper, error) {
	if interceptor == nil {
		return nil, routing.ErrNilInterceptor
	}

	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return &Mapper{
		unit: interceptor.Unit(MapperUnit),
		db:   db,
		sql:  goqu.Dialect(dialectPostgres),
	}, nil
}

func (m *Mapper) selectOrders() *goqu.SelectDataset {
	return m.sql.From(tableOrders).Prepared(true).Select(allColumns...)
}

func (m *Mapper) SelectByID(ctx context.Context, id int64) (Order, error) {
	return m.selectOne(ctx, OpSelectByID, m.selectOrders().Where(goqu.C(colID).Eq(id)))
}

func (m *Mapper) SelectByOrderNo(ctx context.Context, orderNo string) (Order, error) {
	return m.selectOne(ctx, OpSelectByOrderNo, m.selectOrders().Where(goqu.C(colOrderNo).Eq(orderNo)))
}

func (m *Mapper) SelectAll(ctx context.Context) ([]Order, error) {
	return m.selectMany(ctx, OpSelectAll, m.selectOrders().Order(goqu.C(colCreateTime).Desc()))
}

func (m *Mapper) SelectByCustomerID(ctx context.Context, customerID int64) ([]Order, error) {
	stmt := m.selectOrders().
		Where(goqu.C(colCustomerID).Eq(customerID)).
		Order(goqu.C(colCreateTime).Desc())

	return m.selectMany(ctx, OpSelectByCustomerID, stmt)
}

func (m *Mapper) SelectByStatus(ctx context.Context, status string) ([]Order, error) {
	stmt := m.selectOrders().
		Where(goqu.C(colStatus).Eq(status)).
		Order(goqu.C(colCreateTime).Desc())

	return m.selectMany(ctx, OpSelectByStatus, stmt)
}

// SelectByAmountRange returns orders whose total lies within the inclusive bounds.
// A nil bound is open.
func (m *Mapper) SelectByAmountRange(ctx context.Context, minAmount, maxAmount *decimal.Decimal) ([]Order, error) {
	conditions := make([]goqu.Expression, 0, 2)

	if minAmount != nil {
		conditions = append(conditions, goqu.C(colTotalAmount).Gte(*minAmount))
	}

	if maxAmount != nil {
		conditions = append(conditions, goqu.C(colTotalAmount).Lte(*maxAmount))
	}

	stmt := m.selectOrders().Where(conditions...).Order(goqu.C(colTotalAmount).Asc())

	return m.selectMany(ctx, OpSelectByAmountRange, stmt)
}

// SelectByPage returns one page of orders, newest first.
func (m *Mapper) SelectByPage(ctx context.Context, page paging.Page) ([]Order, error) {
	stmt := m.selectOrders().
		Order(goqu.C(colCreateTime).Desc(), goqu.C(colID).Desc()).
		Limit(page.Limit()).
		Offset(page.Offset())

	return m.selectMany(ctx, OpSelectByPage, stmt)
}

func (m *Mapper) CountAll(ctx context.Context) (int64, error) {
	return m.count(ctx, OpCountAll, m.sql.From(tableOrders).Prepared(true))
}

func (m *Mapper) CountByStatus(ctx context.Context, status string) (int64, error) {
	stmt := m.sql.From(tableOrders).Prepared(true).Where(goqu.C(colStatus).Eq(status))

	return m.count(ctx, OpCountByStatus, stmt)
}

func (m *Mapper) CountByCustomerID(ctx context.Context, customerID int64) (int64, error) {
	stmt := m.sql.From(tableOrders).Prepared(true).Where(goqu.C(colCustomerID).Eq(customerID))

	return m.count(ctx, OpCountByCustomerID, stmt)
}

// Insert stores o and returns the generated id.
func (m *Mapper) Insert(ctx context.Context, o Order) (int64, error) {
	record, err := insertRecord(o)
	if err != nil {
		return 0, err
	}

	query, args, err := m.sql.Insert(tableOrders).Prepared(true).
		Rows(record).
		Returning(colID).
		ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return routing.CallUnit(ctx, m.unit, OpInsert, func(ctx context.Context) (int64, error) {
		rows, err := m.db.Query(ctx, query, args...)
		if err != nil {
			return 0, errors.Join(ErrQueryingFailed, err)
		}
		defer func() { _ = rows.Close() }()

		if !rows.Next() {
			return 0, errors.Join(ErrQueryingFailed, rows.Err())
		}

		var id int64
		if err = rows.Scan(&id); err != nil {
			return 0, errors.Join(ErrScanningRowFailed, err)
		}

		return id, nil
	})
}

// UpdateByIDSelective writes the non-nil fields of patch and returns the number of updated rows.
func (m *Mapper) UpdateByIDSelective(ctx context.Context, id int64, patch Patch) (int64, error) {
	record := patch.record()
	if len(record) == 0 {
		return 0, ErrEmptyPatch
	}

	query, args, err := m.sql.Update(tableOrders).Prepared(true).
		Set(record).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpUpdateByIDSelective, query, args)
}

func (m *Mapper) DeleteByID(ctx context.Context, id int64) (int64, error) {
	query, args, err := m.sql.Delete(tableOrders).Prepared(true).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpDeleteByID, query, args)
}

// BatchInsert stores all orders in one statement and returns the number of inserted rows.
func (m *Mapper) BatchInsert(ctx context.Context, orders []Order) (int64, error) {
	if len(orders) == 0 {
		return 0, ErrEmptyBatch
	}

	records := make([]any, len(orders))
	for i, o := range orders {
		record, err := insertRecord(o)
		if err != nil {
			return 0, err
		}

		records[i] = record
	}

	query, args, err := m.sql.Insert(tableOrders).Prepared(true).Rows(records...).ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpBatchInsert, query, args)
}

func (m *Mapper) BatchDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyBatch
	}

	query, args, err := m.sql.Delete(tableOrders).Prepared(true).
		Where(goqu.C(colID).In(ids)).
		ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpBatchDelete, query, args)
}

func (m *Mapper) selectOne(ctx context.Context, operation string, stmt *goqu.SelectDataset) (Order, error) {
	orders, err := m.selectMany(ctx, operation, stmt.Limit(1))
	if err != nil {
		return Order{}, err
	}

	if len(orders) == 0 {
		return Order{}, ErrOrderNotFound
	}

	return orders[0], nil
}

func (m *Mapper) selectMany(ctx context.Context, operation string, stmt *goqu.SelectDataset) ([]Order, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	return routing.CallUnit(ctx, m.unit, operation, func(ctx context.Context) ([]Order, error) {
		rows, err := m.db.Query(ctx, query, args...)
		if err != nil {
			return nil, errors.Join(ErrQueryingFailed, err)
		}
		defer func() { _ = rows.Close() }()

		orders := make([]Order, 0)
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return nil, err
			}

			orders = append(orders, o)
		}

		if err = rows.Err(); err != nil {
			return nil, errors.Join(ErrQueryingFailed, err)
		}

		return orders, nil
	})
}

func scanOrder(rows routingpool.Rows) (Order, error) {
	var o Order
	var items []byte

	err := rows.Scan(
		&o.ID, &o.OrderNo, &o.CustomerID, &o.CustomerName, &o.TotalAmount, &o.Status, &o.PaymentMethod,
		&o.PaymentTime, &o.ShippingAddress, &o.Remark, &items, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return Order{}, errors.Join(ErrScanningRowFailed, err)
	}

	if o.Items, err = unmarshalItems(items); err != nil {
		return Order{}, errors.Join(ErrScanningRowFailed, err)
	}

	return o, nil
}

func (m *Mapper) count(ctx context.Context, operation string, stmt *goqu.SelectDataset) (int64, error) {
	query, args, err := stmt.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return routing.CallUnit(ctx, m.unit, operation, func(ctx context.Context) (int64, error) {
		rows, err := m.db.Query(ctx, query, args...)
		if err != nil {
			return 0, errors.Join(ErrQueryingFailed, err)
		}
		defer func() { _ = rows.Close() }()

		var total int64
		if rows.Next() {
			if err = rows.Scan(&total); err != nil {
				return 0, errors.Join(ErrScanningRowFailed, err)
			}
		}

		return total, rows.Err()
	})
}

func (m *Mapper) exec(ctx context.Context, operation, query string, args []any) (int64, error) {
	return routing.CallUnit(ctx, m.unit, operation, func(ctx context.Context) (int64, error) {
		result, err := m.db.Exec(ctx, query, args...)
		if err != nil {
			return 0, err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, errors.Join(ErrRowsAffectedFailed, err)
		}

		return affected, nil
	})
}

func insertRecord(o Order) (goqu.Record, error) {
	items, err := marshalItems(o.Items)
	if err != nil {
		return nil, err
	}

	// every record of a batch must carry the same columns, so an unpaid order binds NULL
	paymentTime := sql.NullTime{}
	if o.PaymentTime != nil {
		paymentTime = sql.NullTime{Time: *o.PaymentTime, Valid: true}
	}

	record := goqu.Record{
		colOrderNo:         o.OrderNo,
		colCustomerID:      o.CustomerID,
		colCustomerName:    o.CustomerName,
		colTotalAmount:     o.TotalAmount,
		colStatus:          o.Status,
		colPaymentMethod:   o.PaymentMethod,
		colShippingAddress: o.ShippingAddress,
		colPaymentTime:     paymentTime,
		colRemark:          o.Remark,
		colItems:           goqu.L(castJsonb, items),
		colCreateTime:      o.CreatedAt,
		colUpdateTime:      o.UpdatedAt,
	}

	return record, nil
}
