package customer

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/example/shared/paging"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
)

// MapperUnit is the unit name under which all Mapper operations are intercepted.
const MapperUnit = "CustomerMapper"

// Mapper operation names.
const (
	OpSelectByID           = "selectById"
	OpSelectByCustomerCode = "selectByCustomerCode"
	OpSelectAll            = "selectAll"
	OpSelectByStatus       = "selectByStatus"
	OpSelectByAgeRange     = "selectByAgeRange"
	OpSelectByPage         = "selectByPage"
	OpCountAll             = "countAll"
	OpCountByStatus        = "countByStatus"
	OpInsert               = "insert"
	OpUpdateByIDSelective  = "updateByIdSelective"
	OpDeleteByID           = "deleteById"
	OpBatchInsert          = "batchInsert"
	OpBatchDelete          = "batchDelete"
)

// DB is the part of routingpool.Pool the Mapper needs.
type DB interface {
	Query(ctx context.Context, query string, args ...any) (routingpool.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (routingpool.Result, error)
}

// Mapper issues one SQL statement per operation against the customers table.
// Each operation runs through the interceptor, which decides whether the statement
// goes to the primary or the replica.
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

func (m *Mapper) selectCustomers() *goqu.SelectDataset {
	return m.sql.From(tableCustomers).Prepared(true).Select(allColumns...)
}

// SelectByID returns the customer with the given id or ErrCustomerNotFound.
func (m *Mapper) SelectByID(ctx context.Context, id int64) (Customer, error) {
	return m.selectOne(ctx, OpSelectByID, m.selectCustomers().Where(goqu.C(colID).Eq(id)))
}

// SelectByCustomerCode returns the customer with the given code or ErrCustomerNotFound.
func (m *Mapper) SelectByCustomerCode(ctx context.Context, code string) (Customer, error) {
	return m.selectOne(ctx, OpSelectByCustomerCode, m.selectCustomers().Where(goqu.C(colCode).Eq(code)))
}

// SelectAll returns all customers, newest first.
func (m *Mapper) SelectAll(ctx context.Context) ([]Customer, error) {
	return m.selectMany(ctx, OpSelectAll, m.selectCustomers().Order(goqu.C(colCreateTime).Desc()))
}

// SelectByStatus returns all customers with the given status, newest first.
func (m *Mapper) SelectByStatus(ctx context.Context, status string) ([]Customer, error) {
	stmt := m.selectCustomers().
		Where(goqu.C(colStatus).Eq(status)).
		Order(goqu.C(colCreateTime).Desc())

	return m.selectMany(ctx, OpSelectByStatus, stmt)
}

// SelectByAgeRange returns customers whose age lies within the inclusive bounds.
// A nil bound is open.
func (m *Mapper) SelectByAgeRange(ctx context.Context, minAge, maxAge *int) ([]Customer, error) {
	conditions := make([]goqu.Expression, 0, 2)

	if minAge != nil {
		conditions = append(conditions, goqu.C(colAge).Gte(*minAge))
	}

	if maxAge != nil {
		conditions = append(conditions, goqu.C(colAge).Lte(*maxAge))
	}

	stmt := m.selectCustomers().Where(conditions...).Order(goqu.C(colAge).Asc())

	return m.selectMany(ctx, OpSelectByAgeRange, stmt)
}

// SelectByPage returns one page of customers ordered by id.
func (m *Mapper) SelectByPage(ctx context.Context, page paging.Page) ([]Customer, error) {
	stmt := m.selectCustomers().
		Order(goqu.C(colID).Asc()).
		Limit(page.Limit()).
		Offset(page.Offset())

	return m.selectMany(ctx, OpSelectByPage, stmt)
}

// CountAll returns the number of customers.
func (m *Mapper) CountAll(ctx context.Context) (int64, error) {
	return m.count(ctx, OpCountAll, m.sql.From(tableCustomers).Prepared(true))
}

// CountByStatus returns the number of customers with the given status.
func (m *Mapper) CountByStatus(ctx context.Context, status string) (int64, error) {
	stmt := m.sql.From(tableCustomers).Prepared(true).Where(goqu.C(colStatus).Eq(status))

	return m.count(ctx, OpCountByStatus, stmt)
}

// Insert stores c and returns the generated id.
func (m *Mapper) Insert(ctx context.Context, c Customer) (int64, error) {
	query, args, err := m.sql.Insert(tableCustomers).Prepared(true).
		Rows(insertRecord(c)).
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

	query, args, err := m.sql.Update(tableCustomers).Prepared(true).
		Set(record).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpUpdateByIDSelective, query, args)
}

// DeleteByID deletes one customer and returns the number of deleted rows.
func (m *Mapper) DeleteByID(ctx context.Context, id int64) (int64, error) {
	query, args, err := m.sql.Delete(tableCustomers).Prepared(true).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpDeleteByID, query, args)
}

// BatchInsert stores all customers in one statement and returns the number of inserted rows.
func (m *Mapper) BatchInsert(ctx context.Context, customers []Customer) (int64, error) {
	if len(customers) == 0 {
		return 0, ErrEmptyBatch
	}

	records := make([]any, len(customers))
	for i, c := range customers {
		records[i] = insertRecord(c)
	}

	query, args, err := m.sql.Insert(tableCustomers).Prepared(true).Rows(records...).ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpBatchInsert, query, args)
}

// BatchDelete deletes all customers with the given ids and returns the number of deleted rows.
func (m *Mapper) BatchDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyBatch
	}

	query, args, err := m.sql.Delete(tableCustomers).Prepared(true).
		Where(goqu.C(colID).In(ids)).
		ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	return m.exec(ctx, OpBatchDelete, query, args)
}

func (m *Mapper) selectOne(ctx context.Context, operation string, stmt *goqu.SelectDataset) (Customer, error) {
	customers, err := m.selectMany(ctx, operation, stmt.Limit(1))
	if err != nil {
		return Customer{}, err
	}

	if len(customers) == 0 {
		return Customer{}, ErrCustomerNotFound
	}

	return customers[0], nil
}

func (m *Mapper) selectMany(ctx context.Context, operation string, stmt *goqu.SelectDataset) ([]Customer, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	return routing.CallUnit(ctx, m.unit, operation, func(ctx context.Context) ([]Customer, error) {
		rows, err := m.db.Query(ctx, query, args...)
		if err != nil {
			return nil, errors.Join(ErrQueryingFailed, err)
		}
		defer func() { _ = rows.Close() }()

		customers := make([]Customer, 0)
		for rows.Next() {
			var c Customer
			if err = rows.Scan(
				&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Age,
				&c.Address, &c.Status, &c.Remark, &c.CreatedAt, &c.UpdatedAt,
			); err != nil {
				return nil, errors.Join(ErrScanningRowFailed, err)
			}

			customers = append(customers, c)
		}

		if err = rows.Err(); err != nil {
			return nil, errors.Join(ErrQueryingFailed, err)
		}

		return customers, nil
	})
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

func insertRecord(c Customer) goqu.Record {
	return goqu.Record{
		colCode:       c.Code,
		colName:       c.Name,
		colEmail:      c.Email,
		colPhone:      c.Phone,
		colAge:        c.Age,
		colAddress:    c.Address,
		colStatus:     c.Status,
		colRemark:     c.Remark,
		colCreateTime: c.CreatedAt,
		colUpdateTime: c.UpdatedAt,
	}
}
