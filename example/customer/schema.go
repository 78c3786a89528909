package customer

// Schema creates the customers table.
const Schema = `CREATE TABLE IF NOT EXISTS customers (
	id            BIGSERIAL PRIMARY KEY,
	customer_code TEXT NOT NULL UNIQUE,
	customer_name TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	age           INTEGER NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'ACTIVE',
	remark        TEXT NOT NULL DEFAULT '',
	create_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
	update_time   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_customers_status ON customers (status);`

const (
	dialectPostgres = "postgres"
	tableCustomers  = "customers"

	colID         = "id"
	colCode       = "customer_code"
	colName       = "customer_name"
	colEmail      = "email"
	colPhone      = "phone"
	colAge        = "age"
	colAddress    = "address"
	colStatus     = "status"
	colRemark     = "remark"
	colCreateTime = "create_time"
	colUpdateTime = "update_time"
)

var allColumns = []any{
	colID, colCode, colName, colEmail, colPhone, colAge,
	colAddress, colStatus, colRemark, colCreateTime, colUpdateTime,
}
