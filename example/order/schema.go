package order

// Schema creates the orders table.
const Schema = `CREATE TABLE IF NOT EXISTS orders (
	id               BIGSERIAL PRIMARY KEY,
	order_no         TEXT NOT NULL UNIQUE,
	customer_id      BIGINT NOT NULL,
	customer_name    TEXT NOT NULL DEFAULT '',
	total_amount     NUMERIC(12, 2) NOT NULL,
	status           TEXT NOT NULL DEFAULT 'PENDING',
	payment_method   TEXT NOT NULL DEFAULT '',
	payment_time     TIMESTAMPTZ NULL,
	shipping_address TEXT NOT NULL DEFAULT '',
	remark           TEXT NOT NULL DEFAULT '',
	items            JSONB NOT NULL DEFAULT '[]'::jsonb,
	create_time      TIMESTAMPTZ NOT NULL DEFAULT now(),
	update_time      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders (customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);`

const (
	dialectPostgres = "postgres"
	tableOrders     = "orders"
	castJsonb       = "?::jsonb"

	colID              = "id"
	colOrderNo         = "order_no"
	colCustomerID      = "customer_id"
	colCustomerName    = "customer_name"
	colTotalAmount     = "total_amount"
	colStatus          = "status"
	colPaymentMethod   = "payment_method"
	colPaymentTime     = "payment_time"
	colShippingAddress = "shipping_address"
	colRemark          = "remark"
	colItems           = "items"
	colCreateTime      = "create_time"
	colUpdateTime      = "update_time"
)

var allColumns = []any{
	colID, colOrderNo, colCustomerID, colCustomerName, colTotalAmount, colStatus, colPaymentMethod,
	colPaymentTime, colShippingAddress, colRemark, colItems, colCreateTime, colUpdateTime,
}
