package order

import (
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
)

// Item is one line of an order.
type Item struct {
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Total returns Quantity * UnitPrice.
func (i Item) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is one row of the orders table.
type Order struct {
	ID              int64
	OrderNo         string
	CustomerID      int64
	CustomerName    string
	TotalAmount     decimal.Decimal
	Status          string
	PaymentMethod   string
	PaymentTime     *time.Time
	ShippingAddress string
	Remark          string
	Items           []Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemsTotal sums the totals of all items.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Total())
	}

	return total
}

// Validate checks the fields a new order must carry.
func (o Order) Validate() error {
	if o.CustomerID <= 0 {
		return fmt.Errorf("%w: customer id must be positive", ErrInvalidOrder)
	}

	if o.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: total amount %s must not be negative", ErrInvalidOrder, o.TotalAmount)
	}

	for _, item := range o.Items {
		if item.SKU == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: malformed item %+v", ErrInvalidOrder, item)
		}
	}

	if len(o.Items) > 0 && !o.TotalAmount.IsZero() && !o.TotalAmount.Equal(o.ItemsTotal()) {
		return fmt.Errorf("%w: total amount %s does not match items total %s", ErrInvalidOrder, o.TotalAmount, o.ItemsTotal())
	}

	return nil
}

// Patch carries the fields of a selective update; nil fields are left untouched.
type Patch struct {
	CustomerName    *string
	TotalAmount     *decimal.Decimal
	Status          *string
	PaymentMethod   *string
	PaymentTime     *time.Time
	ShippingAddress *string
	Remark          *string
	UpdatedAt       time.Time
}

// PaymentPatch marks an order as paid with the given method at paidAt.
func PaymentPatch(method string, paidAt time.Time) Patch {
	status := StatusPaid

	return Patch{
		Status:        &status,
		PaymentMethod: &method,
		PaymentTime:   &paidAt,
		UpdatedAt:     paidAt,
	}
}

func (p Patch) record() goqu.Record {
	record := goqu.Record{}

	setIfPresent(record, colCustomerName, p.CustomerName)
	setIfPresent(record, colTotalAmount, p.TotalAmount)
	setIfPresent(record, colStatus, p.Status)
	setIfPresent(record, colPaymentMethod, p.PaymentMethod)
	setIfPresent(record, colPaymentTime, p.PaymentTime)
	setIfPresent(record, colShippingAddress, p.ShippingAddress)
	setIfPresent(record, colRemark, p.Remark)

	if !p.UpdatedAt.IsZero() {
		record[colUpdateTime] = p.UpdatedAt
	}

	return record
}

func setIfPresent[T any](record goqu.Record, column string, value *T) {
	if value != nil {
		record[column] = *value
	}
}

func marshalItems(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}

	data, err := jsoniter.ConfigFastest.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMarshalingItemsFailed, err)
	}

	return string(data), nil
}

func unmarshalItems(data []byte) ([]Item, error) {
	items := make([]Item, 0)
	if len(data) == 0 {
		return items, nil
	}

	if err := jsoniter.ConfigFastest.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalingItemsFailed, err)
	}

	return items, nil
}
