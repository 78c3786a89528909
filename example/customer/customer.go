package customer

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/doug-martin/goqu/v9"
)

// Customer statuses.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Customer is one row of the customers table.
type Customer struct {
	ID        int64
	Code      string
	Name      string
	Email     string
	Phone     string
	Age       int
	Address   string
	Status    string
	Remark    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a new customer must carry.
func (c Customer) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("%w: customer code must not be blank", ErrInvalidCustomer)
	}

	if c.Name == "" {
		return fmt.Errorf("%w: customer name must not be blank", ErrInvalidCustomer)
	}

	if c.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrInvalidCustomer)
	}

	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: malformed email %q", ErrInvalidCustomer, c.Email)
		}
	}

	return nil
}

// Patch carries the fields of a selective update; nil fields are left untouched.
type Patch struct {
	Code      *string
	Name      *string
	Email     *string
	Phone     *string
	Age       *int
	Address   *string
	Status    *string
	Remark    *string
	UpdatedAt time.Time
}

// StatusPatch builds a Patch changing only the status.
func StatusPatch(status string, updatedAt time.Time) Patch {
	return Patch{Status: &status, UpdatedAt: updatedAt}
}

func (p Patch) record() goqu.Record {
	record := goqu.Record{}

	setIfPresent(record, colCode, p.Code)
	setIfPresent(record, colName, p.Name)
	setIfPresent(record, colEmail, p.Email)
	setIfPresent(record, colPhone, p.Phone)
	setIfPresent(record, colAge, p.Age)
	setIfPresent(record, colAddress, p.Address)
	setIfPresent(record, colStatus, p.Status)
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
