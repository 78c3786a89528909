package customer

import "errors"

var (
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCustomerCodeExists    = errors.New("customer code already exists")
	ErrInvalidCustomer       = errors.New("invalid customer")
	ErrMissingID             = errors.New("customer id must be set")
	ErrEmptyBatch            = errors.New("batch must not be empty")
	ErrEmptyPatch            = errors.New("patch changes nothing")
	ErrBuildingQueryFailed   = errors.New("building query failed")
	ErrQueryingFailed        = errors.New("querying customers failed")
	ErrScanningRowFailed     = errors.New("scanning customer row failed")
	ErrRowsAffectedFailed    = errors.New("reading rows affected failed")
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
)
