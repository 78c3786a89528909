package order

import "errors"

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNoExists         = errors.New("order number already exists")
	ErrInvalidOrder          = errors.New("invalid order")
	ErrMissingID             = errors.New("order id must be set")
	ErrEmptyBatch            = errors.New("batch must not be empty")
	ErrEmptyPatch            = errors.New("patch changes nothing")
	ErrBuildingQueryFailed   = errors.New("building query failed")
	ErrQueryingFailed        = errors.New("querying orders failed")
	ErrScanningRowFailed     = errors.New("scanning order row failed")
	ErrRowsAffectedFailed    = errors.New("reading rows affected failed")
	ErrMarshalingItemsFailed = errors.New("marshaling order items failed")
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
)
