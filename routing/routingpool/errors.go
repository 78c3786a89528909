package routingpool

import "errors"

var (
	// ErrNilDatabaseConnection is returned when a constructor receives a nil primary connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrNilTxFunc is returned when WithinTx is called without a function to run.
	ErrNilTxFunc = errors.New("transaction function must not be nil")

	ErrQueryFailed         = errors.New("query failed")
	ErrExecFailed          = errors.New("exec failed")
	ErrBeginTxFailed       = errors.New("beginning transaction failed")
	ErrCommitFailed        = errors.New("committing transaction failed")
	ErrRollbackFailed      = errors.New("rolling back transaction failed")
	ErrClosingPoolFailed   = errors.New("closing pool failed")
	ErrNilLogger           = errors.New("logger must not be nil")
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")
)
