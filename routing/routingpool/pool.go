package routingpool

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool/internal/adapters"
)

const (
	// TargetPrimary and TargetReplica name the physical pool that served an acquisition.
	TargetPrimary = "primary"
	TargetReplica = "replica"

	// MetricAcquisitions counts connection acquisitions, labeled by route, target and action.
	MetricAcquisitions = "routing_pool_acquisitions_total"

	actionQuery = "query"
	actionExec  = "exec"
	actionBegin = "begin"
)

type (
	// Target is one physical pool. Implementations exist for pgx.Pool, sql.DB and sqlx.DB.
	Target = adapters.DBAdapter

	// Rows is the result set of a query.
	Rows = adapters.DBRows

	// Result is the outcome of a statement.
	Result = adapters.DBResult

	// Tx is a transaction running on one connection of one Target.
	Tx = adapters.DBTx
)

// Pool is the routing connection-pool proxy over a primary and an optional replica Target.
//
// A Pool is safe for concurrent use; it holds no routing state of its own.
type Pool struct {
	primary          Target
	replica          Target
	logger           routing.Logger
	contextualLogger routing.ContextualLogger
	metricsCollector routing.MetricsCollector
}

// txContextKey is a private type to prevent context key collisions.
type txContextKey struct{}

// boundTx is a transaction bound into a context by WithinTx.
type boundTx struct {
	pool   *Pool
	tx     Tx
	route  routing.Route
	target string
}

// New creates a Pool over arbitrary targets. A nil replica means the primary serves every route.
func New(primary, replica Target, options ...Option) (*Pool, error) {
	if primary == nil {
		return nil, ErrNilDatabaseConnection
	}

	pool := &Pool{
		primary: primary,
		replica: replica,
	}

	for _, option := range options {
		if err := option(pool); err != nil {
			return nil, err
		}
	}

	return pool, nil
}

// NewFromPGXPools creates a Pool over pgx pools. replica may be nil.
func NewFromPGXPools(primary, replica *pgxpool.Pool, options ...Option) (*Pool, error) {
	if primary == nil {
		return nil, ErrNilDatabaseConnection
	}

	var replicaTarget Target
	if replica != nil {
		replicaTarget = adapters.NewPGXAdapter(replica)
	}

	return New(adapters.NewPGXAdapter(primary), replicaTarget, options...)
}

// NewFromSQLDBs creates a Pool over sql.DB handles. replica may be nil.
func NewFromSQLDBs(primary, replica *sql.DB, options ...Option) (*Pool, error) {
	if primary == nil {
		return nil, ErrNilDatabaseConnection
	}

	var replicaTarget Target
	if replica != nil {
		replicaTarget = adapters.NewSQLAdapter(replica)
	}

	return New(adapters.NewSQLAdapter(primary), replicaTarget, options...)
}

// NewFromSQLX creates a Pool over sqlx.DB handles. replica may be nil.
func NewFromSQLX(primary, replica *sqlx.DB, options ...Option) (*Pool, error) {
	if primary == nil {
		return nil, ErrNilDatabaseConnection
	}

	var replicaTarget Target
	if replica != nil {
		replicaTarget = adapters.NewSQLXAdapter(replica)
	}

	return New(adapters.NewSQLXAdapter(primary), replicaTarget, options...)
}

// HasReplica reports whether read routes are served by a separate replica pool.
func (p *Pool) HasReplica() bool {
	return p.replica != nil
}

// Query executes a query on the pool selected by the route of ctx,
// or on the transaction bound to ctx by WithinTx.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if bound := p.boundTxFrom(ctx); bound != nil {
		rows, err := bound.tx.Query(ctx, query, args...)
		if err != nil {
			p.logError(ctx, logMsgQueryFailed, err, logAttrTarget, bound.target, logAttrQuery, query)
			return nil, errors.Join(ErrQueryFailed, err)
		}

		return rows, nil
	}

	_, target, targetName := p.acquire(ctx, actionQuery)

	rows, err := target.Query(ctx, query, args...)
	if err != nil {
		p.logError(ctx, logMsgQueryFailed, err, logAttrTarget, targetName, logAttrQuery, query)
		return nil, errors.Join(ErrQueryFailed, err)
	}

	return rows, nil
}

// Exec executes a statement on the pool selected by the route of ctx,
// or on the transaction bound to ctx by WithinTx.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	if bound := p.boundTxFrom(ctx); bound != nil {
		result, err := bound.tx.Exec(ctx, query, args...)
		if err != nil {
			p.logError(ctx, logMsgExecFailed, err, logAttrTarget, bound.target, logAttrQuery, query)
			return nil, errors.Join(ErrExecFailed, err)
		}

		return result, nil
	}

	_, target, targetName := p.acquire(ctx, actionExec)

	result, err := target.Exec(ctx, query, args...)
	if err != nil {
		p.logError(ctx, logMsgExecFailed, err, logAttrTarget, targetName, logAttrQuery, query)
		return nil, errors.Join(ErrExecFailed, err)
	}

	return result, nil
}

// WithinTx runs fn inside a transaction started on the pool selected by the route of ctx.
//
// The context passed to fn carries the transaction; Query and Exec with that context run on it,
// whatever route their own callers resolve. If ctx already carries a transaction of this Pool,
// fn joins it. The transaction is committed when fn returns nil and rolled back when fn returns
// an error or panics. fn's error is returned unchanged unless the rollback fails too.
func (p *Pool) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return ErrNilTxFunc
	}

	if p.boundTxFrom(ctx) != nil {
		return fn(ctx)
	}

	route, target, targetName := p.acquire(ctx, actionBegin)

	tx, beginErr := target.Begin(ctx)
	if beginErr != nil {
		p.logError(ctx, logMsgBeginFailed, beginErr, logAttrTarget, targetName)
		return errors.Join(ErrBeginTxFailed, beginErr)
	}

	txCtx := context.WithValue(ctx, txContextKey{}, &boundTx{pool: p, tx: tx, route: route, target: targetName})

	completed := false
	defer func() {
		if !completed {
			if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
				p.logError(ctx, logMsgRollbackFailed, rollbackErr, logAttrTarget, targetName)
			}
		}
	}()

	fnErr := fn(txCtx)
	completed = true

	if fnErr != nil {
		if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
			p.logError(ctx, logMsgRollbackFailed, rollbackErr, logAttrTarget, targetName)
			return errors.Join(fnErr, ErrRollbackFailed, rollbackErr)
		}

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		p.logError(ctx, logMsgCommitFailed, commitErr, logAttrTarget, targetName)
		return errors.Join(ErrCommitFailed, commitErr)
	}

	return nil
}

// Close closes the primary and the replica pool and reports every failure.
func (p *Pool) Close() error {
	var result *multierror.Error

	if err := p.primary.Close(); err != nil {
		result = multierror.Append(result, errors.Join(ErrClosingPoolFailed, err))
	}

	if p.replica != nil {
		if err := p.replica.Close(); err != nil {
			result = multierror.Append(result, errors.Join(ErrClosingPoolFailed, err))
		}
	}

	return result.ErrorOrNil()
}

// acquire reads the route of ctx once and returns the target serving it.
func (p *Pool) acquire(ctx context.Context, action string) (routing.Route, Target, string) {
	route := routing.CurrentRoute(ctx)

	target, targetName := p.primary, TargetPrimary
	if route == routing.RouteRead && p.replica != nil {
		target, targetName = p.replica, TargetReplica
	}

	p.observeAcquisition(ctx, route, targetName, action)

	return route, target, targetName
}

func (p *Pool) boundTxFrom(ctx context.Context) *boundTx {
	bound, ok := ctx.Value(txContextKey{}).(*boundTx)
	if !ok || bound.pool != p {
		return nil
	}

	return bound
}

// InTx reports whether ctx carries a transaction of this Pool.
func (p *Pool) InTx(ctx context.Context) bool {
	return p.boundTxFrom(ctx) != nil
}
