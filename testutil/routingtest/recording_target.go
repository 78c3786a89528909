package routingtest

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/routingpool"
)

// Actions recorded by RecordingTarget.
const (
	ActionQuery = "query"
	ActionExec  = "exec"
	ActionBegin = "begin"
)

// RecordedStatement is one call that reached a RecordingTarget.
type RecordedStatement struct {
	Target string
	Action string
	// Route is routing.CurrentRoute of the context the statement was issued with.
	Route routing.Route
	Query string
	Args  []any
	InTx  bool
}

// RowsResponder produces the rows returned for a query.
type RowsResponder func(query string, args []any) [][]any

// RecordingTarget is a routingpool.Target that records every statement with the route visible
// in its context, and answers queries with programmable rows.
type RecordingTarget struct {
	name         string
	mu           sync.Mutex
	statements   []RecordedStatement
	responder    RowsResponder
	rowsAffected int64
	queryErr     error
	execErr      error
	beginErr     error
	commitErr    error
	rollbackErr  error
	closeErr     error
	commits      int
	rollbacks    int
	closed       bool
}

// NewRecordingTarget creates a RecordingTarget that answers queries with no rows
// and statements with one affected row.
func NewRecordingTarget(name string) *RecordingTarget {
	return &RecordingTarget{
		name:         name,
		statements:   make([]RecordedStatement, 0),
		rowsAffected: 1,
	}
}

// RespondWith sets the responder for queries.
func (t *RecordingTarget) RespondWith(responder RowsResponder) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responder = responder

	return t
}

// RespondWithRows answers every query with the given rows.
func (t *RecordingTarget) RespondWithRows(rows ...[]any) *RecordingTarget {
	return t.RespondWith(func(string, []any) [][]any { return rows })
}

// WithRowsAffected sets the number of affected rows reported for statements.
func (t *RecordingTarget) WithRowsAffected(n int64) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rowsAffected = n

	return t
}

// FailQueriesWith makes every query fail with err.
func (t *RecordingTarget) FailQueriesWith(err error) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queryErr = err

	return t
}

// FailExecWith makes every statement fail with err.
func (t *RecordingTarget) FailExecWith(err error) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.execErr = err

	return t
}

// FailBeginWith makes every transaction begin fail with err.
func (t *RecordingTarget) FailBeginWith(err error) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.beginErr = err

	return t
}

// FailCommitWith makes every commit fail with err.
func (t *RecordingTarget) FailCommitWith(err error) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commitErr = err

	return t
}

// FailRollbackWith makes every rollback fail with err.
func (t *RecordingTarget) FailRollbackWith(err error) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollbackErr = err

	return t
}

// FailCloseWith makes Close fail with err.
func (t *RecordingTarget) FailCloseWith(err error) *RecordingTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeErr = err

	return t
}

// Query implements routingpool.Target.
func (t *RecordingTarget) Query(ctx context.Context, query string, args ...any) (routingpool.Rows, error) {
	return t.query(ctx, query, args, false)
}

// Exec implements routingpool.Target.
func (t *RecordingTarget) Exec(ctx context.Context, query string, args ...any) (routingpool.Result, error) {
	return t.exec(ctx, query, args, false)
}

// Begin implements routingpool.Target.
func (t *RecordingTarget) Begin(ctx context.Context) (routingpool.Tx, error) {
	t.record(ctx, ActionBegin, "", nil, false)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.beginErr != nil {
		return nil, t.beginErr
	}

	return &recordingTx{target: t}, nil
}

// Close implements routingpool.Target.
func (t *RecordingTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true

	return t.closeErr
}

func (t *RecordingTarget) query(ctx context.Context, query string, args []any, inTx bool) (routingpool.Rows, error) {
	t.record(ctx, ActionQuery, query, args, inTx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.queryErr != nil {
		return nil, t.queryErr
	}

	var rows [][]any
	if t.responder != nil {
		rows = t.responder(query, args)
	}

	return &fakeRows{rows: rows, index: -1}, nil
}

func (t *RecordingTarget) exec(ctx context.Context, query string, args []any, inTx bool) (routingpool.Result, error) {
	t.record(ctx, ActionExec, query, args, inTx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.execErr != nil {
		return nil, t.execErr
	}

	return fakeResult(t.rowsAffected), nil
}

func (t *RecordingTarget) record(ctx context.Context, action, query string, args []any, inTx bool) {
	argsCopy := make([]any, len(args))
	copy(argsCopy, args)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.statements = append(t.statements, RecordedStatement{
		Target: t.name,
		Action: action,
		Route:  routing.CurrentRoute(ctx),
		Query:  query,
		Args:   argsCopy,
		InTx:   inTx,
	})
}

// Statements returns a copy of all recorded statements.
func (t *RecordingTarget) Statements() []RecordedStatement {
	t.mu.Lock()
	defer t.mu.Unlock()

	statements := make([]RecordedStatement, len(t.statements))
	copy(statements, t.statements)

	return statements
}

// StatementCount returns the number of recorded statements.
func (t *RecordingTarget) StatementCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.statements)
}

// LastStatement returns the most recently recorded statement.
func (t *RecordingTarget) LastStatement() (RecordedStatement, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.statements) == 0 {
		return RecordedStatement{}, false
	}

	return t.statements[len(t.statements)-1], true
}

// HasStatementContaining reports whether any recorded statement's SQL contains fragment.
func (t *RecordingTarget) HasStatementContaining(fragment string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, statement := range t.statements {
		if strings.Contains(statement.Query, fragment) {
			return true
		}
	}

	return false
}

// Commits returns the number of committed transactions.
func (t *RecordingTarget) Commits() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.commits
}

// Rollbacks returns the number of rolled back transactions.
func (t *RecordingTarget) Rollbacks() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rollbacks
}

// Closed reports whether Close was called.
func (t *RecordingTarget) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

type recordingTx struct {
	target *RecordingTarget
}

func (tx *recordingTx) Query(ctx context.Context, query string, args ...any) (routingpool.Rows, error) {
	return tx.target.query(ctx, query, args, true)
}

func (tx *recordingTx) Exec(ctx context.Context, query string, args ...any) (routingpool.Result, error) {
	return tx.target.exec(ctx, query, args, true)
}

func (tx *recordingTx) Commit(_ context.Context) error {
	tx.target.mu.Lock()
	defer tx.target.mu.Unlock()

	if tx.target.commitErr != nil {
		return tx.target.commitErr
	}

	tx.target.commits++

	return nil
}

func (tx *recordingTx) Rollback(_ context.Context) error {
	tx.target.mu.Lock()
	defer tx.target.mu.Unlock()

	if tx.target.rollbackErr != nil {
		return tx.target.rollbackErr
	}

	tx.target.rollbacks++

	return nil
}

type fakeResult int64

func (r fakeResult) RowsAffected() (int64, error) {
	return int64(r), nil
}

type fakeRows struct {
	rows   [][]any
	index  int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.closed || r.index+1 >= len(r.rows) {
		return false
	}

	r.index++

	return true
}

// Scan assigns the current row's values to dest, calling sql.Scanner where implemented.
func (r *fakeRows) Scan(dest ...any) error {
	if r.index < 0 || r.index >= len(r.rows) {
		return fmt.Errorf("scan called without a current row")
	}

	row := r.rows[r.index]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}

	for i, value := range row {
		if scanner, ok := dest[i].(sql.Scanner); ok {
			if err := scanner.Scan(value); err != nil {
				return err
			}

			continue
		}

		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("destination %d is not a non-nil pointer", i)
		}

		element := target.Elem()

		if value == nil {
			element.Set(reflect.Zero(element.Type()))
			continue
		}

		source := reflect.ValueOf(value)

		switch {
		case source.Type().AssignableTo(element.Type()):
			element.Set(source)
		case source.Type().ConvertibleTo(element.Type()):
			element.Set(source.Convert(element.Type()))
		case element.Kind() == reflect.Pointer && source.Type().AssignableTo(element.Type().Elem()):
			ptr := reflect.New(element.Type().Elem())
			ptr.Elem().Set(source)
			element.Set(ptr)
		default:
			return fmt.Errorf("cannot scan %T into destination %d of type %s", value, i, element.Type())
		}
	}

	return nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

// Ensure RecordingTarget implements routingpool.Target.
var _ routingpool.Target = (*RecordingTarget)(nil)
