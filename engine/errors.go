package engine

import (
	"errors"
	"fmt"
)

// QueryError wraps a driver failure with the statement that caused it.
type QueryError struct {
	SQL    string
	Params []any
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed query: %s\nparams: %v: %v", e.SQL, e.Params, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// TransactionRollbackError unwinds a transaction body. Transaction rolls
// back and returns it without treating it as a failure.
type TransactionRollbackError struct{}

func (*TransactionRollbackError) Error() string {
	return "rollback"
}

// ErrRollback is returned by (*Tx).Rollback.
var ErrRollback error = &TransactionRollbackError{}

// IsRollback reports whether err is, or wraps, the rollback signal.
func IsRollback(err error) bool {
	var rb *TransactionRollbackError
	return errors.As(err, &rb)
}

var (
	ErrMissingValue    = errors.New("engine: no value for placeholder")
	ErrUnsupportedMode = errors.New("engine: unsupported execution mode")
)

func wrapQuery(sql string, params []any, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{SQL: sql, Params: params, Err: err}
}
