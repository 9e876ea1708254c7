package database

import (
	"context"
)

// Executor runs SQL text with positional arguments.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
}

// Database is the driver surface the engine executes against.
type Database interface {
	Executor
	PrepareContext(ctx context.Context, query string) (Stmt, error)
	// Conn pins a single connection, used for transactions.
	Conn(ctx context.Context) (Conn, error)
	PingContext(ctx context.Context) error
	Close() error
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
}

// Conn is a connection reserved for one caller until Close.
type Conn interface {
	Executor
	Close() error
}

// Stmt is a prepared statement.
type Stmt interface {
	ExecContext(ctx context.Context, args ...any) (Result, error)
	QueryContext(ctx context.Context, args ...any) (Rows, error)
	Close() error
}

// Rows iterates a result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Columns() ([]string, error)
	Err() error
}

// Result reports the outcome of a statement that returns no rows.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}
