package database

import (
	"context"
	"database/sql"
)

// SqlDatabase implements Database for *sql.DB.
type SqlDatabase struct {
	db *sql.DB
}

// NewSqlDatabase creates a new SqlDatabase.
func NewSqlDatabase(db *sql.DB) *SqlDatabase {
	return &SqlDatabase{db: db}
}

// DB returns the underlying pool.
func (s *SqlDatabase) DB() *sql.DB { return s.db }

// ExecContext executes a query without returning rows.
func (s *SqlDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (s *SqlDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PrepareContext creates a prepared statement for later queries or executions.
func (s *SqlDatabase) PrepareContext(ctx context.Context, query string) (Stmt, error) {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{stmt: stmt}, nil
}

// Conn reserves a single connection from the pool.
func (s *SqlDatabase) Conn(ctx context.Context) (Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

// PingContext verifies the connection to the database is alive.
func (s *SqlDatabase) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SqlDatabase) Close() error { return s.db.Close() }

// SetMaxOpenConns sets the maximum number of open connections.
func (s *SqlDatabase) SetMaxOpenConns(n int) { s.db.SetMaxOpenConns(n) }

// SetMaxIdleConns sets the maximum number of idle connections.
func (s *SqlDatabase) SetMaxIdleConns(n int) { s.db.SetMaxIdleConns(n) }

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *sqlConn) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *sqlConn) Close() error { return c.conn.Close() }

type sqlStmt struct {
	stmt *sql.Stmt
}

func (s *sqlStmt) ExecContext(ctx context.Context, args ...any) (Result, error) {
	return s.stmt.ExecContext(ctx, args...)
}

func (s *sqlStmt) QueryContext(ctx context.Context, args ...any) (Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *sqlStmt) Close() error { return s.stmt.Close() }

var (
	_ Database = (*SqlDatabase)(nil)
	_ Rows     = (*sql.Rows)(nil)
)
