package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxDatabase implements Database for pgxpool.Pool.
type PgxDatabase struct {
	pool *pgxpool.Pool
}

// NewPgxDatabase creates a new PgxDatabase.
func NewPgxDatabase(pool *pgxpool.Pool) *PgxDatabase {
	return &PgxDatabase{pool: pool}
}

// Pool returns the underlying pool.
func (p *PgxDatabase) Pool() *pgxpool.Pool { return p.pool }

// ExecContext executes a query without returning rows.
func (p *PgxDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return PgxResult{tag: tag}, nil
}

// QueryContext executes a query that returns rows.
func (p *PgxDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

// PrepareContext returns a statement bound to the pool. pgx prepares and
// caches statements per connection on first use, so nothing is sent here.
func (p *PgxDatabase) PrepareContext(_ context.Context, query string) (Stmt, error) {
	return &pgxStmt{db: p, query: query}, nil
}

// Conn acquires a connection from the pool.
func (p *PgxDatabase) Conn(ctx context.Context) (Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

// PingContext verifies the connection to the database is alive.
func (p *PgxDatabase) PingContext(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *PgxDatabase) Close() error {
	p.pool.Close()
	return nil
}

// SetMaxOpenConns is a no-op for pgxpool; size the pool through its config.
func (p *PgxDatabase) SetMaxOpenConns(int) {}

// SetMaxIdleConns is a no-op for pgxpool.
func (p *PgxDatabase) SetMaxIdleConns(int) {}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := c.conn.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return PgxResult{tag: tag}, nil
}

func (c *pgxConn) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

func (c *pgxConn) Close() error {
	c.conn.Release()
	return nil
}

type pgxStmt struct {
	db    *PgxDatabase
	query string
}

func (s *pgxStmt) ExecContext(ctx context.Context, args ...any) (Result, error) {
	return s.db.ExecContext(ctx, s.query, args...)
}

func (s *pgxStmt) QueryContext(ctx context.Context, args ...any) (Rows, error) {
	return s.db.QueryContext(ctx, s.query, args...)
}

func (s *pgxStmt) Close() error { return nil }

// PgxRows implements Rows for pgx.Rows.
type PgxRows struct {
	rows pgx.Rows
}

// Next prepares the next result row for reading.
func (p *PgxRows) Next() bool { return p.rows.Next() }

// Scan copies the columns from the current row into the provided destinations.
func (p *PgxRows) Scan(dest ...any) error { return p.rows.Scan(dest...) }

// Close closes the rows iterator.
func (p *PgxRows) Close() error { p.rows.Close(); return nil }

// Err returns the error, if any, that was encountered during iteration.
func (p *PgxRows) Err() error { return p.rows.Err() }

// Columns returns the column names.
func (p *PgxRows) Columns() ([]string, error) {
	fds := p.rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}
	return columns, nil
}

// PgxResult implements Result for pgx command tags.
type PgxResult struct {
	tag pgconn.CommandTag
}

// ErrNoLastInsertID is returned by PgxResult.LastInsertId; use returning.
var ErrNoLastInsertID = errors.New("database: LastInsertId not supported by PostgreSQL, use returning")

// LastInsertId is not supported in PostgreSQL.
func (r PgxResult) LastInsertId() (int64, error) {
	return 0, ErrNoLastInsertID
}

// RowsAffected returns the number of rows affected by the command.
func (r PgxResult) RowsAffected() (int64, error) {
	return r.tag.RowsAffected(), nil
}

var _ Database = (*PgxDatabase)(nil)
