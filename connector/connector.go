package connector

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/relsql/database"
	"github.com/Konsultn-Engineering/relsql/dialect"
)

// Connection is an open pool together with the dialect it speaks.
type Connection interface {
	Database() database.Database
	Dialect() dialect.Dialect
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

type Connector interface {
	Connect(ctx context.Context) (Connection, error)
	ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error)
	Close() error
}

// SQLConnection is a Connection over a database/sql pool.
type SQLConnection struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// NewSQLConnection wraps db, applying the pool settings of cfg.
func NewSQLConnection(db *sql.DB, d dialect.Dialect, cfg PoolConfig) *SQLConnection {
	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}
	if cfg.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}
	return &SQLConnection{db: db, dialect: d}
}

func (c *SQLConnection) DB() *sql.DB { return c.db }

func (c *SQLConnection) Database() database.Database { return database.NewSqlDatabase(c.db) }

func (c *SQLConnection) Dialect() dialect.Dialect { return c.dialect }

func (c *SQLConnection) Health(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *SQLConnection) Stats() ConnectionStats { return StatsFromDB(c.db.Stats()) }

func (c *SQLConnection) Close() error { return c.db.Close() }
