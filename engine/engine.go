package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Konsultn-Engineering/relsql/builder"
	"github.com/Konsultn-Engineering/relsql/cache"
	"github.com/Konsultn-Engineering/relsql/database"
	"github.com/Konsultn-Engineering/relsql/dialect"
	"github.com/Konsultn-Engineering/relsql/schema"
)

const (
	DefaultSlowThreshold      = 100 * time.Millisecond
	DefaultStatementCacheSize = 256
)

// Engine executes compiled plans against a database.
type Engine struct {
	db        database.Database
	compiler  *builder.Compiler
	registry  *schema.Registry
	logger    *slog.Logger
	slow      time.Duration
	stmts     *cache.StatementCache
	prepared  *cache.QueryCache[*PreparedQuery]
	stats     *QueryStats
	beginMode string

	dialect   dialect.Dialect
	casing    schema.Casing
	cacheSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDialect sets the SQL dialect; SQLite by default.
func WithDialect(d dialect.Dialect) Option {
	return func(e *Engine) { e.dialect = d }
}

// WithCasing sets the casing applied to columns whose name is their key.
func WithCasing(c schema.Casing) Option {
	return func(e *Engine) { e.casing = c }
}

// WithRegistry sets the tables and relations relational queries resolve against.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the query logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSlowThreshold sets the duration above which queries are logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(e *Engine) { e.slow = d }
}

// WithStatementCache sets how many prepared statements are kept; 0 disables
// statement caching.
func WithStatementCache(size int) Option {
	return func(e *Engine) { e.cacheSize = size }
}

// WithBeginMode sets the keyword appended to begin, e.g. "immediate" for SQLite.
func WithBeginMode(mode string) Option {
	return func(e *Engine) { e.beginMode = mode }
}

// New creates an engine over db.
func New(db database.Database, opts ...Option) (*Engine, error) {
	e := &Engine{
		db:        db,
		slow:      DefaultSlowThreshold,
		cacheSize: DefaultStatementCacheSize,
		prepared:  cache.NewQueryCache[*PreparedQuery](),
		stats:     &QueryStats{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dialect == nil {
		e.dialect = dialect.NewSQLiteDialect()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.registry == nil {
		e.registry = schema.NewRegistry()
	}
	if e.cacheSize > 0 {
		stmts, err := cache.NewStatementCache(e.cacheSize)
		if err != nil {
			return nil, err
		}
		e.stmts = stmts
	}
	e.compiler = builder.NewCompiler(e.dialect, cache.NewCasingCache(e.casing))
	return e, nil
}

// Session returns a session executing directly on the pool.
func (e *Engine) Session() *Session {
	return &Session{engine: e, exec: e.db}
}

func (e *Engine) Compiler() *builder.Compiler { return e.compiler }

func (e *Engine) Registry() *schema.Registry { return e.registry }

func (e *Engine) Logger() *slog.Logger { return e.logger }

func (e *Engine) DB() database.Database { return e.db }

// Stats returns a snapshot of the execution counters.
func (e *Engine) Stats() StatsSnapshot { return e.stats.Snapshot() }

// Ping verifies the database is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// Close releases cached statements and closes the database.
func (e *Engine) Close() error {
	if e.stmts != nil {
		_ = e.stmts.Close()
	}
	return e.db.Close()
}

// record logs one statement and updates the counters.
func (e *Engine) record(ctx context.Context, sql string, params []any, start time.Time, err error) {
	d := time.Since(start)
	e.stats.record(d, err, d > e.slow)

	switch {
	case err != nil:
		e.logger.ErrorContext(ctx, "query failed", "sql", sql, "params", params, "duration", d, "error", err)
	case d > e.slow:
		e.logger.WarnContext(ctx, "slow query", "sql", sql, "params", params, "duration", d)
	default:
		e.logger.DebugContext(ctx, "query", "sql", sql, "params", params, "duration", d)
	}
}

// Transaction runs fn in a transaction on a fresh session.
func (e *Engine) Transaction(ctx context.Context, fn func(tx *Tx) error, opts ...TxOption) error {
	return e.Session().Transaction(ctx, fn, opts...)
}
