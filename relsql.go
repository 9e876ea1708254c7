// Package relsql opens a database from configuration and exposes the
// engine that compiles and executes query plans against it.
package relsql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Konsultn-Engineering/relsql/connector"
	"github.com/Konsultn-Engineering/relsql/engine"
	"github.com/Konsultn-Engineering/relsql/schema"

	_ "github.com/Konsultn-Engineering/relsql/providers/mysql"
	_ "github.com/Konsultn-Engineering/relsql/providers/postgres"
	_ "github.com/Konsultn-Engineering/relsql/providers/sqlite"
)

// DB is an engine bound to the connection it was opened with. A DB opened
// from a cluster embeds the primary's engine and routes Read sessions to
// the replicas.
type DB struct {
	*engine.Engine
	conn    connector.Connection
	config  connector.Config
	cluster *connector.Cluster
	readers map[connector.Connection]*engine.Engine
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	registry *schema.Registry
	engine   []engine.Option
}

// WithLogger sets the query logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSchema registers the tables and relations relational queries use.
func WithSchema(r *schema.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithEngineOptions passes options through to engine.New.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) { o.engine = append(o.engine, opts...) }
}

// Open connects according to cfg and builds an engine using the
// connection's dialect and the configured casing, slow query threshold and
// statement cache size.
func Open(ctx context.Context, cfg connector.Config, opts ...Option) (*DB, error) {
	o := collect(opts)

	cfg.ApplyDefaults()
	conn, err := connector.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("relsql: open %s: %w", cfg.Driver, err)
	}

	e, err := newEngine(conn, cfg, o)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{Engine: e, conn: conn, config: cfg}, nil
}

// OpenCluster connects the primary and every replica of cfg. Writes and
// Session go to the primary; Read picks a replica by the cluster's read
// strategy.
func OpenCluster(ctx context.Context, cfg connector.ClusterConfig, opts ...Option) (*DB, error) {
	o := collect(opts)

	cfg.Primary.ApplyDefaults()
	cfg.Replicas = append([]connector.Config(nil), cfg.Replicas...)
	for i := range cfg.Replicas {
		cfg.Replicas[i].ApplyDefaults()
	}
	cluster, err := connector.OpenCluster(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("relsql: open cluster: %w", err)
	}

	primary, err := newEngine(cluster.Primary(), cfg.Primary, o)
	if err != nil {
		_ = cluster.Close()
		return nil, err
	}
	db := &DB{
		Engine:  primary,
		conn:    cluster.Primary(),
		config:  cfg.Primary,
		cluster: cluster,
		readers: make(map[connector.Connection]*engine.Engine, len(cfg.Replicas)),
	}
	for i, replica := range cluster.Replicas() {
		e, err := newEngine(replica, cfg.Replicas[i], o)
		if err != nil {
			_ = db.Close()
			_ = cluster.Close()
			return nil, fmt.Errorf("relsql: replica %d: %w", i, err)
		}
		db.readers[replica] = e
	}
	return db, nil
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newEngine(conn connector.Connection, cfg connector.Config, o options) (*engine.Engine, error) {
	engineOpts := []engine.Option{
		engine.WithDialect(conn.Dialect()),
		engine.WithCasing(cfg.Casing),
		engine.WithSlowThreshold(cfg.SlowQueryThreshold),
		engine.WithStatementCache(cfg.StatementCacheSize),
	}
	if o.logger != nil {
		engineOpts = append(engineOpts, engine.WithLogger(o.logger))
	}
	if o.registry != nil {
		engineOpts = append(engineOpts, engine.WithRegistry(o.registry))
	}
	engineOpts = append(engineOpts, o.engine...)
	return engine.New(conn.Database(), engineOpts...)
}

// OpenFile loads a YAML configuration file and opens it.
func OpenFile(ctx context.Context, path string, opts ...Option) (*DB, error) {
	cfg, err := connector.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg, opts...)
}

// Read returns a session for read-only work. On a cluster it runs against
// the replica the read strategy picks, otherwise against the primary.
func (db *DB) Read() *engine.Session {
	if db.cluster == nil {
		return db.Session()
	}
	if e, ok := db.readers[db.cluster.Read()]; ok {
		return e.Session()
	}
	return db.Session()
}

// Cluster returns the cluster the database was opened from, nil for a
// single connection.
func (db *DB) Cluster() *connector.Cluster { return db.cluster }

// Connection returns the underlying connection.
func (db *DB) Connection() connector.Connection { return db.conn }

// Config returns the configuration the database was opened with.
func (db *DB) Config() connector.Config { return db.config }

// Migrate applies the migrations under dir, read from the OS filesystem,
// recording them in the configured migrations table.
func (db *DB) Migrate(ctx context.Context, dir string) error {
	return db.Session().MigrateDir(ctx, osFs, dir, engine.WithMigrationsTable(db.config.MigrationsTable))
}

// Close releases cached statements and closes every connection.
func (db *DB) Close() error {
	var firstErr error
	for _, e := range db.readers {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := db.Engine.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
