// Package sqlite registers the "sqlite" provider, backed by the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/Konsultn-Engineering/relsql/connector"
	"github.com/Konsultn-Engineering/relsql/dialect"
)

// DriverName is the database/sql driver name modernc.org/sqlite registers.
const DriverName = "sqlite"

type Provider struct{}

func init() {
	connector.Register("sqlite", &Provider{})
}

// BuildDSN renders cfg as a modernc file DSN. Params become query
// parameters, e.g. _pragma=foreign_keys(1).
func (p *Provider) BuildDSN(cfg connector.Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if len(cfg.Params) == 0 {
		return path
	}
	keys := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := url.Values{}
	for _, k := range keys {
		q.Add(k, cfg.Params[k])
	}
	return "file:" + path + "?" + q.Encode()
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	db, err := sql.Open(DriverName, p.BuildDSN(cfg))
	if err != nil {
		return nil, err
	}
	pool := cfg.Pool
	// Every connection to :memory: opens its own database.
	if cfg.Path == "" || cfg.Path == ":memory:" {
		pool.MaxOpen = 1
		pool.MaxIdle = 1
		pool.MaxLifetime = 0
		pool.MaxIdleTime = 0
	}
	return connector.NewSQLConnection(db, dialect.NewSQLiteDialect(), pool), nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewSQLiteDialect()
}

func (p *Provider) HealthCheck(ctx context.Context, conn connector.Connection) error {
	return conn.Health(ctx)
}
