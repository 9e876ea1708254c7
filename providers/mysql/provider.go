// Package mysql registers the "mysql" and "tidb" providers, backed by
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/Konsultn-Engineering/relsql/connector"
	"github.com/Konsultn-Engineering/relsql/dialect"
)

type Provider struct {
	dialect dialect.Dialect
}

func init() {
	connector.Register("mysql", &Provider{dialect: dialect.NewMySQLDialect()})
	connector.Register("tidb", &Provider{dialect: dialect.NewTiDBDialect()})
}

// BuildDSN renders cfg in the driver's DSN format.
func (p *Provider) BuildDSN(cfg connector.Config) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.QueryTimeout
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	db, err := sql.Open("mysql", p.BuildDSN(cfg))
	if err != nil {
		return nil, err
	}
	return connector.NewSQLConnection(db, p.dialect, cfg.Pool), nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return p.dialect
}

func (p *Provider) HealthCheck(ctx context.Context, conn connector.Connection) error {
	return conn.Health(ctx)
}
