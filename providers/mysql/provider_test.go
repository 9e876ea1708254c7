package mysql

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/connector"
)

func TestBuildDSN(t *testing.T) {
	p := &Provider{}
	dsn := p.BuildDSN(connector.Config{
		Host:           "db",
		Username:       "app",
		Password:       "secret",
		Database:       "main",
		ConnectTimeout: 5 * time.Second,
		QueryTimeout:   30 * time.Second,
		Params:         map[string]string{"sql_mode": "ANSI_QUOTES"},
	})

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "main", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "ANSI_QUOTES", cfg.Params["sql_mode"])
}

func TestRegistered(t *testing.T) {
	providers := connector.Providers()
	assert.Contains(t, providers, "mysql")
	assert.Contains(t, providers, "tidb")
}
