package connector

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/relsql/schema"
)

// Config represents database connection configuration. Driver names a
// registered provider (sqlite, postgres, mysql or tidb). Path is the SQLite
// database file; empty or ":memory:" opens an in-memory database.
type Config struct {
	Driver         string            `json:"driver" yaml:"driver"`
	Host           string            `json:"host" yaml:"host"`
	Port           int               `json:"port" yaml:"port"`
	Database       string            `json:"database" yaml:"database"`
	Username       string            `json:"username" yaml:"username"`
	Password       string            `json:"password" yaml:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode"`
	Path           string            `json:"path" yaml:"path"`
	Params         map[string]string `json:"params" yaml:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration     `json:"query_timeout" yaml:"query_timeout"`
	Retry          *RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty"`

	Casing             schema.Casing `json:"casing" yaml:"casing"`
	MigrationsTable    string        `json:"migrations_table" yaml:"migrations_table"`
	SlowQueryThreshold time.Duration `json:"slow_query_threshold" yaml:"slow_query_threshold"`
	StatementCacheSize int           `json:"statement_cache_size" yaml:"statement_cache_size"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen         int           `json:"max_open" yaml:"max_open"`
	MaxIdle         int           `json:"max_idle" yaml:"max_idle"`
	MaxLifetime     time.Duration `json:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime     time.Duration `json:"max_idle_time" yaml:"max_idle_time"`
	HealthCheckFreq time.Duration `json:"health_check_freq" yaml:"health_check_freq"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay"`
	Backoff    float64       `json:"backoff" yaml:"backoff"`
}

// ClusterConfig defines primary-replica database cluster configuration.
type ClusterConfig struct {
	Primary       Config        `json:"primary" yaml:"primary"`
	Replicas      []Config      `json:"replicas" yaml:"replicas"`
	ReadStrategy  string        `json:"read_strategy" yaml:"read_strategy"`
	WriteStrategy string        `json:"write_strategy" yaml:"write_strategy"`
	FailoverDelay time.Duration `json:"failover_delay" yaml:"failover_delay"`
}

const (
	DefaultDriver             = "sqlite"
	DefaultMigrationsTable    = "__relsql_migrations"
	DefaultSlowQueryThreshold = 100 * time.Millisecond
	DefaultStatementCacheSize = 256
)

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("connector: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration, applies defaults and validates
// the result.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("connector: parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.MigrationsTable == "" {
		c.MigrationsTable = DefaultMigrationsTable
	}
	if c.SlowQueryThreshold == 0 {
		c.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	if c.StatementCacheSize == 0 {
		c.StatementCacheSize = DefaultStatementCacheSize
	}
	if c.Retry != nil {
		if c.Retry.BaseDelay == 0 {
			c.Retry.BaseDelay = time.Second
		}
		if c.Retry.Backoff < 1 {
			c.Retry.Backoff = 2
		}
	}
}

// Validate checks driver specific requirements and enumerated values.
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite":
	case "postgres", "mysql", "tidb":
		if c.Host == "" {
			return fmt.Errorf("connector: %s: host is required", c.Driver)
		}
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("connector: invalid port: %d", c.Port)
		}
	default:
		return fmt.Errorf("connector: unknown driver %q", c.Driver)
	}
	if !c.Casing.Valid() {
		return fmt.Errorf("connector: invalid casing %q", c.Casing)
	}
	if c.StatementCacheSize < 0 {
		return fmt.Errorf("connector: statement_cache_size must not be negative")
	}
	return nil
}

// ValidateCluster validates cluster configuration.
func (cc *ClusterConfig) ValidateCluster() error {
	if cc.Primary.Host == "" && cc.Primary.Driver != "sqlite" {
		return fmt.Errorf("primary host is required")
	}

	validStrategies := map[string]bool{
		"round_robin": true,
		"random":      true,
		"primary":     true,
	}

	if cc.ReadStrategy != "" && !validStrategies[cc.ReadStrategy] {
		return fmt.Errorf("invalid read strategy: %s", cc.ReadStrategy)
	}

	if cc.WriteStrategy != "" && cc.WriteStrategy != "primary" {
		return fmt.Errorf("invalid write strategy: %s (only 'primary' supported)", cc.WriteStrategy)
	}

	return nil
}
