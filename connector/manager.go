package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type standardConnector struct {
	provider Provider
	config   Config
}

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under name. Providers register
// themselves from init.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns a connector for the provider named by config.Driver.
func New(config Config) (Connector, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[config.Driver]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s not registered", config.Driver)
	}
	return &standardConnector{provider: provider, config: config}, nil
}

func (c *standardConnector) Connect(ctx context.Context) (Connection, error) {
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	conn, err := c.provider.Connect(ctx, c.config)
	if err != nil {
		return nil, err
	}
	if err := c.provider.HealthCheck(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connector: %s health check: %w", c.config.Driver, err)
	}
	return conn, nil
}

func (c *standardConnector) ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error) {
	return retryConnect(ctx, opts, c.Connect)
}

func (c *standardConnector) Close() error {
	return nil
}
