package cache

import (
	"sync"

	"github.com/Konsultn-Engineering/relsql/utils"
)

// QueryCache stores values under a name, keyed by the name's fingerprint.
// The engine keeps named prepared queries here so that a statement compiled
// once can be looked up again by name.
type QueryCache[V any] struct {
	mu   sync.RWMutex
	data map[uint64]V
}

func NewQueryCache[V any]() *QueryCache[V] {
	return &QueryCache[V]{data: make(map[uint64]V, 64)}
}

func (c *QueryCache[V]) Get(name string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[utils.FingerprintString(name)]
	return v, ok
}

func (c *QueryCache[V]) Set(name string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[utils.FingerprintString(name)] = v
}

func (c *QueryCache[V]) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, utils.FingerprintString(name))
}

func (c *QueryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
