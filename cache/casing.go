package cache

import (
	"sync"

	"github.com/Konsultn-Engineering/relsql/schema"
)

// CasingCache memoizes the rendered name of every column whose database
// name is derived from its key. Entries are keyed by schema.table.column of
// the underlying table, so aliases of a table share them. Entries are
// written once per key.
type CasingCache struct {
	casing schema.Casing
	mu     sync.RWMutex
	names  map[string]string
	tables map[string]struct{}
}

// NewCasingCache creates a cache for the given convention. CasingNone makes
// ColumnCasing return column names unchanged.
func NewCasingCache(casing schema.Casing) *CasingCache {
	return &CasingCache{
		casing: casing,
		names:  make(map[string]string, 64),
		tables: make(map[string]struct{}, 8),
	}
}

// Casing returns the configured convention.
func (c *CasingCache) Casing() schema.Casing {
	if c == nil {
		return schema.CasingNone
	}
	return c.casing
}

// ColumnCasing returns the name col is rendered with.
func (c *CasingCache) ColumnCasing(col *schema.Column) string {
	if c == nil || !col.KeyAsName || c.casing == schema.CasingNone {
		return col.Name
	}
	table := col.Table()
	if table == nil {
		return c.casing.Convert(col.Name)
	}

	key := table.UniqueName() + "." + col.Name
	c.mu.RLock()
	name, ok := c.names[key]
	c.mu.RUnlock()
	if ok {
		return name
	}

	c.cacheTable(table)
	c.mu.RLock()
	name = c.names[key]
	c.mu.RUnlock()
	return name
}

func (c *CasingCache) cacheTable(t *schema.Table) {
	tableKey := t.UniqueName()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, done := c.tables[tableKey]; done {
		return
	}
	for _, col := range t.Columns() {
		c.names[tableKey+"."+col.Name] = c.casing.Convert(col.Name)
	}
	c.tables[tableKey] = struct{}{}
}

// Clear drops every memoized name.
func (c *CasingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.names)
	clear(c.tables)
}

// Len returns the number of memoized names.
func (c *CasingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}
