package schema

import "fmt"

// DefaultSchemaName is used in identity keys for tables declared without a
// schema.
const DefaultSchemaName = "public"

// Table is the identity descriptor of a table or of an alias of one.
type Table struct {
	name         string
	originalName string
	schemaName   string
	isAlias      bool
	columns      []*Column
	index        map[string]*Column
}

// NewTable binds columns to a new table in declaration order. Column keys
// must be unique.
func NewTable(name string, columns ...*Column) *Table {
	t := &Table{
		name:         name,
		originalName: name,
		columns:      make([]*Column, 0, len(columns)),
		index:        make(map[string]*Column, len(columns)),
	}
	for _, c := range columns {
		if _, dup := t.index[c.Key]; dup {
			panic(fmt.Sprintf("schema: duplicate column %q in table %q", c.Key, name))
		}
		c.table = t
		t.columns = append(t.columns, c)
		t.index[c.Key] = c
	}
	return t
}

// InSchema returns a copy of the table qualified by a database schema.
func (t *Table) InSchema(schemaName string) *Table {
	cp := t.copy()
	cp.schemaName = schemaName
	return cp
}

// As returns an alias of the table. The alias has its own column
// descriptors, which render qualified by the alias name.
func (t *Table) As(alias string) *Table {
	cp := t.copy()
	cp.name = alias
	cp.isAlias = true
	return cp
}

func (t *Table) copy() *Table {
	cp := &Table{
		name:         t.name,
		originalName: t.originalName,
		schemaName:   t.schemaName,
		isAlias:      t.isAlias,
		columns:      make([]*Column, len(t.columns)),
		index:        make(map[string]*Column, len(t.columns)),
	}
	for i, c := range t.columns {
		cc := c.clone(cp)
		cp.columns[i] = cc
		cp.index[cc.Key] = cc
	}
	return cp
}

// Name is the name the table is referenced by in SQL (the alias if aliased).
func (t *Table) Name() string { return t.name }

// OriginalName is the declared table name.
func (t *Table) OriginalName() string { return t.originalName }

func (t *Table) Schema() string { return t.schemaName }

func (t *Table) IsAlias() bool { return t.isAlias }

// UniqueName identifies the underlying table regardless of aliasing.
func (t *Table) UniqueName() string {
	s := t.schemaName
	if s == "" {
		s = DefaultSchemaName
	}
	return s + "." + t.originalName
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks a column up by key.
func (t *Table) Column(key string) (*Column, bool) {
	c, ok := t.index[key]
	return c, ok
}

// C returns the column with the given key and panics when it does not exist.
// It is meant for table declarations and tests.
func (t *Table) C(key string) *Column {
	c, ok := t.index[key]
	if !ok {
		panic(fmt.Sprintf("schema: table %q has no column %q", t.name, key))
	}
	return c
}

// SameTable reports whether a and b describe the same underlying table.
func SameTable(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UniqueName() == b.UniqueName()
}
