package schema

// ColumnType is the declared storage class of a column.
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeReal      ColumnType = "real"
	TypeText      ColumnType = "text"
	TypeBlob      ColumnType = "blob"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
	TypeJSON      ColumnType = "json"
	TypeBigInt    ColumnType = "bigint"
	TypeNumeric   ColumnType = "numeric"
	TypeUUID      ColumnType = "uuid"
)

// Column is the identity descriptor of a table column. Columns are created
// with the type helpers below, configured with the chainable setters while
// the table is being declared, and treated as read-only once NewTable has
// bound them.
type Column struct {
	// Key is the field key used in plans and result rows.
	Key string
	// Name is the database column name. When KeyAsName is set the name was
	// derived from Key and the configured casing is applied at render time.
	Name      string
	KeyAsName bool

	Type  ColumnType
	Codec Codec

	IsPrimary   bool
	IsNotNull   bool
	IsUnique    bool
	IsGenerated bool

	HasDefault   bool
	DefaultValue any
	DefaultFunc  func() any
	OnUpdateFunc func() any

	// CastToText wraps the column in cast(... as text) when selected so that
	// 64-bit values survive drivers that decode numbers as float64.
	CastToText bool

	table *Table
}

// NewColumn creates a column whose database name is its key.
func NewColumn(key string, typ ColumnType) *Column {
	return &Column{
		Key:       key,
		Name:      key,
		KeyAsName: true,
		Type:      typ,
		Codec:     CodecFor(typ),
	}
}

func Integer(key string) *Column   { return NewColumn(key, TypeInteger) }
func Real(key string) *Column      { return NewColumn(key, TypeReal) }
func Text(key string) *Column      { return NewColumn(key, TypeText) }
func Blob(key string) *Column      { return NewColumn(key, TypeBlob) }
func Boolean(key string) *Column   { return NewColumn(key, TypeBoolean) }
func Timestamp(key string) *Column { return NewColumn(key, TypeTimestamp) }
func JSON(key string) *Column      { return NewColumn(key, TypeJSON) }
func Numeric(key string) *Column   { return NewColumn(key, TypeNumeric) }
func UUID(key string) *Column      { return NewColumn(key, TypeUUID) }

// BigInt declares a 64-bit integer column that is selected as text.
func BigInt(key string) *Column {
	c := NewColumn(key, TypeBigInt)
	c.CastToText = true
	return c
}

// Named sets an explicit database name; casing no longer applies.
func (c *Column) Named(name string) *Column {
	c.Name = name
	c.KeyAsName = false
	return c
}

func (c *Column) PrimaryKey() *Column {
	c.IsPrimary = true
	c.IsNotNull = true
	return c
}

func (c *Column) NotNull() *Column {
	c.IsNotNull = true
	return c
}

func (c *Column) Unique() *Column {
	c.IsUnique = true
	return c
}

// GeneratedAlways marks the column as computed by the database; inserts skip it.
func (c *Column) GeneratedAlways() *Column {
	c.IsGenerated = true
	return c
}

// Default sets a static default. v may be a plain value or a SQL fragment.
func (c *Column) Default(v any) *Column {
	c.HasDefault = true
	c.DefaultValue = v
	return c
}

// DefaultFn sets a function evaluated per inserted row when no value is given.
func (c *Column) DefaultFn(fn func() any) *Column {
	c.DefaultFunc = fn
	return c
}

// OnUpdate sets a function evaluated for every update and for upserts.
func (c *Column) OnUpdate(fn func() any) *Column {
	c.OnUpdateFunc = fn
	return c
}

// MapWith replaces the column codec.
func (c *Column) MapWith(codec Codec) *Column {
	c.Codec = codec
	return c
}

// Table returns the table the column is bound to, or nil before binding.
func (c *Column) Table() *Table {
	return c.table
}

// TableName returns the name the owning table is referenced by in SQL: its
// alias when aliased, its name otherwise.
func (c *Column) TableName() string {
	if c.table == nil {
		return ""
	}
	return c.table.Name()
}

// FromDriver decodes a raw driver value with the column codec.
func (c *Column) FromDriver(v any) (any, error) {
	if c.Codec == nil {
		return v, nil
	}
	return c.Codec.FromDriver(v)
}

// ToDriver encodes a value with the column codec.
func (c *Column) ToDriver(v any) (any, error) {
	if c.Codec == nil {
		return v, nil
	}
	return c.Codec.ToDriver(v)
}

// Typing returns the parameter typing hint of the column codec.
func (c *Column) Typing() string {
	return TypingOf(c.Codec)
}

func (c *Column) clone(t *Table) *Column {
	cp := *c
	cp.table = t
	return &cp
}

// Derive returns an unbound copy of c under a new key. It describes a
// column re-exported by a subquery, whose values are already cast.
func (c *Column) Derive(key string) *Column {
	cp := *c
	cp.Key = key
	cp.CastToText = false
	cp.DefaultFunc = nil
	cp.OnUpdateFunc = nil
	cp.table = nil
	return &cp
}
