package schema

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TableNamer lets a model choose its table name.
type TableNamer interface {
	TableName() string
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	bigIntType  = reflect.TypeOf(big.Int{})
)

// DefineOption configures Define.
type DefineOption func(*defineConfig)

type defineConfig struct {
	naming    NamingStrategy
	tableName string
}

// WithNaming sets the naming strategy for derived table and column names.
func WithNaming(n NamingStrategy) DefineOption {
	return func(c *defineConfig) { c.naming = n }
}

// WithTableName overrides the derived table name.
func WithTableName(name string) DefineOption {
	return func(c *defineConfig) { c.tableName = name }
}

// Define builds a table descriptor from a struct and its `db` tags. Column
// keys are the camelCased field names; embedded structs are flattened.
func Define(model any, opts ...DefineOption) (*Table, error) {
	cfg := defineConfig{naming: DefaultNamingStrategy()}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: define: expected struct, got %T", model)
	}

	name := cfg.tableName
	if name == "" {
		if namer, ok := model.(TableNamer); ok {
			name = namer.TableName()
		} else {
			name = cfg.naming.TableName(t.Name())
		}
	}

	parser := NewTagParser(cfg.naming)
	columns, err := defineColumns(parser, t)
	if err != nil {
		return nil, fmt.Errorf("schema: define %s: %w", t.Name(), err)
	}
	return NewTable(name, columns...), nil
}

func defineColumns(parser *TagParser, t reflect.Type) ([]*Column, error) {
	var columns []*Column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("db") == "" {
			embedded, err := defineColumns(parser, f.Type)
			if err != nil {
				return nil, err
			}
			columns = append(columns, embedded...)
			continue
		}
		if !f.IsExported() {
			continue
		}

		tag, err := parser.ParseTag(f.Name, f.Tag)
		if err != nil {
			return nil, err
		}
		if tag.Skip {
			continue
		}

		col, err := columnFromField(f, tag)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func columnFromField(f reflect.StructField, tag *ParsedTag) (*Column, error) {
	typ := tag.Type
	if typ == "" {
		typ = columnTypeOf(f.Type)
	}

	var col *Column
	if typ == TypeBigInt {
		col = BigInt(ToCamelCase(f.Name))
	} else {
		col = NewColumn(ToCamelCase(f.Name), typ)
	}
	col.Named(tag.ColumnName)

	if tag.Primary {
		col.PrimaryKey()
	}
	if tag.NotNull {
		col.NotNull()
	}
	if tag.Unique {
		col.Unique()
	}
	if tag.Generated {
		col.GeneratedAlways()
	}
	if tag.HasDefault {
		col.Default(parseDefault(typ, tag.Default))
	}
	if tag.Generator != "" {
		gen, _ := LookupGenerator(tag.Generator)
		col.DefaultFn(GeneratorFunc(gen))
	}
	if tag.AutoNowAdd || tag.AutoNow {
		col.DefaultFn(now)
	}
	if tag.AutoNow {
		col.OnUpdate(now)
	}
	return col, nil
}

func now() any { return time.Now().UTC() }

func parseDefault(typ ColumnType, raw string) any {
	switch typ {
	case TypeInteger, TypeBigInt:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case TypeReal:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case TypeBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

// columnTypeOf maps a Go field type onto a column type.
func columnTypeOf(t reflect.Type) ColumnType {
	for t.Kind() == reflect.Ptr {
		if t.Elem() == bigIntType {
			return TypeBigInt
		}
		t = t.Elem()
	}
	switch t {
	case timeType:
		return TypeTimestamp
	case bytesType:
		return TypeBlob
	case uuidType:
		return TypeUUID
	case decimalType:
		return TypeNumeric
	case bigIntType:
		return TypeBigInt
	}
	switch t.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return TypeInteger
	case reflect.Uint64:
		return TypeBigInt
	case reflect.Float32, reflect.Float64:
		return TypeReal
	case reflect.String:
		return TypeText
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return TypeJSON
	}
	return TypeText
}
