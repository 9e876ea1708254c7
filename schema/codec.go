package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Codec converts between application values and driver values. FromDriver
// is the result decoder, ToDriver the parameter encoder. Relational results
// reach FromDriver as decoded JSON (float64, json.Number, string, bool,
// []any, map[string]any) so codecs accept those shapes too.
type Codec interface {
	FromDriver(v any) (any, error)
	ToDriver(v any) (any, error)
}

// Typed is implemented by codecs that want a driver typing hint attached to
// their bound parameters.
type Typed interface {
	Typing() string
}

// TypingOf returns the typing hint of c, "none" when it has none.
func TypingOf(c any) string {
	if t, ok := c.(Typed); ok {
		return t.Typing()
	}
	return "none"
}

// CodecFor returns the default codec for a column type.
func CodecFor(typ ColumnType) Codec {
	switch typ {
	case TypeInteger:
		return IntegerCodec{}
	case TypeReal:
		return RealCodec{}
	case TypeText:
		return TextCodec{}
	case TypeBlob:
		return BlobCodec{}
	case TypeBoolean:
		return BooleanCodec{}
	case TypeTimestamp:
		return TimestampCodec{}
	case TypeJSON:
		return JSONCodec{}
	case TypeBigInt:
		return BigIntCodec{}
	case TypeNumeric:
		return DecimalCodec{}
	case TypeUUID:
		return UUIDCodec{}
	default:
		return PassthroughCodec{}
	}
}

// PassthroughCodec returns values unchanged.
type PassthroughCodec struct{}

func (PassthroughCodec) FromDriver(v any) (any, error) { return v, nil }
func (PassthroughCodec) ToDriver(v any) (any, error)   { return v, nil }

// =========================================================================
// Numbers
// =========================================================================

type IntegerCodec struct{}

func (IntegerCodec) FromDriver(v any) (any, error) { return toInt64(v) }
func (IntegerCodec) ToDriver(v any) (any, error)   { return v, nil }

type RealCodec struct{}

func (RealCodec) FromDriver(v any) (any, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case []byte:
		return strconv.ParseFloat(string(val), 64)
	case string:
		return strconv.ParseFloat(val, 64)
	}
	i, err := toInt64(v)
	if err != nil {
		return nil, fmt.Errorf("schema: cannot decode %T as real", v)
	}
	return float64(i.(int64)), nil
}

func (RealCodec) ToDriver(v any) (any, error) { return v, nil }

// BigIntCodec decodes into *big.Int. Values arrive as text because BigInt
// columns are selected with cast(... as text).
type BigIntCodec struct{}

func (BigIntCodec) FromDriver(v any) (any, error) {
	var s string
	switch val := v.(type) {
	case *big.Int:
		return val, nil
	case int64:
		return big.NewInt(val), nil
	case string:
		s = val
	case []byte:
		s = string(val)
	case json.Number:
		s = val.String()
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("schema: %v is not an integer", val)
		}
		s = strconv.FormatFloat(val, 'f', 0, 64)
	default:
		return nil, fmt.Errorf("schema: cannot decode %T as bigint", v)
	}
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("schema: invalid bigint %q", s)
	}
	return n, nil
}

func (BigIntCodec) ToDriver(v any) (any, error) {
	if n, ok := v.(*big.Int); ok {
		if n.IsInt64() {
			return n.Int64(), nil
		}
		return n.String(), nil
	}
	return v, nil
}

// DecimalCodec decodes numeric columns into decimal.Decimal.
type DecimalCodec struct{}

func (DecimalCodec) FromDriver(v any) (any, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case string:
		return decimal.NewFromString(val)
	case []byte:
		return decimal.NewFromString(string(val))
	case json.Number:
		return decimal.NewFromString(val.String())
	case float64:
		return decimal.NewFromFloat(val), nil
	case int64:
		return decimal.NewFromInt(val), nil
	}
	return nil, fmt.Errorf("schema: cannot decode %T as decimal", v)
}

func (DecimalCodec) ToDriver(v any) (any, error) {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String(), nil
	}
	return v, nil
}

func (DecimalCodec) Typing() string { return "decimal" }

// =========================================================================
// Text, blobs, booleans
// =========================================================================

type TextCodec struct{}

func (TextCodec) FromDriver(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case json.Number:
		return val.String(), nil
	}
	return fmt.Sprint(v), nil
}

func (TextCodec) ToDriver(v any) (any, error) { return v, nil }

type BlobCodec struct{}

func (BlobCodec) FromDriver(v any) (any, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	}
	return nil, fmt.Errorf("schema: cannot decode %T as blob", v)
}

func (BlobCodec) ToDriver(v any) (any, error) { return v, nil }

// BooleanCodec accepts native booleans and the 0/1 integers SQLite stores.
type BooleanCodec struct{}

func (BooleanCodec) FromDriver(v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return strconv.ParseBool(val)
	case []byte:
		return strconv.ParseBool(string(val))
	}
	i, err := toInt64(v)
	if err != nil {
		return nil, fmt.Errorf("schema: cannot decode %T as boolean", v)
	}
	return i.(int64) != 0, nil
}

// ToDriver binds booleans as bool. pgx needs a bool for a boolean
// parameter; the SQLite and MySQL drivers store it as 0/1.
func (BooleanCodec) ToDriver(v any) (any, error) { return v, nil }

// =========================================================================
// Structured values
// =========================================================================

// TimestampCodec stores times as unix seconds, or milliseconds when Millis
// is set.
type TimestampCodec struct {
	Millis bool
}

func (c TimestampCodec) FromDriver(v any) (any, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		return parseTime(val)
	case []byte:
		return parseTime(string(val))
	}
	i, err := toInt64(v)
	if err != nil {
		return nil, fmt.Errorf("schema: cannot decode %T as timestamp", v)
	}
	if c.Millis {
		return time.UnixMilli(i.(int64)).UTC(), nil
	}
	return time.Unix(i.(int64), 0).UTC(), nil
}

func (c TimestampCodec) ToDriver(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return v, nil
	}
	if c.Millis {
		return t.UnixMilli(), nil
	}
	return t.Unix(), nil
}

func (TimestampCodec) Typing() string { return "timestamp" }

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("schema: invalid timestamp %q", s)
}

// JSONCodec stores values as JSON text.
type JSONCodec struct{}

func (JSONCodec) FromDriver(v any) (any, error) {
	var raw []byte
	switch val := v.(type) {
	case string:
		raw = []byte(val)
	case []byte:
		raw = val
	default:
		// already decoded by the relational loader
		return v, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("schema: decode json: %w", err)
	}
	return out, nil
}

func (JSONCodec) ToDriver(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("schema: encode json: %w", err)
	}
	return string(b), nil
}

func (JSONCodec) Typing() string { return "json" }

// UUIDCodec stores UUIDs as their canonical text form.
type UUIDCodec struct{}

func (UUIDCodec) FromDriver(v any) (any, error) {
	switch val := v.(type) {
	case uuid.UUID:
		return val, nil
	case string:
		return uuid.Parse(val)
	case []byte:
		if len(val) == 16 {
			return uuid.FromBytes(val)
		}
		return uuid.ParseBytes(val)
	case [16]byte:
		return uuid.UUID(val), nil
	}
	return nil, fmt.Errorf("schema: cannot decode %T as uuid", v)
}

func (UUIDCodec) ToDriver(v any) (any, error) {
	if id, ok := v.(uuid.UUID); ok {
		return id.String(), nil
	}
	return v, nil
}

func (UUIDCodec) Typing() string { return "uuid" }

func toInt64(v any) (any, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("schema: %d overflows int64", val)
		}
		return int64(val), nil
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("schema: %v is not an integer", val)
		}
		return int64(val), nil
	case json.Number:
		return val.Int64()
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case []byte:
		return strconv.ParseInt(string(val), 10, 64)
	case string:
		return strconv.ParseInt(val, 10, 64)
	}
	return nil, fmt.Errorf("schema: cannot decode %T as integer", v)
}
