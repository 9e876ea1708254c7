package dialect

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Dialect is the per-engine configuration consumed by the renderer and the
// compilers.
type Dialect interface {
	Name() string
	// QuoteIdentifier escapes a table, column or alias name.
	QuoteIdentifier(name string) string
	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder(n int) string
	// RenderValue renders v as an inline SQL literal.
	RenderValue(v any) string
	// JSON returns the JSON function symbols used by relational queries.
	JSON() JSONFunctions
	// TextType is the target type of cast(... as <type>) for oversized integers.
	TextType() string
}

// JSONFunctions names the JSON builders a dialect offers.
type JSONFunctions struct {
	Object     string // json_object
	Array      string // json_array
	GroupArray string // json_group_array
	Coalesce   string // coalesce
	Selector   string // json / jsonb
	// EmptyArray is the SQL expression for an empty JSON array.
	EmptyArray string
}

// ByName returns the dialect registered under name.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql", "pgx":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	case "tidb":
		return NewTiDBDialect(), nil
	}
	return nil, fmt.Errorf("dialect: unknown dialect %q", name)
}

// QuoteString renders s as a single-quoted literal with embedded quotes doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type literalStyle struct {
	trueLit, falseLit string
	bytes             func([]byte) string
	timeLayout        string
}

func renderLiteral(style literalStyle, v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return QuoteString(val)
	case bool:
		if val {
			return style.trueLit
		}
		return style.falseLit
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *big.Int:
		return val.String()
	case time.Time:
		return QuoteString(val.Format(style.timeLayout))
	case []byte:
		return style.bytes(val)
	case fmt.Stringer:
		return QuoteString(val.String())
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return QuoteString(fmt.Sprint(val))
		}
		return QuoteString(string(b))
	default:
		return QuoteString(fmt.Sprint(val))
	}
}
