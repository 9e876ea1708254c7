package dialect

import (
	"encoding/hex"
	"strings"
)

// SQLite is the default dialect: double-quoted identifiers, ? placeholders
// and the json1 functions.
type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Placeholder(int) string {
	return "?"
}

var sqliteLiterals = literalStyle{
	trueLit:    "1",
	falseLit:   "0",
	timeLayout: "2006-01-02 15:04:05.000",
	bytes: func(b []byte) string {
		return "X'" + hex.EncodeToString(b) + "'"
	},
}

func (SQLite) RenderValue(v any) string {
	return renderLiteral(sqliteLiterals, v)
}

func (SQLite) JSON() JSONFunctions {
	return JSONFunctions{
		Object:     "json_object",
		Array:      "json_array",
		GroupArray: "json_group_array",
		Coalesce:   "coalesce",
		Selector:   "json",
		EmptyArray: "json_array()",
	}
}

func (SQLite) TextType() string { return "text" }
