package dialect

import (
	"encoding/hex"
	"strconv"
	"strings"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

var postgresLiterals = literalStyle{
	trueLit:    "true",
	falseLit:   "false",
	timeLayout: "2006-01-02 15:04:05.000000",
	bytes: func(b []byte) string {
		return `'\x` + hex.EncodeToString(b) + `'::bytea`
	},
}

func (Postgres) RenderValue(v any) string {
	return renderLiteral(postgresLiterals, v)
}

func (Postgres) JSON() JSONFunctions {
	return JSONFunctions{
		Object:     "json_build_object",
		Array:      "json_build_array",
		GroupArray: "json_agg",
		Coalesce:   "coalesce",
		Selector:   "jsonb",
		EmptyArray: "'[]'::json",
	}
}

func (Postgres) TextType() string { return "text" }
