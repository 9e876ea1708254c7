package dialect

import (
	"encoding/hex"
	"strings"
)

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Placeholder(int) string {
	return "?"
}

var mysqlLiterals = literalStyle{
	trueLit:    "true",
	falseLit:   "false",
	timeLayout: "2006-01-02 15:04:05.000000",
	bytes: func(b []byte) string {
		return "X'" + hex.EncodeToString(b) + "'"
	},
}

func (MySQL) RenderValue(v any) string {
	return renderLiteral(mysqlLiterals, v)
}

func (MySQL) JSON() JSONFunctions {
	return JSONFunctions{
		Object:     "json_object",
		Array:      "json_array",
		GroupArray: "json_arrayagg",
		Coalesce:   "coalesce",
		Selector:   "json_extract",
		EmptyArray: "json_array()",
	}
}

func (MySQL) TextType() string { return "char" }
