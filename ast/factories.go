package ast

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/relsql/schema"
)

// RawSQL returns text as literal SQL. The text is not escaped: never pass
// untrusted input.
func RawSQL(text string) Fragment {
	return Fragment{nodes: []Node{Raw{Text: text}}}
}

// Ident returns a quoted identifier.
func Ident(name string) Fragment {
	return Fragment{nodes: []Node{Identifier{Name: name}}}
}

// Bind returns a bound parameter encoded with codec (which may be nil).
func Bind(value any, codec schema.Codec) Fragment {
	return Fragment{nodes: []Node{Param{Value: value, Encoder: codec}}}
}

// Named returns a placeholder to be filled at execution time.
func Named(name string) Placeholder {
	return Placeholder{Name: name}
}

// Col returns a reference to a column.
func Col(c *schema.Column) Fragment {
	return Fragment{nodes: []Node{ColumnRef{Column: c}}}
}

// BareCol returns an unqualified reference to a column.
func BareCol(c *schema.Column) Fragment {
	return Fragment{nodes: []Node{ColumnRef{Column: c, Bare: true}}}
}

// Join concatenates fragments with sep between them. Empty fragments are kept.
func Join(frags []Fragment, sep Fragment) Fragment {
	nodes := make([]Node, 0, 2*len(frags))
	for i, f := range frags {
		if i > 0 && !sep.IsEmpty() {
			nodes = append(nodes, Nested{Fragment: sep})
		}
		nodes = append(nodes, Nested{Fragment: f})
	}
	return Fragment{nodes: nodes}
}

// SQL is the template constructor. Each ? in format is replaced by the next
// argument, wrapped by Wrap; ?? is a literal question mark. A mismatch
// between markers and arguments is a programming error and panics.
func SQL(format string, args ...any) Fragment {
	nodes := make([]Node, 0, 2*len(args)+1)
	var sb strings.Builder
	next := 0

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '?' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 < len(format) && format[i+1] == '?' {
			sb.WriteByte('?')
			i++
			continue
		}
		if sb.Len() > 0 {
			nodes = append(nodes, Raw{Text: sb.String()})
			sb.Reset()
		}
		if next >= len(args) {
			panic(fmt.Sprintf("ast: SQL %q: missing argument %d", format, next+1))
		}
		nodes = append(nodes, Wrap(args[next]))
		next++
	}
	if sb.Len() > 0 {
		nodes = append(nodes, Raw{Text: sb.String()})
	}
	if next != len(args) {
		panic(fmt.Sprintf("ast: SQL %q: %d arguments for %d markers", format, len(args), next))
	}
	return Fragment{nodes: nodes}
}

// Wrap converts a template argument into a node: fragments nest, columns
// become column references, tables become their (schema-qualified) name,
// placeholders stay placeholders, []any becomes a list and anything else a
// bound parameter.
func Wrap(v any) Node {
	switch val := v.(type) {
	case Node:
		return val
	case Fragment:
		return Nested{Fragment: val}
	case Aliased:
		if val.SelectionField {
			return Identifier{Name: val.Alias}
		}
		return Nested{Fragment: val.Fragment}
	case *schema.Column:
		return ColumnRef{Column: val}
	case *schema.Table:
		return TableName(val)
	case SQLWrapper:
		return Nested{Fragment: val.SQLFragment()}
	case []any:
		items := make([]Node, len(val))
		for i, item := range val {
			items[i] = Wrap(item)
		}
		return List{Items: items}
	default:
		return Param{Value: v}
	}
}

// TableName renders the name a table is referenced by: "alias" for aliases,
// "schema"."name" for schema-qualified tables, "name" otherwise.
func TableName(t *schema.Table) Node {
	if t.Schema() == "" || t.IsAlias() {
		return Identifier{Name: t.Name()}
	}
	return Nested{Fragment: Fragment{nodes: []Node{
		Identifier{Name: t.Schema()}, Raw{Text: "."}, Identifier{Name: t.Name()},
	}}}
}

// FromTable renders a table in a from or join clause. An alias whose name
// differs from the table's renders as "original" "alias".
func FromTable(t *schema.Table) Fragment {
	var nodes []Node
	if t.Schema() != "" {
		nodes = append(nodes, Identifier{Name: t.Schema()}, Raw{Text: "."})
	}
	nodes = append(nodes, Identifier{Name: t.OriginalName()})
	if t.IsAlias() && t.Name() != t.OriginalName() {
		nodes = append(nodes, Raw{Text: " "}, Identifier{Name: t.Name()})
	}
	return Fragment{nodes: nodes}
}
