package query

import (
	"fmt"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// SelectedField is one projected value. Path places the decoded value in
// the result row; Field is a *schema.Column, an ast.Fragment, an
// ast.Aliased or a *Subquery. Order is significant: result rows are zipped
// with the selection positionally.
type SelectedField struct {
	Path  []string
	Field any
}

// Key returns the last path element.
func (f SelectedField) Key() string {
	if len(f.Path) == 0 {
		return ""
	}
	return f.Path[len(f.Path)-1]
}

// Decoder returns the codec used to decode the field's result column.
func (f SelectedField) Decoder() schema.Codec {
	return DecoderOf(f.Field)
}

// Field places a value under an explicit key.
func Field(key string, field any) SelectedField {
	return SelectedField{Path: []string{key}, Field: field}
}

// Nest places every field of a group under key.
func Nest(key string, fields ...any) []SelectedField {
	flat := Flatten(fields)
	for i := range flat {
		flat[i].Path = append([]string{key}, flat[i].Path...)
	}
	return flat
}

// DecoderOf returns the result decoder of a selectable value. A subquery
// selecting exactly one field decodes with that field's decoder.
func DecoderOf(field any) schema.Codec {
	switch v := field.(type) {
	case *schema.Column:
		return v
	case ast.Fragment:
		return v.Decoder()
	case ast.Aliased:
		return v.Decoder()
	case *Subquery:
		if len(v.fields) == 1 {
			return DecoderOf(v.fields[0].Field)
		}
	}
	return schema.PassthroughCodec{}
}

// Flatten turns builder arguments into an ordered selection:
//
//	*schema.Column    [key]
//	ast.Aliased       [alias]
//	*Subquery         [alias]
//	*schema.Table     [table, key] for every column
//	SelectedField     as given
//	[]SelectedField   as given
//	ast.Fragment      [exprN]
func Flatten(fields []any) []SelectedField {
	out := make([]SelectedField, 0, len(fields))
	for i, f := range fields {
		switch v := f.(type) {
		case SelectedField:
			out = append(out, v)
		case []SelectedField:
			out = append(out, v...)
		case *schema.Column:
			out = append(out, SelectedField{Path: []string{v.Key}, Field: v})
		case ast.Aliased:
			out = append(out, SelectedField{Path: []string{v.Alias}, Field: v})
		case *Subquery:
			out = append(out, SelectedField{Path: []string{v.Alias()}, Field: v})
		case *schema.Table:
			out = append(out, tableFields(v, true)...)
		case ast.Fragment:
			out = append(out, SelectedField{Path: []string{fmt.Sprintf("expr%d", i)}, Field: v})
		default:
			out = append(out, SelectedField{Path: []string{fmt.Sprintf("expr%d", i)}, Field: ast.Of(ast.Wrap(v))})
		}
	}
	return out
}

func tableFields(t *schema.Table, nested bool) []SelectedField {
	cols := t.Columns()
	out := make([]SelectedField, len(cols))
	for i, c := range cols {
		path := []string{c.Key}
		if nested {
			path = []string{t.Name(), c.Key}
		}
		out[i] = SelectedField{Path: path, Field: c}
	}
	return out
}

func sourceFields(src any, nested bool) []SelectedField {
	switch s := src.(type) {
	case *schema.Table:
		return tableFields(s, nested)
	case *Subquery:
		return tableFields(s.Table(), nested)
	}
	return nil
}

// SameShape reports whether two selections have the same field paths in
// the same order.
func SameShape(a, b []SelectedField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i].Path) != len(b[i].Path) {
			return false
		}
		for j := range a[i].Path {
			if a[i].Path[j] != b[i].Path[j] {
				return false
			}
		}
	}
	return true
}
