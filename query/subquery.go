package query

import (
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// Subquery is a compiled select used as a from/join source, a scalar
// expression or a common table expression. Its selected fields are exposed
// as the columns of a table named after the alias, so outer queries can
// reference them like any other column.
type Subquery struct {
	alias     string
	body      ast.Fragment
	fields    []SelectedField
	table     *schema.Table
	cte       bool
	recursive bool
	defined   bool
}

// NewSubquery wraps a compiled select body. fields is the body's flattened
// selection.
func NewSubquery(alias string, body ast.Fragment, fields []SelectedField, cte bool) *Subquery {
	return &Subquery{
		alias:   alias,
		body:    body,
		fields:  fields,
		table:   schema.NewTable(alias, exportedColumns(fields)...),
		cte:     cte,
		defined: true,
	}
}

// Recursive declares a recursive common table expression. The declared
// columns can be referenced by the body, which is attached later with
// Define.
func Recursive(alias string, columns ...*schema.Column) *Subquery {
	fields := make([]SelectedField, len(columns))
	cols := make([]*schema.Column, len(columns))
	for i, c := range columns {
		cols[i] = c.Derive(c.Key)
	}
	t := schema.NewTable(alias, cols...)
	for i, c := range t.Columns() {
		fields[i] = SelectedField{Path: []string{c.Key}, Field: c}
	}
	return &Subquery{alias: alias, fields: fields, table: t, cte: true, recursive: true}
}

// Define attaches the compiled body of a recursive common table expression.
func (s *Subquery) Define(body ast.Fragment) error {
	if !s.recursive {
		return &PlanError{Op: "with", Table: s.alias, Err: ErrInvalidPlan}
	}
	s.body = body
	s.defined = true
	return nil
}

func exportedColumns(fields []SelectedField) []*schema.Column {
	cols := make([]*schema.Column, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		key := f.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		var col *schema.Column
		switch v := f.Field.(type) {
		case *schema.Column:
			col = v.Derive(key)
		case ast.Aliased:
			col = schema.NewColumn(key, "").Named(v.Alias).MapWith(v.Decoder())
		case *Subquery:
			col = schema.NewColumn(key, "").Named(v.Alias()).MapWith(DecoderOf(v))
		default:
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

func (s *Subquery) Alias() string { return s.alias }

// Body returns the compiled select without parentheses or alias.
func (s *Subquery) Body() ast.Fragment { return s.body }

func (s *Subquery) Fields() []SelectedField {
	out := make([]SelectedField, len(s.fields))
	copy(out, s.fields)
	return out
}

// Table returns the pseudo table describing the subquery's columns.
func (s *Subquery) Table() *schema.Table { return s.table }

// C returns the exported column with the given key.
func (s *Subquery) C(key string) *schema.Column { return s.table.C(key) }

func (s *Subquery) IsCTE() bool       { return s.cte }
func (s *Subquery) IsRecursive() bool { return s.recursive }
func (s *Subquery) IsDefined() bool   { return s.defined }

// SQLFragment renders a common table expression as its name and any other
// subquery as (body) "alias".
func (s *Subquery) SQLFragment() ast.Fragment {
	if s.cte {
		return ast.Ident(s.alias)
	}
	return ast.SQL("(?) ?", s.body, ast.Identifier{Name: s.alias})
}

// Definition renders the with-clause entry "alias" as (body).
func (s *Subquery) Definition() ast.Fragment {
	return ast.SQL("? as (?)", ast.Identifier{Name: s.alias}, s.body)
}
