package builder

import (
	"reflect"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// BuildSelect lowers a select plan:
//
//	[with ...]select[ distinct] <fields> from <source>[ joins][ where][ group by]
//	[ having][ order by][ limit][ offset][ <set operations>]
func (c *Compiler) BuildSelect(p query.SelectPlan) (ast.Fragment, error) {
	if err := p.Err(); err != nil {
		return ast.Fragment{}, err
	}
	if p.Source == nil {
		return ast.Fragment{}, &query.PlanError{Op: "select", Err: query.ErrInvalidPlan}
	}

	fields := p.SelectedFields()
	if len(fields) == 0 {
		return ast.Fragment{}, &query.PlanError{Op: "select", Table: query.SourceAlias(p.Source), Err: query.ErrEmptySelection}
	}
	if err := validateQualification("select", fields, p.Source, p.Joins); err != nil {
		return ast.Fragment{}, err
	}
	limit, err := limitClause(p.Limit)
	if err != nil {
		return ast.Fragment{}, err
	}
	offset, err := offsetClause(p.Offset)
	if err != nil {
		return ast.Fragment{}, err
	}

	with, err := c.buildWith(p.CTEs)
	if err != nil {
		return ast.Fragment{}, err
	}

	nodes := []ast.Node{ast.Nested{Fragment: with}, ast.Raw{Text: "select"}}
	if p.Distinct {
		nodes = append(nodes, ast.Raw{Text: " distinct"})
	}
	nodes = append(nodes,
		ast.Raw{Text: " "}, ast.Nested{Fragment: c.buildSelection(fields, p.IsSingleTable())},
		ast.Raw{Text: " from "}, ast.Nested{Fragment: fromSource(p.Source)},
		ast.Nested{Fragment: buildJoins(p.Joins)},
		ast.Nested{Fragment: clause(" where ", p.Where)},
		ast.Nested{Fragment: listClause(" group by ", p.GroupBy)},
		ast.Nested{Fragment: clause(" having ", p.Having)},
		ast.Nested{Fragment: listClause(" order by ", p.OrderBy)},
		ast.Nested{Fragment: limit},
		ast.Nested{Fragment: offset},
	)
	stmt := ast.Of(nodes...)

	if len(p.SetOps) > 0 {
		return c.buildSetOperations(stmt, fields, p.SetOps)
	}
	return stmt, nil
}

// buildSelection renders the projection list. In single-table statements
// column references lose their table qualifier.
func (c *Compiler) buildSelection(fields []query.SelectedField, singleTable bool) ast.Fragment {
	parts := make([]ast.Fragment, 0, len(fields))
	for _, f := range fields {
		switch v := f.Field.(type) {
		case ast.Aliased:
			if v.SelectionField {
				parts = append(parts, ast.Ident(v.Alias))
				continue
			}
			expr := v.Fragment
			if singleTable {
				expr = ast.BareColumns(expr)
			}
			parts = append(parts, ast.SQL("? as ?", expr, ast.Identifier{Name: v.Alias}))
		case ast.Fragment:
			if singleTable {
				v = ast.BareColumns(v)
			}
			parts = append(parts, v)
		case *schema.Column:
			parts = append(parts, c.selectColumn(v, singleTable))
		case *query.Subquery:
			parts = append(parts, v.SQLFragment())
		default:
			parts = append(parts, ast.Of(ast.Wrap(v)))
		}
	}
	return ast.Join(parts, ast.RawSQL(", "))
}

func (c *Compiler) selectColumn(col *schema.Column, singleTable bool) ast.Fragment {
	ref := ast.ColumnRef{Column: col, Bare: singleTable}
	if !col.CastToText {
		return ast.Of(ref)
	}
	return ast.SQL("cast(? as "+c.dialect.TextType()+") as ?", ref,
		ast.Identifier{Name: c.casing.ColumnCasing(col)})
}

// validateQualification fails when a selected column belongs to a table
// that is neither the source nor joined.
func validateQualification(op string, fields []query.SelectedField, src any, joins []query.Join) error {
	allowed := make(map[string]struct{}, len(joins)+1)
	if alias := query.SourceAlias(src); alias != "" {
		allowed[alias] = struct{}{}
	}
	for _, j := range joins {
		allowed[j.Alias] = struct{}{}
	}
	for _, f := range fields {
		col, ok := f.Field.(*schema.Column)
		if !ok || col.Table() == nil {
			continue
		}
		if _, ok := allowed[col.TableName()]; !ok {
			return &query.PlanError{
				Op:     op,
				Path:   f.Path,
				Table:  col.TableName(),
				Column: col.Name,
				Err:    query.ErrUnjoinedColumn,
			}
		}
	}
	return nil
}

func fromSource(src any) ast.Fragment {
	switch s := src.(type) {
	case *schema.Table:
		return ast.FromTable(s)
	case *query.Subquery:
		return s.SQLFragment()
	case ast.Fragment:
		return s
	}
	return ast.Of(ast.Wrap(src))
}

func buildJoins(joins []query.Join) ast.Fragment {
	if len(joins) == 0 {
		return ast.Empty()
	}
	parts := make([]ast.Fragment, len(joins))
	for i, j := range joins {
		parts[i] = ast.Of(
			ast.Raw{Text: j.Type.String() + " join "},
			ast.Nested{Fragment: fromSource(j.Source)},
			ast.Nested{Fragment: clause(" on ", j.On)},
		)
	}
	return ast.Of(ast.Raw{Text: " "}, ast.Nested{Fragment: ast.Join(parts, ast.RawSQL(" "))})
}

// buildWith renders the with clause; any recursive entry makes it
// with recursive.
func (c *Compiler) buildWith(ctes []*query.Subquery) (ast.Fragment, error) {
	if len(ctes) == 0 {
		return ast.Empty(), nil
	}
	keyword := "with "
	defs := make([]ast.Fragment, len(ctes))
	for i, cte := range ctes {
		if !cte.IsDefined() {
			return ast.Fragment{}, &query.PlanError{Op: "with", Table: cte.Alias(), Err: query.ErrRecursiveUndefined}
		}
		if cte.IsRecursive() {
			keyword = "with recursive "
		}
		defs[i] = cte.Definition()
	}
	return ast.Of(ast.Raw{Text: keyword}, ast.Nested{Fragment: ast.Join(defs, ast.RawSQL(", "))}, ast.Raw{Text: " "}), nil
}

// buildSetOperations folds the operations onto left one at a time.
func (c *Compiler) buildSetOperations(left ast.Fragment, leftFields []query.SelectedField, ops []query.SetOp) (ast.Fragment, error) {
	if len(ops) == 0 {
		return ast.Fragment{}, &query.PlanError{Op: "set operation", Err: query.ErrEmptySetOperators}
	}
	for _, op := range ops {
		next, err := c.buildSetOperation(left, leftFields, op)
		if err != nil {
			return ast.Fragment{}, err
		}
		left = next
	}
	return left, nil
}

func (c *Compiler) buildSetOperation(left ast.Fragment, leftFields []query.SelectedField, op query.SetOp) (ast.Fragment, error) {
	if op.Right.Source == nil {
		return ast.Fragment{}, &query.PlanError{Op: op.Kind.String(), Err: query.ErrEmptySetOperators}
	}
	if !query.SameShape(leftFields, op.Right.SelectedFields()) {
		return ast.Fragment{}, &query.PlanError{Op: op.Kind.String(), Err: query.ErrSetOperationShape}
	}
	right, err := c.BuildSelect(op.Right)
	if err != nil {
		return ast.Fragment{}, err
	}

	limit, err := limitClause(op.Limit)
	if err != nil {
		return ast.Fragment{}, err
	}
	offset, err := offsetClause(op.Offset)
	if err != nil {
		return ast.Fragment{}, err
	}

	keyword := " " + op.Kind.String() + " "
	if op.All {
		keyword += "all "
	}
	orderBy := make([]ast.Fragment, len(op.OrderBy))
	for i, o := range op.OrderBy {
		orderBy[i] = ast.BareAll(o)
	}
	return ast.Of(
		ast.Nested{Fragment: left},
		ast.Raw{Text: keyword},
		ast.Nested{Fragment: right},
		ast.Nested{Fragment: listClause(" order by ", orderBy)},
		ast.Nested{Fragment: limit},
		ast.Nested{Fragment: offset},
	), nil
}

func clause(keyword string, f ast.Fragment) ast.Fragment {
	if f.IsEmpty() {
		return ast.Empty()
	}
	return ast.Of(ast.Raw{Text: keyword}, ast.Nested{Fragment: f})
}

func listClause(keyword string, items []ast.Fragment) ast.Fragment {
	if len(items) == 0 {
		return ast.Empty()
	}
	return ast.Of(ast.Raw{Text: keyword}, ast.Nested{Fragment: ast.Join(items, ast.RawSQL(", "))})
}

// limitClause renders a limit for a non-negative integer or a placeholder.
// A negative limit renders nothing.
func limitClause(limit any) (ast.Fragment, error) {
	return boundClause("limit", limit, 0)
}

// offsetClause renders an offset only when it is set and non-zero.
func offsetClause(offset any) (ast.Fragment, error) {
	return boundClause("offset", offset, 1)
}

// boundClause renders keyword with v bound as a parameter when v is a
// placeholder or an integer of any kind not below least. Values of any
// other type are plan errors.
func boundClause(keyword string, v any, least int64) (ast.Fragment, error) {
	switch x := v.(type) {
	case nil:
		return ast.Empty(), nil
	case ast.Placeholder:
		return ast.Of(ast.Raw{Text: " " + keyword + " "}, x), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < least {
			return ast.Empty(), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if least > 0 && rv.Uint() < uint64(least) {
			return ast.Empty(), nil
		}
	default:
		return ast.Fragment{}, &query.PlanError{Op: keyword, Err: query.ErrInvalidPlan}
	}
	return ast.Of(ast.Raw{Text: " " + keyword + " "}, ast.Param{Value: v}), nil
}
