package builder

import (
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// BuildInsert lowers an insert plan:
//
//	[with ...]insert into <table> (<columns>) values (...), (...)[ on conflict ...][ returning ...]
//
// Generated columns are never written. A column without a value takes, in
// order: its static default, its default function, its on-update function
// when the insert is an upsert, or null.
func (c *Compiler) BuildInsert(p query.InsertPlan) (ast.Fragment, error) {
	if err := p.Err(); err != nil {
		return ast.Fragment{}, err
	}
	if p.Table == nil {
		return ast.Fragment{}, &query.PlanError{Op: "insert", Err: query.ErrInvalidPlan}
	}
	if len(p.Rows) == 0 && p.Select == nil {
		return ast.Fragment{}, &query.PlanError{Op: "insert", Table: p.Table.Name(), Err: query.ErrInvalidPlan}
	}

	cols := insertableColumns(p.Table)
	names := make([]ast.Node, len(cols))
	for i, col := range cols {
		names[i] = ast.ColumnRef{Column: col, Bare: true}
	}

	with, err := c.buildWith(p.CTEs)
	if err != nil {
		return ast.Fragment{}, err
	}

	var values ast.Fragment
	if p.Select != nil {
		sel, err := c.BuildSelect(*p.Select)
		if err != nil {
			return ast.Fragment{}, err
		}
		values = ast.Of(ast.Raw{Text: " "}, ast.Nested{Fragment: sel})
	} else {
		rows := make([]ast.Fragment, len(p.Rows))
		for i, row := range p.Rows {
			items := make([]ast.Node, len(cols))
			for j, col := range cols {
				items[j] = insertValue(col, row, p.IsUpsert())
			}
			rows[i] = ast.Of(ast.List{Items: items})
		}
		values = ast.Of(ast.Raw{Text: " values "}, ast.Nested{Fragment: ast.Join(rows, ast.RawSQL(", "))})
	}

	conflict, err := c.buildOnConflict(p.Table, p.Conflict)
	if err != nil {
		return ast.Fragment{}, err
	}

	return ast.Of(
		ast.Nested{Fragment: with},
		ast.Raw{Text: "insert into "},
		ast.Nested{Fragment: ast.FromTable(p.Table)},
		ast.Raw{Text: " "},
		ast.List{Items: names},
		ast.Nested{Fragment: values},
		ast.Nested{Fragment: conflict},
		ast.Nested{Fragment: c.returningClause(p.Returning)},
	), nil
}

func insertableColumns(t *schema.Table) []*schema.Column {
	all := t.Columns()
	cols := make([]*schema.Column, 0, len(all))
	for _, col := range all {
		if !col.IsGenerated {
			cols = append(cols, col)
		}
	}
	return cols
}

func insertValue(col *schema.Column, row query.Values, upsert bool) ast.Node {
	if v, ok := row[col.Key]; ok {
		return bindValue(col, v)
	}
	switch {
	case col.HasDefault:
		return bindValue(col, col.DefaultValue)
	case col.DefaultFunc != nil:
		return bindValue(col, col.DefaultFunc())
	case upsert && col.OnUpdateFunc != nil:
		return bindValue(col, col.OnUpdateFunc())
	}
	return ast.Raw{Text: "null"}
}

// bindValue embeds SQL values and binds everything else with the column's
// encoder.
func bindValue(col *schema.Column, v any) ast.Node {
	switch val := v.(type) {
	case ast.Fragment:
		return ast.Nested{Fragment: val}
	case ast.Placeholder:
		return ast.Param{Value: val, Encoder: col}
	case ast.Node:
		return val
	case *query.Subquery:
		return ast.Nested{Fragment: ast.SQL("(?)", val.Body())}
	}
	return ast.Param{Value: v, Encoder: col}
}

// buildUpdateSet renders "col" = value for every column with a new value
// or an on-update function, in table order.
func buildUpdateSet(t *schema.Table, set query.Values) ast.Fragment {
	var parts []ast.Fragment
	for _, col := range t.Columns() {
		v, ok := set[col.Key]
		if !ok && col.OnUpdateFunc == nil {
			continue
		}
		if !ok {
			v = col.OnUpdateFunc()
		}
		parts = append(parts, ast.Of(ast.ColumnRef{Column: col, Bare: true}, ast.Raw{Text: " = "}, bindValue(col, v)))
	}
	return ast.Join(parts, ast.RawSQL(", "))
}

func (c *Compiler) buildOnConflict(t *schema.Table, oc *query.OnConflict) (ast.Fragment, error) {
	if oc == nil {
		return ast.Empty(), nil
	}
	nodes := []ast.Node{ast.Raw{Text: " on conflict"}}
	if len(oc.Target) > 0 {
		target := make([]ast.Node, len(oc.Target))
		for i, col := range oc.Target {
			target[i] = ast.ColumnRef{Column: col, Bare: true}
		}
		nodes = append(nodes, ast.Raw{Text: " "}, ast.List{Items: target})
		nodes = append(nodes, ast.Nested{Fragment: clause(" where ", oc.TargetWhere)})
	}
	if oc.DoNothing {
		nodes = append(nodes, ast.Raw{Text: " do nothing"})
		return ast.Of(nodes...), nil
	}
	for key := range oc.Set {
		if _, ok := t.Column(key); !ok {
			return ast.Fragment{}, &query.PlanError{Op: "on conflict", Table: t.Name(), Column: key, Err: query.ErrUnknownColumn}
		}
	}
	set := buildUpdateSet(t, oc.Set)
	if set.IsEmpty() {
		return ast.Fragment{}, &query.PlanError{Op: "on conflict", Table: t.Name(), Err: query.ErrInvalidPlan}
	}
	nodes = append(nodes,
		ast.Raw{Text: " do update set "},
		ast.Nested{Fragment: set},
		ast.Nested{Fragment: clause(" where ", oc.Where)},
	)
	return ast.Of(nodes...), nil
}

func (c *Compiler) returningClause(fields []query.SelectedField) ast.Fragment {
	if len(fields) == 0 {
		return ast.Empty()
	}
	return ast.Of(ast.Raw{Text: " returning "}, ast.Nested{Fragment: c.buildSelection(fields, true)})
}

// BuildUpdate lowers an update plan:
//
//	[with ...]update <table> set ...[ from ...][ joins][ where][ returning][ order by][ limit]
func (c *Compiler) BuildUpdate(p query.UpdatePlan) (ast.Fragment, error) {
	if err := p.Err(); err != nil {
		return ast.Fragment{}, err
	}
	if p.Table == nil {
		return ast.Fragment{}, &query.PlanError{Op: "update", Err: query.ErrInvalidPlan}
	}
	set := buildUpdateSet(p.Table, p.Set)
	if set.IsEmpty() {
		return ast.Fragment{}, &query.PlanError{Op: "update", Table: p.Table.Name(), Err: query.ErrInvalidPlan}
	}
	with, err := c.buildWith(p.CTEs)
	if err != nil {
		return ast.Fragment{}, err
	}

	limit, err := limitClause(p.Limit)
	if err != nil {
		return ast.Fragment{}, err
	}

	from := ast.Empty()
	if p.From != nil {
		from = ast.Of(ast.Raw{Text: " from "}, ast.Nested{Fragment: fromSource(p.From)})
	}

	return ast.Of(
		ast.Nested{Fragment: with},
		ast.Raw{Text: "update "},
		ast.Nested{Fragment: ast.FromTable(p.Table)},
		ast.Raw{Text: " set "},
		ast.Nested{Fragment: set},
		ast.Nested{Fragment: from},
		ast.Nested{Fragment: buildJoins(p.Joins)},
		ast.Nested{Fragment: clause(" where ", p.Where)},
		ast.Nested{Fragment: c.returningClause(p.Returning)},
		ast.Nested{Fragment: listClause(" order by ", p.OrderBy)},
		ast.Nested{Fragment: limit},
	), nil
}

// BuildDelete lowers a delete plan:
//
//	[with ...]delete from <table>[ where][ returning][ order by][ limit]
func (c *Compiler) BuildDelete(p query.DeletePlan) (ast.Fragment, error) {
	if err := p.Err(); err != nil {
		return ast.Fragment{}, err
	}
	if p.Table == nil {
		return ast.Fragment{}, &query.PlanError{Op: "delete", Err: query.ErrInvalidPlan}
	}
	with, err := c.buildWith(p.CTEs)
	if err != nil {
		return ast.Fragment{}, err
	}
	limit, err := limitClause(p.Limit)
	if err != nil {
		return ast.Fragment{}, err
	}
	return ast.Of(
		ast.Nested{Fragment: with},
		ast.Raw{Text: "delete from "},
		ast.Nested{Fragment: ast.FromTable(p.Table)},
		ast.Nested{Fragment: clause(" where ", p.Where)},
		ast.Nested{Fragment: c.returningClause(p.Returning)},
		ast.Nested{Fragment: listClause(" order by ", p.OrderBy)},
		ast.Nested{Fragment: limit},
	), nil
}
