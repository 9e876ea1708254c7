package builder

import (
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
	"github.com/Konsultn-Engineering/relsql/visitor"
)

// RelationalQuery is a rendered relational query and the selection tree
// its rows are decoded with.
type RelationalQuery struct {
	visitor.Query
	Selection []query.SelectionEntry
}

// CompileRelational builds and renders an eager-load plan.
func (c *Compiler) CompileRelational(plan *query.RelationPlan, opts ...visitor.Options) (RelationalQuery, error) {
	f, selection, err := c.BuildRelational(plan)
	if err != nil {
		return RelationalQuery{}, err
	}
	q, err := c.Render(f, opts...)
	if err != nil {
		return RelationalQuery{}, err
	}
	return RelationalQuery{Query: q, Selection: selection}, nil
}

// BuildRelational lowers an eager-load plan into one select whose nested
// relations are JSON-aggregated scalar subqueries.
func (c *Compiler) BuildRelational(plan *query.RelationPlan) (ast.Fragment, []query.SelectionEntry, error) {
	if plan == nil || plan.Table == nil {
		return ast.Fragment{}, nil, &query.PlanError{Op: "relational", Err: query.ErrInvalidPlan}
	}
	node, err := c.buildRelationNode(plan, plan.Table.Name(), ast.Empty(), nil)
	if err != nil {
		return ast.Fragment{}, nil, err
	}
	return node.sql, node.selection, nil
}

type relationNode struct {
	sql       ast.Fragment
	selection []query.SelectionEntry
}

// buildRelationNode compiles one node under alias. joinOn correlates a
// nested node with its parent; nested is the edge leading to the node, nil
// at the root.
func (c *Compiler) buildRelationNode(plan *query.RelationPlan, alias string, joinOn ast.Fragment, nested *query.RelationEdge) (relationNode, error) {
	table := plan.Table.As(alias)
	retarget := func(f ast.Fragment) ast.Fragment {
		return ast.RetargetColumns(f, plan.Table, table)
	}

	selection := make([]query.SelectionEntry, 0, len(plan.Columns)+len(plan.Extras)+len(plan.Relations))
	for _, col := range plan.Columns {
		selection = append(selection, query.SelectionEntry{
			DBKey: col.Name,
			Key:   col.Key,
			Field: table.C(col.Key),
		})
	}
	for _, extra := range plan.Extras {
		selection = append(selection, query.SelectionEntry{
			DBKey: extra.Alias,
			Key:   extra.Alias,
			Field: ast.Aliased{Fragment: retarget(extra.Fragment), Alias: extra.Alias},
		})
	}

	for i := range plan.Relations {
		edge := &plan.Relations[i]
		if edge.Plan == nil || edge.Relation == nil || len(edge.Fields) != len(edge.References) {
			return relationNode{}, &query.PlanError{Op: "relational", Path: []string{edge.Key}, Table: alias, Err: query.ErrInvalidPlan}
		}
		childAlias := alias + "_" + edge.Key
		childTable := edge.Plan.Table.As(childAlias)

		conds := make([]ast.Fragment, len(edge.Fields))
		for j, field := range edge.Fields {
			ref := edge.References[j]
			conds[j] = ast.Eq(childTable.C(ref.Key), table.C(field.Key))
		}
		child, err := c.buildRelationNode(edge.Plan, childAlias, ast.And(conds...), edge)
		if err != nil {
			return relationNode{}, err
		}
		selection = append(selection, query.SelectionEntry{
			DBKey:            edge.Key,
			Key:              edge.Key,
			Field:            ast.SQL("(?)", child.sql).As(edge.Key),
			IsJSON:           true,
			RelationTableKey: edge.Plan.Table.Name(),
			Relation:         edge.Relation,
			Selection:        child.selection,
		})
	}

	if len(selection) == 0 {
		return relationNode{}, &query.PlanError{Op: "relational", Table: alias, Err: query.ErrEmptySelection}
	}

	limit := plan.Limit
	if nested != nil && nested.Relation.Cardinality == schema.One {
		limit = 1
	}

	where := ast.And(joinOn, retarget(plan.Where))
	orderBy := make([]ast.Fragment, len(plan.OrderBy))
	for i, o := range plan.OrderBy {
		orderBy[i] = retarget(o)
	}

	if nested == nil {
		fields := make([]query.SelectedField, len(selection))
		for i, e := range selection {
			fields[i] = query.SelectedField{Path: []string{e.Key}, Field: e.Field}
		}
		sql, err := c.BuildSelect(query.SelectPlan{
			Source:  table,
			Fields:  fields,
			Where:   where,
			OrderBy: orderBy,
			Limit:   limit,
			Offset:  plan.Offset,
		})
		if err != nil {
			return relationNode{}, err
		}
		return relationNode{sql: sql, selection: selection}, nil
	}

	data := c.wrapJSON(selection, nested.Relation.Cardinality)

	var source any = table
	needsSubquery := limit != nil || plan.Offset != nil || len(orderBy) > 0
	if needsSubquery {
		inner, err := c.BuildSelect(query.SelectPlan{
			Source:  table,
			Fields:  []query.SelectedField{{Path: []string{"*"}, Field: ast.RawSQL("*")}},
			Where:   where,
			OrderBy: orderBy,
			Limit:   limit,
			Offset:  plan.Offset,
		})
		if err != nil {
			return relationNode{}, err
		}
		source = query.NewSubquery(alias, inner, nil, false)
		where, orderBy = ast.Empty(), nil
	}

	sql, err := c.BuildSelect(query.SelectPlan{
		Source:  source,
		Fields:  []query.SelectedField{{Path: []string{"data"}, Field: data.As("data")}},
		Where:   where,
		OrderBy: orderBy,
	})
	if err != nil {
		return relationNode{}, err
	}
	return relationNode{sql: sql, selection: selection}, nil
}

// wrapJSON packs a nested node's selection into one JSON value: an array
// for a One relation, an aggregated array of arrays for a Many relation.
func (c *Compiler) wrapJSON(selection []query.SelectionEntry, card schema.Cardinality) ast.Fragment {
	fn := c.dialect.JSON()
	items := make([]ast.Fragment, len(selection))
	for i, e := range selection {
		switch v := e.Field.(type) {
		case *schema.Column:
			items[i] = ast.BareCol(v)
		case ast.Aliased:
			items[i] = v.Fragment
		case ast.Fragment:
			items[i] = v
		}
	}
	row := ast.Of(
		ast.Raw{Text: fn.Array + "("},
		ast.Nested{Fragment: ast.Join(items, ast.RawSQL(", "))},
		ast.Raw{Text: ")"},
	)
	if card == schema.One {
		return row
	}
	return ast.Of(
		ast.Raw{Text: fn.Coalesce + "(" + fn.GroupArray + "("},
		ast.Nested{Fragment: row},
		ast.Raw{Text: "), " + fn.EmptyArray + ")"},
	)
}
