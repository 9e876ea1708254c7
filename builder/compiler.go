package builder

import (
	"fmt"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/cache"
	"github.com/Konsultn-Engineering/relsql/dialect"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/visitor"
)

// Compiler lowers plans into fragments and renders them for one dialect.
// It holds no per-call state and is safe for concurrent use.
type Compiler struct {
	dialect dialect.Dialect
	casing  *cache.CasingCache
}

// NewCompiler creates a compiler. A nil casing cache leaves column names
// untouched.
func NewCompiler(d dialect.Dialect, casing *cache.CasingCache) *Compiler {
	if d == nil {
		d = dialect.NewSQLiteDialect()
	}
	if casing == nil {
		casing = cache.NewCasingCache("")
	}
	return &Compiler{dialect: d, casing: casing}
}

func (c *Compiler) Dialect() dialect.Dialect { return c.dialect }

func (c *Compiler) Casing() *cache.CasingCache { return c.casing }

// Compile builds and renders a statement plan.
func (c *Compiler) Compile(plan query.Plan, opts ...visitor.Options) (visitor.Query, error) {
	f, err := c.Build(plan)
	if err != nil {
		return visitor.Query{}, err
	}
	return c.Render(f, opts...)
}

// Render linearizes a fragment with the compiler's dialect and casing.
func (c *Compiler) Render(f ast.Fragment, opts ...visitor.Options) (visitor.Query, error) {
	return visitor.Render(f, c.dialect, c.casing, opts...)
}

// Build lowers a plan into a fragment without rendering it.
func (c *Compiler) Build(plan query.Plan) (ast.Fragment, error) {
	if err := plan.Err(); err != nil {
		return ast.Fragment{}, err
	}
	switch p := plan.(type) {
	case query.SelectBuilder:
		return c.BuildSelect(p.Plan())
	case query.SelectPlan:
		return c.BuildSelect(p)
	case query.InsertBuilder:
		return c.BuildInsert(p.Plan())
	case query.InsertPlan:
		return c.BuildInsert(p)
	case query.UpdateBuilder:
		return c.BuildUpdate(p.Plan())
	case query.UpdatePlan:
		return c.BuildUpdate(p)
	case query.DeleteBuilder:
		return c.BuildDelete(p.Plan())
	case query.DeletePlan:
		return c.BuildDelete(p)
	}
	return ast.Fragment{}, fmt.Errorf("builder: unsupported plan %T: %w", plan, query.ErrInvalidPlan)
}

// Subquery compiles a select for use as a from/join source or a scalar.
func (c *Compiler) Subquery(sel query.SelectBuilder, alias string) (*query.Subquery, error) {
	return c.subquery(sel, alias, false)
}

// CTE compiles a select as a common table expression.
func (c *Compiler) CTE(sel query.SelectBuilder, alias string) (*query.Subquery, error) {
	return c.subquery(sel, alias, true)
}

func (c *Compiler) subquery(sel query.SelectBuilder, alias string, cte bool) (*query.Subquery, error) {
	if err := sel.Err(); err != nil {
		return nil, err
	}
	plan := sel.Plan()
	body, err := c.BuildSelect(plan)
	if err != nil {
		return nil, err
	}
	return query.NewSubquery(alias, body, plan.SelectedFields(), cte), nil
}

// DefineRecursive compiles the body of a CTE declared with
// query.Recursive. The body may read from the CTE itself.
func (c *Compiler) DefineRecursive(cte *query.Subquery, body query.SelectBuilder) error {
	if err := body.Err(); err != nil {
		return err
	}
	plan := body.Plan()
	f, err := c.BuildSelect(plan)
	if err != nil {
		return err
	}
	if !query.SameShape(keysOnly(cte.Fields()), keysOnly(plan.SelectedFields())) {
		return &query.PlanError{Op: "with recursive", Table: cte.Alias(), Err: query.ErrSetOperationShape}
	}
	return cte.Define(f)
}

// keysOnly compares selections by their last path element, since a CTE
// exposes flat columns.
func keysOnly(fields []query.SelectedField) []query.SelectedField {
	out := make([]query.SelectedField, len(fields))
	for i, f := range fields {
		out[i] = query.SelectedField{Path: []string{f.Key()}}
	}
	return out
}
