package query

import (
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// StatementKind identifies the statement a plan compiles to.
type StatementKind int

const (
	KindSelect StatementKind = iota
	KindInsert
	KindUpdate
	KindDelete
)

func (k StatementKind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "select"
	}
}

// Plan is implemented by the statement plans.
type Plan interface {
	Kind() StatementKind
	// Err returns the first error recorded while the plan was built.
	Err() error
}

// SelectPlan describes a select statement. It is plain data; SelectBuilder
// produces it.
type SelectPlan struct {
	CTEs        []*Subquery
	Source      any // *schema.Table, *Subquery or ast.Fragment
	Fields      []SelectedField
	Joins       []Join
	Where       ast.Fragment
	Having      ast.Fragment
	GroupBy     []ast.Fragment
	OrderBy     []ast.Fragment
	Limit       any // nil, int or ast.Placeholder
	Offset      any
	Distinct    bool
	SetOps      []SetOp
	Nullability NullabilityMap

	errs []error
}

func (p SelectPlan) Kind() StatementKind { return KindSelect }

func (p SelectPlan) Err() error {
	if len(p.errs) > 0 {
		return p.errs[0]
	}
	return nil
}

// SelectedFields returns the selection the plan projects, applying the
// default selection when none was given.
func (p SelectPlan) SelectedFields() []SelectedField {
	if p.Fields != nil {
		return p.Fields
	}
	if len(p.Joins) == 0 {
		return sourceFields(p.Source, false)
	}
	out := sourceFields(p.Source, true)
	for _, j := range p.Joins {
		out = append(out, sourceFields(j.Source, true)...)
	}
	return out
}

// IsSingleTable reports whether the plan reads a single source without joins.
func (p SelectPlan) IsSingleTable() bool {
	return len(p.Joins) == 0
}

// SelectBuilder builds a SelectPlan. Methods have value receivers and
// return updated copies, so a builder can be branched freely.
type SelectBuilder struct {
	plan SelectPlan
}

// Select starts a select of the given fields. Without fields every column
// of the source is selected, grouped per table once joins are added.
func Select(fields ...any) SelectBuilder {
	var b SelectBuilder
	if len(fields) > 0 {
		b.plan.Fields = Flatten(fields)
	}
	return b
}

// SelectDistinct starts a select distinct.
func SelectDistinct(fields ...any) SelectBuilder {
	b := Select(fields...)
	b.plan.Distinct = true
	return b
}

// Plan returns the built plan.
func (b SelectBuilder) Plan() SelectPlan { return b.plan }

func (b SelectBuilder) Kind() StatementKind { return KindSelect }

func (b SelectBuilder) Err() error { return b.plan.Err() }

func (b SelectBuilder) addError(err error) SelectBuilder {
	b.plan.errs = append(clone(b.plan.errs), err)
	return b
}

// From sets the source table, subquery or fragment.
func (b SelectBuilder) From(src any) SelectBuilder {
	b.plan.Source = src
	b.plan.Nullability = NewNullabilityMap(SourceAlias(src))
	return b
}

// With prefixes the statement with common table expressions.
func (b SelectBuilder) With(ctes ...*Subquery) SelectBuilder {
	b.plan.CTEs = append(clone(b.plan.CTEs), ctes...)
	return b
}

// Join adds a join clause. The join alias must be unique in the plan.
func (b SelectBuilder) Join(kind JoinType, src any, on ast.Fragment) SelectBuilder {
	alias := SourceAlias(src)
	if alias == "" {
		return b.addError(&PlanError{Op: "join", Err: ErrInvalidPlan})
	}
	if alias == SourceAlias(b.plan.Source) {
		return b.addError(&PlanError{Op: "join", Table: alias, Err: ErrDuplicateAlias})
	}
	for _, j := range b.plan.Joins {
		if j.Alias == alias {
			return b.addError(&PlanError{Op: "join", Table: alias, Err: ErrDuplicateAlias})
		}
	}
	if b.plan.Nullability == nil {
		b.plan.Nullability = NewNullabilityMap(SourceAlias(b.plan.Source))
	}
	b.plan.Joins = append(clone(b.plan.Joins), Join{Type: kind, Source: src, Alias: alias, On: on})
	b.plan.Nullability = b.plan.Nullability.ApplyJoin(kind, alias)
	return b
}

func (b SelectBuilder) InnerJoin(src any, on ast.Fragment) SelectBuilder {
	return b.Join(InnerJoin, src, on)
}

func (b SelectBuilder) LeftJoin(src any, on ast.Fragment) SelectBuilder {
	return b.Join(LeftJoin, src, on)
}

func (b SelectBuilder) RightJoin(src any, on ast.Fragment) SelectBuilder {
	return b.Join(RightJoin, src, on)
}

func (b SelectBuilder) FullJoin(src any, on ast.Fragment) SelectBuilder {
	return b.Join(FullJoin, src, on)
}

func (b SelectBuilder) CrossJoin(src any) SelectBuilder {
	return b.Join(CrossJoin, src, ast.Empty())
}

// Where replaces the filter with the conjunction of conds.
func (b SelectBuilder) Where(conds ...ast.Fragment) SelectBuilder {
	b.plan.Where = ast.And(conds...)
	return b
}

func (b SelectBuilder) GroupBy(exprs ...any) SelectBuilder {
	b.plan.GroupBy = append(clone(b.plan.GroupBy), fragments(exprs)...)
	return b
}

func (b SelectBuilder) Having(conds ...ast.Fragment) SelectBuilder {
	b.plan.Having = ast.And(conds...)
	return b
}

// OrderBy sets the ordering. After a set operation it orders the combined
// result instead.
func (b SelectBuilder) OrderBy(exprs ...any) SelectBuilder {
	if n := len(b.plan.SetOps); n > 0 {
		b.plan.SetOps = clone(b.plan.SetOps)
		b.plan.SetOps[n-1].OrderBy = fragments(exprs)
		return b
	}
	b.plan.OrderBy = fragments(exprs)
	return b
}

// Limit takes an integer or an ast.Placeholder. After a set operation it
// limits the combined result.
func (b SelectBuilder) Limit(n any) SelectBuilder {
	if k := len(b.plan.SetOps); k > 0 {
		b.plan.SetOps = clone(b.plan.SetOps)
		b.plan.SetOps[k-1].Limit = n
		return b
	}
	b.plan.Limit = n
	return b
}

func (b SelectBuilder) Offset(n any) SelectBuilder {
	if k := len(b.plan.SetOps); k > 0 {
		b.plan.SetOps = clone(b.plan.SetOps)
		b.plan.SetOps[k-1].Offset = n
		return b
	}
	b.plan.Offset = n
	return b
}

// SetOpKind is the set operator combining two selects.
type SetOpKind int

const (
	Union SetOpKind = iota
	Intersect
	Except
)

func (k SetOpKind) String() string {
	switch k {
	case Intersect:
		return "intersect"
	case Except:
		return "except"
	default:
		return "union"
	}
}

// SetOp combines the query built so far with Right. OrderBy, Limit and
// Offset apply to the combined result.
type SetOp struct {
	Kind    SetOpKind
	All     bool
	Right   SelectPlan
	OrderBy []ast.Fragment
	Limit   any
	Offset  any
}

func (b SelectBuilder) setOp(kind SetOpKind, all bool, right SelectBuilder) SelectBuilder {
	if err := right.Err(); err != nil {
		b = b.addError(err)
	}
	b.plan.SetOps = append(clone(b.plan.SetOps), SetOp{Kind: kind, All: all, Right: right.plan})
	return b
}

func (b SelectBuilder) Union(right SelectBuilder) SelectBuilder    { return b.setOp(Union, false, right) }
func (b SelectBuilder) UnionAll(right SelectBuilder) SelectBuilder { return b.setOp(Union, true, right) }
func (b SelectBuilder) Intersect(right SelectBuilder) SelectBuilder {
	return b.setOp(Intersect, false, right)
}
func (b SelectBuilder) IntersectAll(right SelectBuilder) SelectBuilder {
	return b.setOp(Intersect, true, right)
}
func (b SelectBuilder) Except(right SelectBuilder) SelectBuilder    { return b.setOp(Except, false, right) }
func (b SelectBuilder) ExceptAll(right SelectBuilder) SelectBuilder { return b.setOp(Except, true, right) }

// Combine folds selects left to right with one set operator:
// Combine(Union, false, a, b, c) is a.Union(b).Union(c).
func Combine(kind SetOpKind, all bool, selects ...SelectBuilder) SelectBuilder {
	if len(selects) < 2 {
		var b SelectBuilder
		if len(selects) == 1 {
			b = selects[0]
		}
		return b.addError(&PlanError{Op: kind.String(), Err: ErrEmptySetOperators})
	}
	out := selects[0]
	for _, right := range selects[1:] {
		out = out.setOp(kind, all, right)
	}
	return out
}

func fragments(exprs []any) []ast.Fragment {
	out := make([]ast.Fragment, 0, len(exprs))
	for _, e := range exprs {
		switch v := e.(type) {
		case ast.Fragment:
			out = append(out, v)
		case *schema.Column:
			out = append(out, ast.Col(v))
		case ast.Aliased:
			out = append(out, ast.Of(ast.Identifier{Name: v.Alias}))
		default:
			out = append(out, ast.Of(ast.Wrap(v)))
		}
	}
	return out
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return out
}
