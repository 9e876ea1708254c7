package query

import (
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// Values maps column keys to values. A value may be an ast.Fragment, which
// is embedded as SQL instead of bound.
type Values map[string]any

// OnConflict is an insert's on conflict clause. DoNothing wins over Set.
type OnConflict struct {
	Target      []*schema.Column
	TargetWhere ast.Fragment
	DoNothing   bool
	Set         Values
	Where       ast.Fragment
}

// InsertPlan describes an insert. Rows and Select are exclusive.
type InsertPlan struct {
	CTEs      []*Subquery
	Table     *schema.Table
	Rows      []Values
	Select    *SelectPlan
	Conflict  *OnConflict
	Returning []SelectedField

	errs []error
}

func (p InsertPlan) Kind() StatementKind { return KindInsert }

func (p InsertPlan) Err() error {
	if len(p.errs) > 0 {
		return p.errs[0]
	}
	return nil
}

// IsUpsert reports whether the insert updates rows on conflict.
func (p InsertPlan) IsUpsert() bool {
	return p.Conflict != nil && !p.Conflict.DoNothing
}

// InsertBuilder builds an InsertPlan.
type InsertBuilder struct {
	plan InsertPlan
}

func Insert(table *schema.Table) InsertBuilder {
	return InsertBuilder{plan: InsertPlan{Table: table}}
}

func (b InsertBuilder) Plan() InsertPlan    { return b.plan }
func (b InsertBuilder) Kind() StatementKind { return KindInsert }
func (b InsertBuilder) Err() error          { return b.plan.Err() }

func (b InsertBuilder) With(ctes ...*Subquery) InsertBuilder {
	b.plan.CTEs = append(clone(b.plan.CTEs), ctes...)
	return b
}

// Values appends rows. Keys must name columns of the table.
func (b InsertBuilder) Values(rows ...Values) InsertBuilder {
	for _, row := range rows {
		for key := range row {
			if _, ok := b.plan.Table.Column(key); !ok {
				b.plan.errs = append(clone(b.plan.errs), &PlanError{
					Op: "insert", Table: b.plan.Table.Name(), Column: key, Err: ErrUnknownColumn,
				})
			}
		}
	}
	b.plan.Rows = append(clone(b.plan.Rows), rows...)
	return b
}

// FromSelect inserts the rows of a select instead of values.
func (b InsertBuilder) FromSelect(sel SelectBuilder) InsertBuilder {
	p := sel.Plan()
	if err := p.Err(); err != nil {
		b.plan.errs = append(clone(b.plan.errs), err)
	}
	b.plan.Select = &p
	return b
}

func (b InsertBuilder) OnConflictDoNothing(target ...*schema.Column) InsertBuilder {
	b.plan.Conflict = &OnConflict{Target: target, DoNothing: true}
	return b
}

// OnConflictDoUpdate turns the insert into an upsert. where, when given,
// filters the rows being updated.
func (b InsertBuilder) OnConflictDoUpdate(target []*schema.Column, set Values, where ...ast.Fragment) InsertBuilder {
	b.plan.Conflict = &OnConflict{Target: target, Set: set, Where: ast.And(where...)}
	return b
}

// Returning adds a returning clause; without fields every column is returned.
func (b InsertBuilder) Returning(fields ...any) InsertBuilder {
	b.plan.Returning = returning(b.plan.Table, fields)
	return b
}

// UpdatePlan describes an update.
type UpdatePlan struct {
	CTEs      []*Subquery
	Table     *schema.Table
	Set       Values
	From      any
	Joins     []Join
	Where     ast.Fragment
	Returning []SelectedField
	OrderBy   []ast.Fragment
	Limit     any

	errs []error
}

func (p UpdatePlan) Kind() StatementKind { return KindUpdate }

func (p UpdatePlan) Err() error {
	if len(p.errs) > 0 {
		return p.errs[0]
	}
	return nil
}

// UpdateBuilder builds an UpdatePlan.
type UpdateBuilder struct {
	plan UpdatePlan
}

func Update(table *schema.Table) UpdateBuilder {
	return UpdateBuilder{plan: UpdatePlan{Table: table}}
}

func (b UpdateBuilder) Plan() UpdatePlan    { return b.plan }
func (b UpdateBuilder) Kind() StatementKind { return KindUpdate }
func (b UpdateBuilder) Err() error          { return b.plan.Err() }

func (b UpdateBuilder) With(ctes ...*Subquery) UpdateBuilder {
	b.plan.CTEs = append(clone(b.plan.CTEs), ctes...)
	return b
}

// Set replaces the new column values.
func (b UpdateBuilder) Set(values Values) UpdateBuilder {
	for key := range values {
		if _, ok := b.plan.Table.Column(key); !ok {
			b.plan.errs = append(clone(b.plan.errs), &PlanError{
				Op: "update", Table: b.plan.Table.Name(), Column: key, Err: ErrUnknownColumn,
			})
		}
	}
	b.plan.Set = values
	return b
}

// From adds an update ... from source.
func (b UpdateBuilder) From(src any) UpdateBuilder {
	b.plan.From = src
	return b
}

func (b UpdateBuilder) Join(kind JoinType, src any, on ast.Fragment) UpdateBuilder {
	alias := SourceAlias(src)
	for _, j := range b.plan.Joins {
		if j.Alias == alias {
			b.plan.errs = append(clone(b.plan.errs), &PlanError{Op: "join", Table: alias, Err: ErrDuplicateAlias})
			return b
		}
	}
	b.plan.Joins = append(clone(b.plan.Joins), Join{Type: kind, Source: src, Alias: alias, On: on})
	return b
}

func (b UpdateBuilder) Where(conds ...ast.Fragment) UpdateBuilder {
	b.plan.Where = ast.And(conds...)
	return b
}

func (b UpdateBuilder) Returning(fields ...any) UpdateBuilder {
	b.plan.Returning = returning(b.plan.Table, fields)
	return b
}

func (b UpdateBuilder) OrderBy(exprs ...any) UpdateBuilder {
	b.plan.OrderBy = fragments(exprs)
	return b
}

func (b UpdateBuilder) Limit(n any) UpdateBuilder {
	b.plan.Limit = n
	return b
}

// DeletePlan describes a delete.
type DeletePlan struct {
	CTEs      []*Subquery
	Table     *schema.Table
	Where     ast.Fragment
	Returning []SelectedField
	OrderBy   []ast.Fragment
	Limit     any

	errs []error
}

func (p DeletePlan) Kind() StatementKind { return KindDelete }

func (p DeletePlan) Err() error {
	if len(p.errs) > 0 {
		return p.errs[0]
	}
	return nil
}

// DeleteBuilder builds a DeletePlan.
type DeleteBuilder struct {
	plan DeletePlan
}

func Delete(table *schema.Table) DeleteBuilder {
	return DeleteBuilder{plan: DeletePlan{Table: table}}
}

func (b DeleteBuilder) Plan() DeletePlan    { return b.plan }
func (b DeleteBuilder) Kind() StatementKind { return KindDelete }
func (b DeleteBuilder) Err() error          { return b.plan.Err() }

func (b DeleteBuilder) With(ctes ...*Subquery) DeleteBuilder {
	b.plan.CTEs = append(clone(b.plan.CTEs), ctes...)
	return b
}

func (b DeleteBuilder) Where(conds ...ast.Fragment) DeleteBuilder {
	b.plan.Where = ast.And(conds...)
	return b
}

// Returning sets the returned columns. Columns of other tables are recorded
// as plan errors.
func (b DeleteBuilder) Returning(fields ...any) DeleteBuilder {
	b.plan.Returning = returning(b.plan.Table, fields)
	for _, f := range b.plan.Returning {
		col, ok := f.Field.(*schema.Column)
		if !ok || col.Table() == nil || b.plan.Table == nil || col.TableName() == b.plan.Table.Name() {
			continue
		}
		b.plan.errs = append(clone(b.plan.errs), &PlanError{
			Op: "returning", Path: f.Path, Table: col.TableName(), Column: col.Name, Err: ErrUnjoinedColumn,
		})
	}
	return b
}

func (b DeleteBuilder) OrderBy(exprs ...any) DeleteBuilder {
	b.plan.OrderBy = fragments(exprs)
	return b
}

func (b DeleteBuilder) Limit(n any) DeleteBuilder {
	b.plan.Limit = n
	return b
}

func returning(t *schema.Table, fields []any) []SelectedField {
	if len(fields) == 0 {
		return tableFields(t, false)
	}
	return Flatten(fields)
}
