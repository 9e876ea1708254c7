package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/dialect"
	"github.com/Konsultn-Engineering/relsql/schema"
	"github.com/Konsultn-Engineering/relsql/visitor"
)

// =========================================================================
// Helpers
// =========================================================================

func usersTable() *schema.Table {
	return schema.NewTable("users",
		schema.Integer("id").PrimaryKey(),
		schema.Text("name").NotNull(),
		schema.Timestamp("createdAt"),
	)
}

func render(t *testing.T, f ast.Fragment) visitor.Query {
	t.Helper()
	q, err := visitor.Render(f, dialect.NewSQLiteDialect(), nil)
	require.NoError(t, err)
	return q
}

// =========================================================================
// Template
// =========================================================================

func TestSQLTemplate(t *testing.T) {
	users := usersTable()

	q := render(t, ast.SQL("? = ?", users.C("id"), 5))
	assert.Equal(t, `"users"."id" = ?`, q.SQL)
	assert.Equal(t, []any{5}, q.Params)
	assert.Equal(t, []string{"none"}, q.Typings)
}

func TestSQLTemplateEscapedMarker(t *testing.T) {
	q := render(t, ast.SQL("select '??' from ?", usersTable()))
	assert.Equal(t, `select '?' from "users"`, q.SQL)
	assert.Empty(t, q.Params)
}

func TestSQLTemplateArgumentMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { ast.SQL("? and ?", 1) })
	assert.Panics(t, func() { ast.SQL("?", 1, 2) })
}

func TestSQLTemplateNestsFragments(t *testing.T) {
	users := usersTable()
	inner := ast.SQL("lower(?)", users.C("name"))

	q := render(t, ast.SQL("? like ?", inner, "a%"))
	assert.Equal(t, `lower("users"."name") like ?`, q.SQL)
	assert.Equal(t, []any{"a%"}, q.Params)
}

func TestFromTable(t *testing.T) {
	users := usersTable()

	assert.Equal(t, `"users"`, render(t, ast.FromTable(users)).SQL)
	assert.Equal(t, `"users"`, render(t, ast.FromTable(users.As("users"))).SQL)
	assert.Equal(t, `"users" "u"`, render(t, ast.FromTable(users.As("u"))).SQL)
	assert.Equal(t, `"auth"."users"`, render(t, ast.FromTable(users.InSchema("auth"))).SQL)
}

func TestFragmentIsImmutable(t *testing.T) {
	base := ast.RawSQL("a")
	extended := base.Append(ast.Raw{Text: "b"})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, extended.Len())
	assert.True(t, ast.RawSQL("x").If(false).IsEmpty())
	assert.False(t, ast.RawSQL("x").If(true).IsEmpty())
}

// =========================================================================
// Operators
// =========================================================================

func TestComparisonUsesColumnEncoder(t *testing.T) {
	users := usersTable()

	q := render(t, ast.Eq(users.C("createdAt"), "2024-01-02T03:04:05Z"))
	assert.Equal(t, `"users"."createdAt" = ?`, q.SQL)
	assert.Equal(t, []string{"timestamp"}, q.Typings)
}

func TestComparisonOperators(t *testing.T) {
	users := usersTable()
	id := users.C("id")

	cases := []struct {
		want string
		f    ast.Fragment
	}{
		{`"users"."id" <> ?`, ast.Ne(id, 1)},
		{`"users"."id" > ?`, ast.Gt(id, 1)},
		{`"users"."id" >= ?`, ast.Gte(id, 1)},
		{`"users"."id" < ?`, ast.Lt(id, 1)},
		{`"users"."id" <= ?`, ast.Lte(id, 1)},
		{`"users"."name" like ?`, ast.Like(users.C("name"), "a%")},
		{`"users"."name" not like ?`, ast.NotLike(users.C("name"), "a%")},
		{`"users"."id" is null`, ast.IsNull(id)},
		{`"users"."id" is not null`, ast.IsNotNull(id)},
		{`"users"."id" between ? and ?`, ast.Between(id, 1, 9)},
		{`"users"."id" not between ? and ?`, ast.NotBetween(id, 1, 9)},
		{`"users"."id" desc`, ast.Desc(id)},
		{`not "users"."id" is null`, ast.Not(ast.IsNull(id))},
		{`"users"."id" = "users"."id"`, ast.Eq(id, id)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, render(t, tc.f).SQL)
	}
}

func TestLogicalOperators(t *testing.T) {
	users := usersTable()
	a := ast.Eq(users.C("id"), 1)
	b := ast.Eq(users.C("name"), "x")

	assert.Equal(t, `"users"."id" = ?`, render(t, ast.And(a)).SQL)
	assert.Equal(t, `("users"."id" = ? and "users"."name" = ?)`, render(t, ast.And(a, b)).SQL)
	assert.Equal(t, `("users"."id" = ? or "users"."name" = ?)`, render(t, ast.Or(a, b)).SQL)
	assert.Equal(t, `"users"."id" = ?`, render(t, ast.And(ast.Empty(), a, ast.Empty())).SQL)
	assert.True(t, ast.And().IsEmpty())
	assert.True(t, ast.Or(ast.Empty()).IsEmpty())

	q := render(t, ast.Or(ast.And(a, b), ast.IsNull(users.C("name"))))
	assert.Equal(t, `(("users"."id" = ? and "users"."name" = ?) or "users"."name" is null)`, q.SQL)
	assert.Equal(t, []any{1, "x"}, q.Params)
}

func TestMembership(t *testing.T) {
	users := usersTable()
	id := users.C("id")

	q := render(t, ast.In(id, []any{1, 2, 3}))
	assert.Equal(t, `"users"."id" in (?, ?, ?)`, q.SQL)
	assert.Equal(t, []any{1, 2, 3}, q.Params)

	assert.Equal(t, "false", render(t, ast.In(id, nil)).SQL)
	assert.Equal(t, "true", render(t, ast.NotIn(id, []any{})).SQL)
	assert.Equal(t, `"users"."id" not in (?)`, render(t, ast.NotIn(id, []any{7})).SQL)
}

func TestSubqueryOperators(t *testing.T) {
	users := usersTable()
	sub := ast.RawSQL("select 1")

	assert.Equal(t, "exists (select 1)", render(t, ast.Exists(sub)).SQL)
	assert.Equal(t, "not exists (select 1)", render(t, ast.NotExists(sub)).SQL)
	assert.Equal(t, `"users"."id" in (select 1)`, render(t, ast.InQuery(users.C("id"), sub)).SQL)
}

func TestAggregateDecoders(t *testing.T) {
	users := usersTable()

	assert.Equal(t, "count(*)", render(t, ast.Count()).SQL)
	assert.IsType(t, schema.IntegerCodec{}, ast.Count().Decoder())
	assert.IsType(t, schema.RealCodec{}, ast.Avg(users.C("id")).Decoder())
	assert.Equal(t, users.C("id"), ast.Max(users.C("id")).Decoder())
	assert.IsType(t, schema.PassthroughCodec{}, ast.RawSQL("1").Decoder())
}

// =========================================================================
// Rewrites
// =========================================================================

func TestBareColumnsLeavesNestedFragments(t *testing.T) {
	users := usersTable()
	nested := ast.SQL("(select ?)", ast.Eq(users.C("id"), users.C("id")))
	f := ast.SQL("? + ?", users.C("id"), nested)

	assert.Equal(t, `"id" + (select "users"."id" = "users"."id")`, render(t, ast.BareColumns(f)).SQL)
	assert.Equal(t, `"id" + (select "id" = "id")`, render(t, ast.BareAll(f)).SQL)
}

func TestRetargetColumns(t *testing.T) {
	users := usersTable()
	alias := users.As("u")
	f := ast.And(ast.Eq(users.C("id"), 1), ast.IsNotNull(users.C("name")))

	q := render(t, ast.RetargetColumns(f, users, alias))
	assert.Equal(t, `("u"."id" = ? and "u"."name" is not null)`, q.SQL)
	assert.Equal(t, `("users"."id" = ? and "users"."name" is not null)`, render(t, f).SQL)
}
