package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// =========================================================================
// Insert
// =========================================================================

func TestInsertFillsDefaults(t *testing.T) {
	q := compile(t, query.Insert(articles).
		Values(query.Values{"id": 1, "title": "a"}, query.Values{"title": "b"}).
		Returning(articles.C("id")))

	assert.Equal(t,
		`insert into "articles" ("id", "title", "views", "slug", "revision") `+
			`values (?, ?, ?, ?, null), (null, ?, ?, ?, null) returning "id"`,
		q.SQL)
	assert.Equal(t, []any{1, "a", 0, "generated", "b", 0, "generated"}, q.Params)
}

func TestInsertEmbedsFragments(t *testing.T) {
	q := compile(t, query.Insert(users).Values(query.Values{
		"id":   ast.RawSQL("(select max(id) + 1 from users)"),
		"name": ast.SQL("upper(?)", "ann"),
	}))

	assert.Equal(t,
		`insert into "users" ("id", "name", "cityId") values ((select max(id) + 1 from users), upper(?), null)`,
		q.SQL)
	assert.Equal(t, []any{"ann"}, q.Params)
}

func TestInsertFromSelect(t *testing.T) {
	archive := schema.NewTable("archive",
		schema.Integer("id"),
		schema.Text("name"),
		schema.Integer("cityId"),
	)
	q := compile(t, query.Insert(archive).FromSelect(
		query.Select().From(users).Where(ast.Eq(users.C("cityId"), 2))))

	assert.Equal(t,
		`insert into "archive" ("id", "name", "cityId") select "id", "name", "cityId" from "users" where "users"."cityId" = ?`,
		q.SQL)
}

func TestInsertOnConflictDoNothing(t *testing.T) {
	q := compile(t, query.Insert(memberships).
		Values(query.Values{"userId": 1, "groupId": 2, "role": "member"}).
		OnConflictDoNothing(memberships.C("userId"), memberships.C("groupId")))

	assert.Equal(t,
		`insert into "memberships" ("userId", "groupId", "role") values (?, ?, ?) `+
			`on conflict ("userId", "groupId") do nothing`,
		q.SQL)

	q = compile(t, query.Insert(memberships).
		Values(query.Values{"userId": 1}).
		OnConflictDoNothing())
	assert.Equal(t, `insert into "memberships" ("userId", "groupId", "role") values (?, null, null) on conflict do nothing`, q.SQL)
}

func TestInsertUpsert(t *testing.T) {
	q := compile(t, query.Insert(articles).
		Values(query.Values{"id": 1, "title": "a"}).
		OnConflictDoUpdate([]*schema.Column{articles.C("id")}, query.Values{"title": "a"},
			ast.Lt(articles.C("views"), 100)))

	assert.Equal(t,
		`insert into "articles" ("id", "title", "views", "slug", "revision") values (?, ?, ?, ?, ?) `+
			`on conflict ("id") do update set "title" = ?, "revision" = ? where "articles"."views" < ?`,
		q.SQL)
	assert.Equal(t, []any{1, "a", 0, "generated", 7, "a", 7, 100}, q.Params)
}

func TestInsertErrors(t *testing.T) {
	c := sqliteCompiler()

	_, err := c.Compile(query.Insert(users))
	assert.ErrorIs(t, err, query.ErrInvalidPlan)

	_, err = c.Compile(query.Insert(users).Values(query.Values{"nope": 1}))
	assert.ErrorIs(t, err, query.ErrUnknownColumn)

	_, err = c.Compile(query.Insert(users).Values(query.Values{"id": 1}).
		OnConflictDoUpdate(nil, query.Values{"nope": 1}))
	assert.ErrorIs(t, err, query.ErrUnknownColumn)

	_, err = c.Compile(query.Insert(users).Values(query.Values{"id": 1}).
		OnConflictDoUpdate(nil, query.Values{}))
	assert.ErrorIs(t, err, query.ErrInvalidPlan)
}

func TestInsertEncodesValues(t *testing.T) {
	flags := schema.NewTable("flags", schema.Text("name"), schema.Boolean("enabled"), schema.JSON("meta"))
	q := compile(t, query.Insert(flags).Values(query.Values{
		"name":    "dark",
		"enabled": true,
		"meta":    map[string]any{"since": 3},
	}))

	assert.Equal(t, []any{"dark", true, `{"since":3}`}, q.Params)
	assert.Equal(t, []string{"none", "none", "json"}, q.Typings)
}

// =========================================================================
// Update
// =========================================================================

func TestUpdate(t *testing.T) {
	q := compile(t, query.Update(articles).
		Set(query.Values{"title": "b"}).
		Where(ast.Eq(articles.C("id"), 1)).
		Returning(articles.C("id"), articles.C("revision")))

	assert.Equal(t,
		`update "articles" set "title" = ?, "revision" = ? where "articles"."id" = ? returning "id", "revision"`,
		q.SQL)
	assert.Equal(t, []any{"b", 7, 1}, q.Params)
}

func TestUpdateOrderAndLimit(t *testing.T) {
	q := compile(t, query.Update(users).
		Set(query.Values{"name": "x"}).
		OrderBy(users.C("id")).
		Limit(2))

	assert.Equal(t, `update "users" set "name" = ? order by "users"."id" limit ?`, q.SQL)
	assert.Equal(t, []any{"x", 2}, q.Params)
}

func TestUpdateFromAndJoin(t *testing.T) {
	q := compile(t, query.Update(users).
		Set(query.Values{"name": ast.Col(cities.C("name"))}).
		From(cities).
		Where(ast.Eq(users.C("cityId"), cities.C("id"))))

	assert.Equal(t,
		`update "users" set "name" = "cities"."name" from "cities" where "users"."cityId" = "cities"."id"`,
		q.SQL)

	q = compile(t, query.Update(users).
		Set(query.Values{"name": "y"}).
		From(cities).
		Join(query.LeftJoin, posts, ast.Eq(posts.C("authorId"), users.C("id"))))
	assert.Equal(t,
		`update "users" set "name" = ? from "cities" left join "posts" on "posts"."authorId" = "users"."id"`,
		q.SQL)
}

func TestUpdateErrors(t *testing.T) {
	c := sqliteCompiler()

	_, err := c.Compile(query.Update(users).Set(query.Values{}))
	assert.ErrorIs(t, err, query.ErrInvalidPlan)

	_, err = c.Compile(query.Update(users).Set(query.Values{"nope": 1}))
	assert.ErrorIs(t, err, query.ErrUnknownColumn)

	_, err = c.Compile(query.Update(users).Set(query.Values{"name": "x"}).
		Join(query.InnerJoin, cities, ast.Empty()).
		Join(query.InnerJoin, cities, ast.Empty()))
	assert.ErrorIs(t, err, query.ErrDuplicateAlias)
}

// =========================================================================
// Delete
// =========================================================================

func TestDelete(t *testing.T) {
	q := compile(t, query.Delete(users).Where(ast.Eq(users.C("id"), 1)).Returning())
	assert.Equal(t, `delete from "users" where "users"."id" = ? returning "id", "name", "cityId"`, q.SQL)

	q = compile(t, query.Delete(users).OrderBy(ast.Asc(users.C("id"))).Limit(10))
	assert.Equal(t, `delete from "users" order by "users"."id" asc limit ?`, q.SQL)

	q = compile(t, query.Delete(users))
	assert.Equal(t, `delete from "users"`, q.SQL)
}

func TestDeleteReturningForeignColumn(t *testing.T) {
	c := sqliteCompiler()
	plan := query.Delete(users).Returning(users.C("id"), posts.C("title"))

	_, err := c.BuildDelete(plan.Plan())
	assert.ErrorIs(t, err, query.ErrUnjoinedColumn)
	assert.ErrorContains(t, err, "posts")

	_, err = c.Compile(plan)
	assert.ErrorIs(t, err, query.ErrUnjoinedColumn)
}

func TestDeleteWithCTE(t *testing.T) {
	c := sqliteCompiler()
	stale, err := c.CTE(query.Select(users.C("id")).From(users).Where(ast.IsNull(users.C("cityId"))), "stale")
	require.NoError(t, err)

	q := compile(t, query.Delete(users).With(stale).
		Where(ast.InQuery(users.C("id"), ast.SQL("select ? from ?", stale.C("id"), stale.Table()))))
	assert.Equal(t,
		`with "stale" as (select "id" from "users" where "users"."cityId" is null) `+
			`delete from "users" where "users"."id" in (select "stale"."id" from "stale")`,
		q.SQL)
}
