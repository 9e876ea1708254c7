package builder_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/builder"
	"github.com/Konsultn-Engineering/relsql/cache"
	"github.com/Konsultn-Engineering/relsql/dialect"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
	"github.com/Konsultn-Engineering/relsql/visitor"
)

// =========================================================================
// Test Schema
// =========================================================================

var (
	users = schema.NewTable("users",
		schema.Integer("id").PrimaryKey(),
		schema.Text("name"),
		schema.Integer("cityId"),
	)
	cities = schema.NewTable("cities",
		schema.Integer("id").PrimaryKey(),
		schema.Text("name"),
	)
	posts = schema.NewTable("posts",
		schema.Integer("id").PrimaryKey(),
		schema.Integer("authorId"),
		schema.Text("title"),
	)
	employees = schema.NewTable("employee",
		schema.Integer("id").PrimaryKey(),
		schema.Text("name"),
		schema.Integer("managerId"),
	)
	memberships = schema.NewTable("memberships",
		schema.Integer("userId"),
		schema.Integer("groupId"),
		schema.Text("role"),
	)
	articles = schema.NewTable("articles",
		schema.Integer("id").PrimaryKey(),
		schema.Text("title"),
		schema.Integer("views").Default(0),
		schema.Text("slug").DefaultFn(func() any { return "generated" }),
		schema.Integer("revision").OnUpdate(func() any { return 7 }),
		schema.Text("search").GeneratedAlways(),
	)
	wallets = schema.NewTable("wallets",
		schema.Integer("id").PrimaryKey(),
		schema.BigInt("balance"),
	)
)

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry().Register(users, posts, employees)
	require.NoError(t, reg.Relate(users, schema.HasMany("posts", posts)))
	require.NoError(t, reg.Relate(posts, schema.HasOne("author", users,
		schema.OnFields(posts.C("authorId")), schema.References(users.C("id")))))
	require.NoError(t, reg.Relate(employees, schema.HasOne("manager", employees,
		schema.OnFields(employees.C("managerId")), schema.References(employees.C("id")))))
	return reg
}

// =========================================================================
// Helpers
// =========================================================================

func sqliteCompiler() *builder.Compiler {
	return builder.NewCompiler(dialect.NewSQLiteDialect(), nil)
}

func compile(t *testing.T, plan query.Plan) visitor.Query {
	t.Helper()
	q, err := sqliteCompiler().Compile(plan)
	require.NoError(t, err)
	assertAligned(t, q)
	return q
}

// assertAligned checks that every bind marker has exactly one parameter.
func assertAligned(t *testing.T, q visitor.Query) {
	t.Helper()
	assert.Equal(t, strings.Count(q.SQL, "?"), len(q.Params), "markers vs params in %s", q.SQL)
	assert.Equal(t, len(q.Params), len(q.Typings))
}

func snakeCompiler() *builder.Compiler {
	return builder.NewCompiler(dialect.NewSQLiteDialect(), cache.NewCasingCache(schema.CasingSnake))
}
