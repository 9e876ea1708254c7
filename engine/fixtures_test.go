package engine_test

import (
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/database"
	"github.com/Konsultn-Engineering/relsql/engine"
	"github.com/Konsultn-Engineering/relsql/schema"
)

var (
	users = schema.NewTable("users",
		schema.Integer("id").PrimaryKey(),
		schema.Text("name").NotNull(),
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
	notes = schema.NewTable("notes",
		schema.Integer("id").PrimaryKey(),
		schema.Text("body"),
		schema.Timestamp("deletedAt"),
	)
)

func newRegistry(t testing.TB) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry().Register(users, cities, posts, employees, notes)
	require.NoError(t, reg.Relate(users, schema.HasMany("posts", posts)))
	require.NoError(t, reg.Relate(posts, schema.HasOne("author", users,
		schema.OnFields(posts.C("authorId")), schema.References(users.C("id")))))
	require.NoError(t, reg.Relate(employees, schema.HasOne("manager", employees,
		schema.OnFields(employees.C("managerId")), schema.References(employees.C("id")))))
	return reg
}

// newMockEngine returns an engine over sqlmock matching statements
// verbatim. Statement caching is off unless opts turn it on.
func newMockEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]engine.Option{
		engine.WithStatementCache(0),
		engine.WithRegistry(newRegistry(t)),
	}, opts...)
	e, err := engine.New(database.NewSqlDatabase(db), opts...)
	require.NoError(t, err)
	return e, mock
}

func ok() driver.Result { return sqlmock.NewResult(0, 0) }
