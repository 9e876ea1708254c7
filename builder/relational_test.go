package builder_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/builder"
	"github.com/Konsultn-Engineering/relsql/dialect"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func usersWithPosts(t *testing.T) *query.RelationPlan {
	t.Helper()
	plan, err := query.FindMany(newRegistry(t), users, query.RelationalConfig{
		Exclude: []string{"cityId"},
		With:    []query.WithRelation{query.Rel("posts")},
	})
	require.NoError(t, err)
	return plan
}

// =========================================================================
// Rendering
// =========================================================================

func TestRelationalGolden(t *testing.T) {
	g := newGolden(t)

	tests := []struct {
		name     string
		compiler *builder.Compiler
		plan     func(t *testing.T) *query.RelationPlan
		params   []any
	}{
		{
			name:     "sqlite_users_with_posts",
			compiler: sqliteCompiler(),
			plan:     usersWithPosts,
		},
		{
			name:     "snake_users_with_posts",
			compiler: snakeCompiler(),
			plan:     usersWithPosts,
		},
		{
			name:     "postgres_users_with_posts",
			compiler: builder.NewCompiler(dialect.NewPostgresDialect(), nil),
			plan:     usersWithPosts,
		},
		{
			name:     "sqlite_employee_with_manager",
			compiler: sqliteCompiler(),
			plan: func(t *testing.T) *query.RelationPlan {
				plan, err := query.FindMany(newRegistry(t), employees, query.RelationalConfig{
					With: []query.WithRelation{query.Rel("manager")},
				})
				require.NoError(t, err)
				return plan
			},
			params: []any{1},
		},
		{
			name:     "sqlite_find_first_users",
			compiler: sqliteCompiler(),
			plan: func(t *testing.T) *query.RelationPlan {
				plan, err := query.FindFirst(newRegistry(t), users, query.RelationalConfig{
					Exclude: []string{"cityId"},
					Where:   ast.Eq(users.C("name"), "ann"),
					OrderBy: []ast.Fragment{ast.Asc(users.C("id"))},
					Extras:  []ast.Aliased{ast.SQL("lower(?)", users.C("name")).As("lowerName")},
					With: []query.WithRelation{query.Rel("posts", query.RelationalConfig{
						OrderBy: []ast.Fragment{ast.Desc(posts.C("id"))},
						Limit:   2,
					})},
				})
				require.NoError(t, err)
				return plan
			},
			params: []any{2, "ann", 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.compiler.CompileRelational(tt.plan(t))
			require.NoError(t, err)

			g.Assert(t, tt.name, []byte(q.SQL))
			if tt.params == nil {
				assert.Empty(t, q.Params)
			} else {
				assert.Equal(t, tt.params, q.Params)
			}
		})
	}
}

// =========================================================================
// Selection tree
// =========================================================================

func TestRelationalSelection(t *testing.T) {
	q, err := sqliteCompiler().CompileRelational(usersWithPosts(t))
	require.NoError(t, err)

	require.Len(t, q.Selection, 3)
	assert.Equal(t, "id", q.Selection[0].Key)
	assert.Equal(t, "name", q.Selection[1].Key)
	assert.False(t, q.Selection[0].IsJSON)

	rel := q.Selection[2]
	assert.Equal(t, "posts", rel.Key)
	assert.True(t, rel.IsJSON)
	assert.Equal(t, "posts", rel.RelationTableKey)
	assert.Equal(t, schema.Many, rel.Relation.Cardinality)
	require.Len(t, rel.Selection, 3)
	assert.Equal(t, []string{"id", "authorId", "title"},
		[]string{rel.Selection[0].Key, rel.Selection[1].Key, rel.Selection[2].Key})
}

func TestRelationalSelectionUsesDatabaseNames(t *testing.T) {
	people := schema.NewTable("people",
		schema.Integer("id"),
		schema.Text("fullName").Named("full_name"),
	)
	plan, err := query.FindMany(schema.NewRegistry().Register(people), people, query.RelationalConfig{})
	require.NoError(t, err)

	q, err := sqliteCompiler().CompileRelational(plan)
	require.NoError(t, err)

	assert.Equal(t, `select "id", "full_name" from "people"`, q.SQL)
	assert.Equal(t, "full_name", q.Selection[1].DBKey)
	assert.Equal(t, "fullName", q.Selection[1].Key)
}

func TestRelationalEmptySelection(t *testing.T) {
	plan, err := query.FindMany(newRegistry(t), users, query.RelationalConfig{Columns: []string{}})
	require.NoError(t, err)

	_, err = sqliteCompiler().CompileRelational(plan)
	assert.ErrorIs(t, err, query.ErrEmptySelection)

	_, err = sqliteCompiler().CompileRelational(nil)
	assert.ErrorIs(t, err, query.ErrInvalidPlan)
}

func TestRelationalOnlyRelations(t *testing.T) {
	plan, err := query.FindMany(newRegistry(t), users, query.RelationalConfig{
		Columns: []string{},
		With: []query.WithRelation{query.Rel("posts", query.RelationalConfig{
			Columns: []string{"title"},
		})},
	})
	require.NoError(t, err)

	q, err := sqliteCompiler().CompileRelational(plan)
	require.NoError(t, err)
	assert.Equal(t,
		`select (select coalesce(json_group_array(json_array("title")), json_array()) as "data" `+
			`from "posts" "users_posts" where "users_posts"."authorId" = "users"."id") as "posts" from "users"`,
		q.SQL)
}

// =========================================================================
// Hand-built plans
// =========================================================================

func managerEdge(plan *query.RelationPlan) query.RelationEdge {
	return query.RelationEdge{
		Key: "manager",
		Relation: &schema.Relation{
			Key:         "manager",
			Cardinality: schema.One,
			Source:      employees,
			Target:      employees,
			Fields:      []*schema.Column{employees.C("managerId")},
			References:  []*schema.Column{employees.C("id")},
		},
		Fields:     []*schema.Column{employees.C("managerId")},
		References: []*schema.Column{employees.C("id")},
		Plan:       plan,
	}
}

func TestRelationalOneRelationLimitsItself(t *testing.T) {
	plan := &query.RelationPlan{
		Table:   employees,
		Columns: employees.Columns(),
		Relations: []query.RelationEdge{
			managerEdge(&query.RelationPlan{Table: employees, Columns: employees.Columns()}),
		},
	}

	q, err := sqliteCompiler().CompileRelational(plan)
	require.NoError(t, err)
	assert.Equal(t,
		`select "id", "name", "managerId", (select json_array("id", "name", "managerId") as "data" `+
			`from (select * from "employee" "employee_manager" where "employee_manager"."id" = "employee"."managerId" limit ?) "employee_manager") `+
			`as "manager" from "employee"`,
		q.SQL)
	assert.Equal(t, []any{1}, q.Params)
}

func TestRelationalOneRelationOverridesLimit(t *testing.T) {
	plan := &query.RelationPlan{
		Table:   employees,
		Columns: employees.Columns(),
		Relations: []query.RelationEdge{
			managerEdge(&query.RelationPlan{Table: employees, Columns: employees.Columns(), Limit: 5}),
		},
	}

	q, err := sqliteCompiler().CompileRelational(plan)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, q.Params)
}

func TestRelationalMalformedEdge(t *testing.T) {
	child := &query.RelationPlan{Table: employees, Columns: employees.Columns()}

	noPlan := managerEdge(nil)
	mismatched := managerEdge(child)
	mismatched.References = nil
	noRelation := managerEdge(child)
	noRelation.Relation = nil

	for name, edge := range map[string]query.RelationEdge{
		"nil plan":        noPlan,
		"mismatched keys": mismatched,
		"nil relation":    noRelation,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := sqliteCompiler().CompileRelational(&query.RelationPlan{
				Table:     employees,
				Columns:   employees.Columns(),
				Relations: []query.RelationEdge{edge},
			})
			assert.ErrorIs(t, err, query.ErrInvalidPlan)
			assert.True(t, query.IsPlanError(err))
		})
	}
}

// =========================================================================
// Composite keys
// =========================================================================

func TestRelationalCompositeKeyCorrelation(t *testing.T) {
	roles := schema.NewTable("roles",
		schema.Integer("userId"),
		schema.Integer("groupId"),
		schema.Text("name"),
	)
	reg := schema.NewRegistry().Register(memberships, roles)
	require.NoError(t, reg.Relate(memberships, schema.HasOne("roleInfo", roles,
		schema.OnFields(memberships.C("userId"), memberships.C("groupId")),
		schema.References(roles.C("userId"), roles.C("groupId")))))

	plan, err := query.FindMany(reg, memberships, query.RelationalConfig{
		With: []query.WithRelation{query.Rel("roleInfo")},
	})
	require.NoError(t, err)

	q, err := sqliteCompiler().CompileRelational(plan)
	require.NoError(t, err)
	assert.Contains(t, q.SQL,
		`from "roles" "memberships_roleInfo" where ("memberships_roleInfo"."userId" = "memberships"."userId" `+
			`and "memberships_roleInfo"."groupId" = "memberships"."groupId") limit ?`)
	assert.Equal(t, []any{1}, q.Params)
}
