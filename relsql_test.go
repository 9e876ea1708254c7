package relsql_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql"
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/connector"
	"github.com/Konsultn-Engineering/relsql/engine"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

var (
	authors = schema.NewTable("authors",
		schema.Integer("id").PrimaryKey(),
		schema.Text("fullName").NotNull(),
	)
	books = schema.NewTable("books",
		schema.Integer("id").PrimaryKey(),
		schema.Integer("authorId"),
		schema.Text("title"),
	)
)

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry().Register(authors, books)
	require.NoError(t, reg.Relate(authors, schema.HasMany("books", books)))
	require.NoError(t, reg.Relate(books, schema.HasOne("author", authors,
		schema.OnFields(books.C("authorId")), schema.References(authors.C("id")))))
	return reg
}

func writeMigrations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "meta"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta", "_journal.json"), []byte(`{
  "entries": [{"idx": 0, "when": 1700000000000, "tag": "0000_library", "breakpoints": true}]
}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0000_library.sql"), []byte(
		`CREATE TABLE "authors" ("id" integer primary key, "full_name" text not null);
--> statement-breakpoint
CREATE TABLE "books" ("id" integer primary key, "author_id" integer, "title" text);
`), 0o644))
	return dir
}

func TestOpenMigrateAndQuery(t *testing.T) {
	ctx := context.Background()
	db, err := relsql.Open(ctx, connector.Config{Driver: "sqlite", Casing: schema.CasingSnake},
		relsql.WithSchema(newRegistry(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, "sqlite", db.Connection().Dialect().Name())
	assert.Equal(t, connector.DefaultMigrationsTable, db.Config().MigrationsTable)

	dir := writeMigrations(t)
	require.NoError(t, db.Migrate(ctx, dir))
	require.NoError(t, db.Migrate(ctx, dir))

	s := db.Session()
	_, err = s.Create(ctx, authors, query.Values{"id": 1, "fullName": "Ursula"})
	require.NoError(t, err)
	_, err = s.Create(ctx, books,
		query.Values{"id": 1, "authorId": 1, "title": "Lathe"},
		query.Values{"id": 2, "authorId": 1, "title": "Dispossessed"},
	)
	require.NoError(t, err)

	rows, err := s.FindMany(ctx, authors, query.RelationalConfig{
		With: []query.WithRelation{query.Rel("books", query.RelationalConfig{
			Columns: []string{"title"},
			OrderBy: []ast.Fragment{ast.Asc(books.C("id"))},
		})},
	})
	require.NoError(t, err)
	assert.Equal(t, []engine.Row{{
		"id": int64(1), "fullName": "Ursula",
		"books": []engine.Row{{"title": "Lathe"}, {"title": "Dispossessed"}},
	}}, rows)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: sqlite\nstatement_cache_size: 16\n"), 0o600))

	db, err := relsql.OpenFile(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.Equal(t, 16, db.Config().StatementCacheSize)
	require.NoError(t, db.Connection().Health(context.Background()))
}

func TestOpenErrors(t *testing.T) {
	_, err := relsql.Open(context.Background(), connector.Config{Driver: "oracle"})
	assert.ErrorContains(t, err, `relsql: open oracle: connector: unknown driver "oracle"`)

	_, err = relsql.OpenFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

// =========================================================================
// Cluster
// =========================================================================

func seedAuthor(t *testing.T, path, name string) {
	t.Helper()
	ctx := context.Background()
	db, err := relsql.Open(ctx, connector.Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Session().Exec(ctx, `create table "authors" ("id" integer primary key, "fullName" text not null)`)
	require.NoError(t, err)
	_, err = db.Session().Create(ctx, authors, query.Values{"id": 1, "fullName": name})
	require.NoError(t, err)
}

func TestOpenClusterRoutesReads(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	primaryPath := filepath.Join(dir, "primary.db")
	replicaPath := filepath.Join(dir, "replica.db")
	seedAuthor(t, primaryPath, "on primary")
	seedAuthor(t, replicaPath, "on replica")

	db, err := relsql.OpenCluster(ctx, connector.ClusterConfig{
		Primary:      connector.Config{Driver: "sqlite", Path: primaryPath},
		Replicas:     []connector.Config{{Driver: "sqlite", Path: replicaPath}},
		ReadStrategy: "round_robin",
	}, relsql.WithSchema(newRegistry(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NotNil(t, db.Cluster())
	require.Len(t, db.Cluster().Replicas(), 1)
	require.NoError(t, db.Cluster().Health(ctx))
	assert.Same(t, db.Cluster().Write(), db.Connection())

	read, err := db.Read().FindFirst(ctx, authors, query.RelationalConfig{})
	require.NoError(t, err)
	assert.Equal(t, "on replica", read["fullName"])

	written, err := db.Session().FindFirst(ctx, authors, query.RelationalConfig{})
	require.NoError(t, err)
	assert.Equal(t, "on primary", written["fullName"])
}

func TestReadWithoutCluster(t *testing.T) {
	db, err := relsql.Open(context.Background(), connector.Config{Driver: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Nil(t, db.Cluster())
	assert.Same(t, db.Engine, db.Read().Engine())
}

func TestOpenClusterErrors(t *testing.T) {
	_, err := relsql.OpenCluster(context.Background(), connector.ClusterConfig{
		Primary:      connector.Config{Driver: "sqlite"},
		ReadStrategy: "nearest",
	})
	assert.ErrorContains(t, err, "relsql: open cluster: invalid read strategy: nearest")
}
