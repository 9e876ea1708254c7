package engine_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/engine"
)

const (
	createMigrations = `CREATE TABLE IF NOT EXISTS "__relsql_migrations" (id SERIAL PRIMARY KEY, hash text NOT NULL, created_at numeric)`
	lastMigration    = `SELECT id, hash, created_at FROM "__relsql_migrations" ORDER BY created_at DESC LIMIT 1`
	recordMigration  = `INSERT INTO "__relsql_migrations" ("hash", "created_at") VALUES(?, ?)`
)

const initSQL = "CREATE TABLE a (id integer);\n--> statement-breakpoint\nCREATE TABLE b (id integer);\n"

func writeMigrations(t *testing.T, fs afero.Fs) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "migrations/meta/_journal.json", []byte(`{
  "entries": [
    {"idx": 0, "when": 100, "tag": "0000_init", "breakpoints": true},
    {"idx": 1, "when": 200, "tag": "0001_more", "breakpoints": true}
  ]
}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "migrations/0000_init.sql", []byte(initSQL), 0o644))
	require.NoError(t, afero.WriteFile(fs, "migrations/0001_more.sql", []byte("ALTER TABLE a ADD COLUMN name text;"), 0o644))
}

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// =========================================================================
// Reading migrations
// =========================================================================

func TestReadMigrationFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMigrations(t, fs)

	migrations, err := engine.ReadMigrationFiles(fs, "migrations")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, engine.Migration{
		Tag:          "0000_init",
		SQL:          []string{"CREATE TABLE a (id integer);", "CREATE TABLE b (id integer);"},
		FolderMillis: 100,
		Hash:         hashOf(initSQL),
		Breakpoints:  true,
	}, migrations[0])
	assert.Equal(t, []string{"ALTER TABLE a ADD COLUMN name text;"}, migrations[1].SQL)
	assert.Equal(t, int64(200), migrations[1].FolderMillis)
}

func TestReadMigrationFilesErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := engine.ReadMigrationFiles(fs, "migrations")
	assert.ErrorContains(t, err, "read migration journal")

	require.NoError(t, afero.WriteFile(fs, "migrations/meta/_journal.json", []byte(`{"entries": [`), 0o644))
	_, err = engine.ReadMigrationFiles(fs, "migrations")
	assert.ErrorContains(t, err, "parse migration journal")

	require.NoError(t, afero.WriteFile(fs, "migrations/meta/_journal.json",
		[]byte(`{"entries": [{"idx": 0, "when": 1, "tag": "0000_gone"}]}`), 0o644))
	_, err = engine.ReadMigrationFiles(fs, "migrations")
	assert.ErrorContains(t, err, "0000_gone.sql")
}

// =========================================================================
// Applying migrations
// =========================================================================

func TestMigrateAppliesEverythingOnAFreshDatabase(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMigrations(t, fs)

	e, mock := newMockEngine(t)
	mock.ExpectExec(createMigrations).WillReturnResult(ok())
	mock.ExpectQuery(lastMigration).WillReturnRows(sqlmock.NewRows([]string{"id", "hash", "created_at"}))
	mock.ExpectExec("begin").WillReturnResult(ok())
	mock.ExpectExec("CREATE TABLE a (id integer);").WillReturnResult(ok())
	mock.ExpectExec("CREATE TABLE b (id integer);").WillReturnResult(ok())
	mock.ExpectExec(recordMigration).WithArgs(hashOf(initSQL), 100).WillReturnResult(ok())
	mock.ExpectExec("ALTER TABLE a ADD COLUMN name text;").WillReturnResult(ok())
	mock.ExpectExec(recordMigration).WithArgs(sqlmock.AnyArg(), 200).WillReturnResult(ok())
	mock.ExpectExec("commit").WillReturnResult(ok())

	require.NoError(t, e.Session().MigrateDir(context.Background(), fs, "migrations"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateSkipsAppliedMigrations(t *testing.T) {
	e, mock := newMockEngine(t)
	migrations := []engine.Migration{
		{Tag: "0000_init", SQL: []string{"CREATE TABLE a (id integer);"}, FolderMillis: 100, Hash: "h0"},
		{Tag: "0001_more", SQL: []string{"CREATE TABLE c (id integer);"}, FolderMillis: 200, Hash: "h1"},
	}

	mock.ExpectExec(createMigrations).WillReturnResult(ok())
	mock.ExpectQuery(lastMigration).WillReturnRows(
		sqlmock.NewRows([]string{"id", "hash", "created_at"}).AddRow(int64(1), "h0", "100"))
	mock.ExpectExec("begin").WillReturnResult(ok())
	mock.ExpectExec("CREATE TABLE c (id integer);").WillReturnResult(ok())
	mock.ExpectExec(recordMigration).WithArgs("h1", 200).WillReturnResult(ok())
	mock.ExpectExec("commit").WillReturnResult(ok())

	require.NoError(t, e.Session().Migrate(context.Background(), migrations))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackAFailingMigration(t *testing.T) {
	e, mock := newMockEngine(t)
	migrations := []engine.Migration{
		{Tag: "0000_init", SQL: []string{"CREATE TABLE a (id integer);"}, FolderMillis: 100, Hash: "h0"},
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "schema_log" (id SERIAL PRIMARY KEY, hash text NOT NULL, created_at numeric)`).
		WillReturnResult(ok())
	mock.ExpectQuery(`SELECT id, hash, created_at FROM "schema_log" ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hash", "created_at"}))
	mock.ExpectExec("begin").WillReturnResult(ok())
	mock.ExpectExec("CREATE TABLE a (id integer);").WillReturnError(assert.AnError)
	mock.ExpectExec("rollback").WillReturnResult(ok())

	err := e.Session().Migrate(context.Background(), migrations, engine.WithMigrationsTable("schema_log"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "migration 0000_init")
	assert.NoError(t, mock.ExpectationsWereMet())
}
