package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/Konsultn-Engineering/relsql/schema"
)

// DefaultMigrationsTable records applied migrations.
const DefaultMigrationsTable = "__relsql_migrations"

// StatementBreakpoint separates statements inside a migration file.
const StatementBreakpoint = "--> statement-breakpoint"

// Migration is one migration file split into statements.
type Migration struct {
	Tag          string
	SQL          []string
	FolderMillis int64
	Hash         string
	Breakpoints  bool
}

type journal struct {
	Entries []journalEntry `json:"entries"`
}

type journalEntry struct {
	Idx         int    `json:"idx"`
	When        int64  `json:"when"`
	Tag         string `json:"tag"`
	Breakpoints bool   `json:"breakpoints"`
}

// ReadMigrationFiles reads dir/meta/_journal.json and the <tag>.sql file of
// every journal entry, in journal order.
func ReadMigrationFiles(fs afero.Fs, dir string) ([]Migration, error) {
	journalPath := path.Join(dir, "meta", "_journal.json")
	raw, err := afero.ReadFile(fs, journalPath)
	if err != nil {
		return nil, fmt.Errorf("engine: read migration journal %s: %w", journalPath, err)
	}
	var j journal
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("engine: parse migration journal %s: %w", journalPath, err)
	}

	migrations := make([]Migration, 0, len(j.Entries))
	for _, entry := range j.Entries {
		file := path.Join(dir, entry.Tag+".sql")
		content, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, fmt.Errorf("engine: read migration %s: %w", file, err)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			Tag:          entry.Tag,
			SQL:          splitStatements(string(content)),
			FolderMillis: entry.When,
			Hash:         hex.EncodeToString(sum[:]),
			Breakpoints:  entry.Breakpoints,
		})
	}
	return migrations, nil
}

func splitStatements(content string) []string {
	parts := strings.Split(content, StatementBreakpoint)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MigrateOption configures Migrate.
type MigrateOption func(*migrateConfig)

type migrateConfig struct {
	table string
}

// WithMigrationsTable overrides DefaultMigrationsTable.
func WithMigrationsTable(name string) MigrateOption {
	return func(c *migrateConfig) {
		if name != "" {
			c.table = name
		}
	}
}

// Migrate applies, in one transaction, every migration created after the
// most recently recorded one.
func (s *Session) Migrate(ctx context.Context, migrations []Migration, opts ...MigrateOption) error {
	cfg := migrateConfig{table: DefaultMigrationsTable}
	for _, opt := range opts {
		opt(&cfg)
	}
	table := s.engine.dialect.QuoteIdentifier(cfg.table)

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id SERIAL PRIMARY KEY, hash text NOT NULL, created_at numeric)`, table)
	if _, err := s.Exec(ctx, create); err != nil {
		return err
	}

	rows, err := s.queryContext(ctx,
		fmt.Sprintf(`SELECT id, hash, created_at FROM %s ORDER BY created_at DESC LIMIT 1`, table), nil)
	if err != nil {
		return err
	}
	last, err := collectRows(rows)
	if err != nil {
		return fmt.Errorf("engine: read last migration: %w", err)
	}

	var lastMillis int64
	applied := len(last) > 0
	if applied && last[0][2] != nil {
		v, err := schema.IntegerCodec{}.FromDriver(last[0][2])
		if err != nil {
			return fmt.Errorf("engine: last migration created_at: %w", err)
		}
		lastMillis = v.(int64)
	}

	insert := fmt.Sprintf(`INSERT INTO %s ("hash", "created_at") VALUES(%s, %s)`,
		table, s.engine.dialect.Placeholder(1), s.engine.dialect.Placeholder(2))

	return s.Transaction(ctx, func(tx *Tx) error {
		for _, m := range migrations {
			if applied && m.FolderMillis <= lastMillis {
				continue
			}
			for _, stmt := range m.SQL {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("engine: migration %s: %w", m.Tag, err)
				}
			}
			if _, err := tx.Exec(ctx, insert, m.Hash, m.FolderMillis); err != nil {
				return err
			}
			s.engine.logger.InfoContext(ctx, "migration applied", "tag", m.Tag, "hash", m.Hash)
		}
		return nil
	})
}

// MigrateDir reads the migrations under dir and applies them.
func (s *Session) MigrateDir(ctx context.Context, fs afero.Fs, dir string, opts ...MigrateOption) error {
	migrations, err := ReadMigrationFiles(fs, dir)
	if err != nil {
		return err
	}
	return s.Migrate(ctx, migrations, opts...)
}
