package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type migration struct {
	version  int
	name     string
	sqlite   string
	postgres string
}

// Migrations run in order inside a transaction. Append only; never edit a
// shipped entry, because applied versions are recorded in schema_migrations.
var migrations = []migration{
	{version: 1, name: "base schema", sqlite: schemaSQLite, postgres: schemaPostgres},
}

const migrationsTableSQLite = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL
)`

const migrationsTablePostgres = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL
)`

func (s *Store) applyMigrations(ctx context.Context) error {
	table := migrationsTableSQLite
	if s.dialect == dialectPostgres {
		table = migrationsTablePostgres
	}
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		ddl := m.sqlite
		if s.dialect == dialectPostgres {
			ddl = m.postgres
		}
		if err := s.runMigration(ctx, m, ddl); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (s *Store) runMigration(ctx context.Context, m migration, ddl string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// pgx runs the extended protocol, which rejects multi-statement strings,
	// so execute the DDL one statement at a time on both dialects.
	for _, stmt := range splitStatements(ddl) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %q: %w", firstLine(stmt), err)
		}
	}
	insert := tx.Rebind("INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)")
	if _, err := tx.ExecContext(ctx, insert, m.version, m.name, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// splitStatements splits DDL on semicolons at line ends. None of our schema
// statements embed semicolons, so no real parsing is needed.
func splitStatements(ddl string) []string {
	var out []string
	for _, part := range strings.Split(ddl, ";") {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
