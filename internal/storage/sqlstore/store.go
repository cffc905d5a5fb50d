// Package sqlstore implements the storage interface on sqlx, speaking
// both PostgreSQL (pgx) and SQLite (modernc, pure Go). Queries are
// written once with ? placeholders and rebound per dialect.
package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"

	// Database drivers. pgx registers as "pgx", modernc as "sqlite".
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc's driver name is not in sqlx's built-in bind table.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)

	factory.RegisterBackend(storage.BackendPostgres, func(ctx context.Context, conn string, opts factory.Options) (storage.Storage, error) {
		return New(ctx, conn, opts)
	})
	factory.RegisterBackend(storage.BackendSQLite, func(ctx context.Context, conn string, opts factory.Options) (storage.Storage, error) {
		return New(ctx, conn, opts)
	})
}

// Store is the sqlx-backed implementation of storage.Storage.
type Store struct {
	queries
	db      *sqlx.DB
	dialect dialect
	closed  atomic.Bool
}

// Compile-time interface checks.
var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Tx      = (*txQueries)(nil)
)

// New opens a database and applies pending migrations. The backend is
// chosen from the connection string shape: postgres:// URLs use pgx,
// anything else is treated as a SQLite path (":memory:" included).
func New(ctx context.Context, conn string, opts factory.Options) (*Store, error) {
	conn = strings.TrimSpace(conn)
	if conn == "" {
		return nil, fmt.Errorf("empty connection string")
	}

	var (
		db  *sqlx.DB
		d   dialect
		err error
	)
	switch storage.DetectBackend(conn) {
	case storage.BackendPostgres:
		d = dialectPostgres
		db, err = sqlx.ConnectContext(ctx, "pgx", conn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	default:
		d = dialectSQLite
		memory := conn == ":memory:" || strings.Contains(conn, "mode=memory")
		dsn := conn
		if !strings.HasPrefix(conn, "file:") && conn != ":memory:" {
			dsn = storage.SQLiteConnString(conn, opts.ReadOnly)
		}
		db, err = sqlx.ConnectContext(ctx, "sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if memory || conn == ":memory:" {
			// In-memory databases exist per connection; the pool must
			// never hand out a second one.
			db.SetMaxOpenConns(1)
			if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
			}
		} else {
			db.SetMaxOpenConns(4)
			if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to enable WAL: %w", err)
			}
		}
	}

	s := &Store{db: db, dialect: d}
	s.queries = queries{ext: db, dialect: d}

	if !opts.SkipMigrations && !opts.ReadOnly {
		if err := s.applyMigrations(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return s, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return fmt.Errorf("store is closed")
	}
	return s.db.PingContext(ctx)
}

// Close releases the connection pool. Safe to call more than once.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// txQueries is the transactional view handed to RunInTransaction callbacks.
type txQueries struct {
	queries
}

// RunInTransaction executes fn inside one database transaction.
//
// Lifecycle: begin, run fn with a Tx view bound to the transaction,
// commit on nil return. On error or panic the transaction is rolled back;
// panics are re-raised after rollback.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.closed.Load() {
		return fmt.Errorf("store is closed")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	view := &txQueries{queries{ext: tx, dialect: s.dialect}}
	if err := fn(view); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// dialect selects DDL flavor. Placeholder rebinding is handled by sqlx
// from the driver name, so queries only branch on dialect for schema.
type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// queries implements storage.Queries against either a *sqlx.DB or a
// *sqlx.Tx. All entity methods live in the per-entity files.
type queries struct {
	ext     sqlx.ExtContext
	dialect dialect
}

// rebind converts ?-style placeholders to the driver's style.
func (q *queries) rebind(query string) string {
	return q.ext.Rebind(query)
}

// get runs a single-row query into dest, translating sql.ErrNoRows.
func (q *queries) get(ctx context.Context, dest interface{}, op, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, q.ext, dest, q.rebind(query), args...)
	return wrapDBError(op, err)
}

// list runs a multi-row query into dest.
func (q *queries) list(ctx context.Context, dest interface{}, op, query string, args ...interface{}) error {
	err := sqlx.SelectContext(ctx, q.ext, dest, q.rebind(query), args...)
	return wrapDBError(op, err)
}

// exec runs a statement, translating constraint violations.
func (q *queries) exec(ctx context.Context, op, query string, args ...interface{}) error {
	_, err := q.ext.ExecContext(ctx, q.rebind(query), args...)
	return wrapDBError(op, err)
}

// execAffecting runs a statement and returns ErrNotFound when no rows
// were touched. Used by updates and deletes addressed by ID.
func (q *queries) execAffecting(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := q.ext.ExecContext(ctx, q.rebind(query), args...)
	if err != nil {
		return wrapDBError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}
