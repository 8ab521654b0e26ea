// Package sqlstore implements store.Store on SQLite or PostgreSQL through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/recipeboxapp/recipebox-server/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

type dialect struct {
	name       string
	driver     string
	goose      string
	migrations string
	// binary is the collation giving case-sensitive byte ordering.
	binary string
}

var (
	sqliteDialect = dialect{
		name:       "sqlite",
		driver:     "sqlite",
		goose:      "sqlite3",
		migrations: "migrations/sqlite",
		binary:     "BINARY",
	}
	postgresDialect = dialect{
		name:       "postgres",
		driver:     "pgx",
		goose:      "postgres",
		migrations: "migrations/postgres",
		binary:     `"C"`,
	}
)

// Store provides SQL-backed persistence for recipebox.
type Store struct {
	db     *sqlx.DB
	d      dialect
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL, applies pending migrations, and returns the store.
// Accepted forms are postgres://..., postgresql://..., sqlite://<path>, and a bare file path.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	d, dsn, err := parseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}

	if d == sqliteDialect {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}

	if err := migrate(ctx, db.DB, d); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store opened", "dialect", d.name)
	return &Store{db: db, d: d, logger: logger}, nil
}

func parseURL(raw string) (dialect, string, error) {
	switch {
	case raw == "":
		return dialect{}, "", errors.New("database url is empty")
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return postgresDialect, raw, nil
	case strings.Contains(raw, "://") && !strings.HasPrefix(raw, "sqlite://"):
		return dialect{}, "", fmt.Errorf("unsupported database url scheme: %s", raw)
	}

	path := strings.TrimPrefix(raw, "sqlite://")
	if path == "" {
		return dialect{}, "", errors.New("sqlite database path is empty")
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", "immediate")
	return sqliteDialect, "file:" + path + "?" + q.Encode(), nil
}

func migrate(ctx context.Context, db *sql.DB, d dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(log.New(io.Discard, "", 0))
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, d.migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect returns "sqlite" or "postgres".
func (s *Store) Dialect() string {
	return s.d.name
}

// q rebinds ? placeholders for the active driver.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// in expands slice arguments for IN (?) clauses and rebinds the result.
func (s *Store) in(query string, args ...any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand in clause: %w", err)
	}
	return s.db.Rebind(query), args, nil
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// translate maps driver constraint failures onto store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrAlreadyExists.WithCause(err)
		case "23503":
			return store.ErrInvalidReference.WithCause(err)
		case "23514", "22001", "22003":
			return store.ErrInvalidInput.WithCause(err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return store.ErrAlreadyExists.WithCause(err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return store.ErrInvalidReference.WithCause(err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return store.ErrInvalidInput.WithCause(err)
	}
	return err
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored timestamp. PostgreSQL TIMESTAMPTZ values arrive
// already converted to RFC3339Nano by database/sql.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
