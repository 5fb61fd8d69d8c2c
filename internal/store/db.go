// Package store persists the ledger in SQLite (default) or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/theirongolddev/grana/internal/model"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configure Open.
type Options struct {
	Driver      string
	DSN         string // sqlite file path or postgres URL
	BusyTimeout time.Duration
}

// DB is an open ledger database.
type DB struct {
	db     *sql.DB
	driver string
}

// Open opens (creating if needed) the database and applies the schema.
//
// SQLite has no row locks, so every transaction begins IMMEDIATE: writers are
// serialized for the whole read-aggregate-write sequence and waiting writers
// block for up to BusyTimeout. PostgreSQL uses SELECT ... FOR UPDATE instead.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case "", DriverSQLite:
		opts.Driver = DriverSQLite
		db, err = openSQLite(opts)
	case DriverPostgres:
		db, err = sql.Open("postgres", opts.DSN)
		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", opts.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s db: %w", opts.Driver, err)
	}

	s := &DB{db: db, driver: opts.Driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func openSQLite(opts Options) (*sql.DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("sqlite database path is empty")
	}
	if dir := filepath.Dir(opts.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}
	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dsn := opts.DSN + "?_txlock=immediate" +
		"&_pragma=busy_timeout(" + strconv.FormatInt(timeout.Milliseconds(), 10) + ")" +
		"&_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)"
	return sql.Open("sqlite", dsn)
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// Driver reports which backend is in use.
func (s *DB) Driver() string { return s.driver }

// Queries returns repository access outside any transaction. Reads through it
// see the last committed state; lock methods are no-ops in this mode.
func (s *DB) Queries() *Queries {
	return &Queries{q: s.db, driver: s.driver}
}

// WithTx runs fn inside one database transaction, committing if fn returns nil
// and rolling back otherwise.
func (s *DB) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Queries{q: tx, driver: s.driver, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the repository methods, bound to either the pool or a transaction.
type Queries struct {
	q      querier
	driver string
	inTx   bool
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.q.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.q.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) row(ctx context.Context, query string, args ...any) *sql.Row {
	return q.q.QueryRowContext(ctx, q.rebind(query), args...)
}

// rebind rewrites ? placeholders to $n for PostgreSQL. Queries in this package
// never contain a literal question mark.
func (q *Queries) rebind(query string) string {
	if q.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// lockClause is appended to row-lock selects.
func (q *Queries) lockClause() string {
	if q.driver == DriverPostgres && q.inTx {
		return " FOR UPDATE"
	}
	return ""
}

// mapErr converts driver uniqueness violations into model.IntegrityError.
func mapErr(err error, constraint string) error {
	if err == nil {
		return nil
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(serr.Error(), "UNIQUE")) {
			return &model.IntegrityError{Constraint: constraint, Err: err}
		}
	}
	var perr *pq.Error
	if errors.As(err, &perr) && perr.Code == "23505" {
		return &model.IntegrityError{Constraint: constraint, Err: err}
	}
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatDate(t time.Time) string { return t.Format(model.DateLayout) }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored date %q: %w", s, err)
	}
	return t, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
