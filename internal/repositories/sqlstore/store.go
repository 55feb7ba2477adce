// Package sqlstore persists round history in PostgreSQL (lib/pq) or SQLite
// (modernc.org/sqlite). Queries are written with ? placeholders and
// rebound to $n for postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps a *sql.DB with dialect-aware query rebinding.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects and creates the schema if needed. For SQLite, dsn is a file
// path; its directory is created.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty %s dsn", dialect)
	}
	switch dialect {
	case Postgres:
	case SQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		// One writer; also keeps a :memory: database alive across calls.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	s := &DB{db: db, dialect: dialect}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s: %w", dialect, err)
	}
	if dialect == SQLite {
		if err := s.initPragmas(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) initPragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			round_number BIGINT PRIMARY KEY,
			outcome TEXT NOT NULL,
			winner_id TEXT,
			winning_score TEXT,
			decided_at BIGINT,
			recipient TEXT NOT NULL,
			payout TEXT NOT NULL,
			transfer_ref TEXT NOT NULL,
			participants_json TEXT NOT NULL,
			started_at BIGINT,
			ended_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_winner ON rounds(winner_id, round_number);`,
		`CREATE TABLE IF NOT EXISTS game_events (
			event_key TEXT PRIMARY KEY,
			seq BIGINT NOT NULL,
			type TEXT NOT NULL,
			round_number BIGINT NOT NULL,
			participant TEXT NOT NULL,
			amount TEXT NOT NULL,
			clicks BIGINT NOT NULL,
			score TEXT,
			message TEXT NOT NULL,
			occurred_at BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_round ON game_events(round_number, occurred_at);`,
		`CREATE TABLE IF NOT EXISTS payout_attempts (
			attempt_id TEXT PRIMARY KEY,
			idempotency_key TEXT NOT NULL,
			round_number BIGINT NOT NULL,
			recipient TEXT NOT NULL,
			amount TEXT NOT NULL,
			reason TEXT NOT NULL,
			status TEXT NOT NULL,
			reference TEXT NOT NULL,
			error_message TEXT NOT NULL,
			attempted_at BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_round ON payout_attempts(round_number, attempted_at);`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_key ON payout_attempts(idempotency_key);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying pool.
func (s *DB) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (s *DB) rebind(query string) string {
	if s.dialect != Postgres {
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

func (s *DB) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

func (s *DB) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *DB) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func unixNano(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
