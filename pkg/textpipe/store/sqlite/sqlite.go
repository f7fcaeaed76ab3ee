// Package sqlite implements the store connector on SQLite.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/store"
)

const resultsTable = "processed_results"

// Store implements store.Store on a SQLite database.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var _ store.Store = (*Store)(nil)

// Open opens a SQLite database with WAL mode enabled and creates the
// schema if needed. WAL keeps concurrent transactions from starving
// each other on single-row writes.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS processed_results (
	id TEXT PRIMARY KEY,
	original_content TEXT NOT NULL,
	cleaned_content TEXT NOT NULL,
	source TEXT,
	sentiment TEXT NOT NULL,
	sentiment_score REAL NOT NULL,
	confidence REAL NOT NULL DEFAULT 1.0,
	trace_id TEXT UNIQUE NOT NULL,
	metadata TEXT,
	stored_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_source ON processed_results(source);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Begin opens a transaction scope.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin", err)
	}
	return &sqliteTx{tx: tx, newID: s.newID}, nil
}

// GetResult retrieves a stored record by its assigned id.
func (s *Store) GetResult(ctx context.Context, id string) (store.Result, error) {
	query, args, err := sq.Select(
		"id", "original_content", "cleaned_content", "source",
		"sentiment", "sentiment_score", "confidence",
		"trace_id", "metadata", "stored_at",
	).From(resultsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return store.Result{}, classify("build query", err)
	}

	var (
		r        store.Result
		traceID  string
		metadata sql.NullString
		storedAt string
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&r.ID, &r.Original, &r.Cleaned, &r.Source,
		&r.Sentiment, &r.SentimentScore, &r.Confidence,
		&traceID, &metadata, &storedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Result{}, fmt.Errorf("result %s: %w", id, pipeerr.ErrNotFound)
	}
	if err != nil {
		return store.Result{}, classify("get result", err)
	}

	if r.TraceID, err = uuid.Parse(traceID); err != nil {
		return store.Result{}, classify("parse trace id", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &r.Metadata); err != nil {
			return store.Result{}, classify("decode metadata", err)
		}
	}
	if r.StoredAt, err = time.Parse(time.RFC3339Nano, storedAt); err != nil {
		return store.Result{}, classify("parse stored_at", err)
	}

	return r, nil
}

// newID assigns a fresh ULID. The entropy source is monotonic, so ids
// stay unique under concurrent inserts.
func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

type sqliteTx struct {
	tx    *sql.Tx
	newID func() string
}

// InsertResult writes the record and returns the assigned id.
func (t *sqliteTx) InsertResult(ctx context.Context, r store.Result) (string, error) {
	if r.ID == "" {
		r.ID = t.newID()
	}
	if r.StoredAt.IsZero() {
		r.StoredAt = time.Now()
	}

	var metadata any
	if len(r.Metadata) > 0 {
		encoded, err := json.Marshal(r.Metadata)
		if err != nil {
			return "", &store.ConnectorError{Op: "encode metadata", Err: err}
		}
		metadata = string(encoded)
	}

	query, args, err := sq.Insert(resultsTable).Columns(
		"id", "original_content", "cleaned_content", "source",
		"sentiment", "sentiment_score", "confidence",
		"trace_id", "metadata", "stored_at",
	).Values(
		r.ID, r.Original, r.Cleaned, r.Source,
		r.Sentiment, r.SentimentScore, r.Confidence,
		r.TraceID.String(), metadata, r.StoredAt.Format(time.RFC3339Nano),
	).ToSql()
	if err != nil {
		return "", &store.ConnectorError{Op: "build insert", Err: err}
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return "", classify("insert result", err)
	}

	return r.ID, nil
}

func (t *sqliteTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

// Rollback discards the transaction. Called after Commit it is a no-op,
// so defer tx.Rollback() is safe on every path.
func (t *sqliteTx) Rollback() error {
	err := t.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return classify("rollback", err)
}

// classify wraps a driver error with its retriability. Busy, locked,
// I/O, and full conditions can clear on their own; constraint and type
// mismatch failures are bound to the record and never will.
func classify(op string, err error) error {
	return &store.ConnectorError{Op: op, Transient: transient(err), Err: err}
}

func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
		return true
	default:
		return false
	}
}
