// Package memstore is an in-memory store.Store for tests.
package memstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/store"
)

// Store is an in-memory implementation of store.Store. Writes stay
// staged inside the transaction until Commit, so rollback tests can
// observe that nothing leaked.
type Store struct {
	mu      sync.RWMutex
	results map[string]store.Result
	traces  map[string]string // trace id -> result id, mirrors the sqlite unique index

	entropy *ulid.MonotonicEntropy

	// FailInsert, when set, is consulted before every insert; a non-nil
	// return rejects the write. Lets tests inject transient or
	// permanent connector failures.
	FailInsert func(r store.Result) error

	// FailCommit, when set, rejects the commit itself.
	FailCommit func() error
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		results: make(map[string]store.Result),
		traces:  make(map[string]string),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Begin opens a staged transaction scope.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, &store.ConnectorError{Op: "begin", Transient: true, Err: err}
	}
	return &memTx{parent: s}, nil
}

// GetResult retrieves a committed record by id.
func (s *Store) GetResult(ctx context.Context, id string) (store.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[id]
	if !ok {
		return store.Result{}, fmt.Errorf("result %s: %w", id, pipeerr.ErrNotFound)
	}
	return r, nil
}

// Len returns the number of committed records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// BySource returns committed records with the given source label.
func (s *Store) BySource(source string) []store.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Result
	for _, r := range s.results {
		if r.Source == source {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

type memTx struct {
	parent *Store
	staged []store.Result
	done   bool
}

func (t *memTx) InsertResult(ctx context.Context, r store.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &store.ConnectorError{Op: "insert result", Transient: true, Err: err}
	}
	if t.parent.FailInsert != nil {
		if err := t.parent.FailInsert(r); err != nil {
			return "", err
		}
	}

	t.parent.mu.RLock()
	_, dup := t.parent.traces[r.TraceID.String()]
	t.parent.mu.RUnlock()
	if dup {
		return "", &store.ConnectorError{
			Op:  "insert result",
			Err: fmt.Errorf("trace %s: %w", r.TraceID, pipeerr.ErrDuplicate),
		}
	}

	if r.ID == "" {
		t.parent.mu.Lock()
		r.ID = t.parent.newID()
		t.parent.mu.Unlock()
	}
	if r.StoredAt.IsZero() {
		r.StoredAt = time.Now()
	}

	t.staged = append(t.staged, r)
	return r.ID, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true

	if t.parent.FailCommit != nil {
		if err := t.parent.FailCommit(); err != nil {
			t.staged = nil
			return err
		}
	}

	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	for _, r := range t.staged {
		t.parent.results[r.ID] = r
		t.parent.traces[r.TraceID.String()] = r.ID
	}
	t.staged = nil
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.staged = nil
	return nil
}
