// Package store defines the transactional connector the storage stage
// writes through. Implementations live in the sqlite and memstore
// subpackages.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the minimal connector contract: open a transaction scope,
// write a record inside it, commit or roll back. Each stored record is
// retrievable later by the id assigned at insert. Implementations must
// support concurrent transactions; each call opens its own scope.
type Store interface {
	Close() error

	// Begin opens a transaction scope. The context bounds the whole
	// transaction, including the eventual commit.
	Begin(ctx context.Context) (Tx, error)

	// GetResult retrieves a stored record by its assigned id.
	// Returns an error wrapping pipeerr.ErrNotFound when absent.
	GetResult(ctx context.Context, id string) (Result, error)
}

// Tx is one transaction scope. Exactly one of Commit or Rollback must be
// called on every exit path; Rollback after Commit is a no-op.
type Tx interface {
	// InsertResult writes the record and returns the assigned id.
	// The write is not durable until Commit.
	InsertResult(ctx context.Context, r Result) (string, error)

	Commit() error
	Rollback() error
}

// Result is the persisted row shape.
type Result struct {
	ID             string
	Original       string
	Cleaned        string
	Source         string
	Sentiment      string
	SentimentScore float64
	Confidence     float64
	TraceID        uuid.UUID
	Metadata       map[string]string
	StoredAt       time.Time
}
