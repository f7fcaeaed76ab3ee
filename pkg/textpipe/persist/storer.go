// Package persist implements the durable storage stage.
package persist

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/record"
	"github.com/tidelake/textpipe/pkg/textpipe/store"
)

// StageName identifies the storage stage in logs and errors.
const StageName = "DatabaseStorer"

// Storer persists analyzed records through an injected store connector.
// Every call opens its own transaction scope; on any failure the
// transaction rolls back fully, so no partial state remains. The stage
// never retries internally; retry policy belongs to the caller.
type Storer struct {
	store store.Store
	log   *slog.Logger
}

// NewStorer creates the storage stage around a connector.
func NewStorer(st store.Store, log *slog.Logger) *Storer {
	if log == nil {
		log = slog.Default()
	}
	return &Storer{store: st, log: log}
}

// Name returns the stage name.
func (s *Storer) Name() string { return StageName }

// Process writes one analyzed record atomically and returns the final
// result carrying the assigned storage id. The context bounds the whole
// transaction; deadline expiry rolls back like any other failure.
func (s *Storer) Process(ctx context.Context, in record.AnalyzedText) (record.ProcessedResult, error) {
	s.log.Debug("storage start",
		"stage", StageName,
		"trace_id", in.TraceID,
		"source", in.Source,
	)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return record.ProcessedResult{}, s.fail(in, "open transaction", err)
	}
	defer tx.Rollback()

	storedAt := time.Now()
	id, err := tx.InsertResult(ctx, store.Result{
		Original:       in.Original,
		Cleaned:        in.Content,
		Source:         in.Source,
		Sentiment:      string(in.Sentiment),
		SentimentScore: in.SentimentScore,
		Confidence:     in.Confidence,
		TraceID:        in.TraceID,
		Metadata:       in.Metadata,
		StoredAt:       storedAt,
	})
	if err != nil {
		return record.ProcessedResult{}, s.fail(in, "write record", err)
	}
	if id == "" {
		return record.ProcessedResult{}, s.fail(in, "connector assigned empty id", nil)
	}

	if err := tx.Commit(); err != nil {
		return record.ProcessedResult{}, s.fail(in, "commit", err)
	}

	s.log.Info("record stored",
		"stage", StageName,
		"trace_id", in.TraceID,
		"source", in.Source,
		"storage_id", id,
	)

	return record.ProcessedResult{
		StorageID:      id,
		Content:        in.Content,
		Original:       in.Original,
		Source:         in.Source,
		TraceID:        in.TraceID,
		Metadata:       in.Metadata,
		Sentiment:      in.Sentiment,
		SentimentScore: in.SentimentScore,
		Confidence:     in.Confidence,
		StoredAt:       storedAt,
	}, nil
}

func (s *Storer) fail(in record.AnalyzedText, reason string, cause error) error {
	serr := &pipeerr.StorageError{
		Source:    in.Source,
		Reason:    reason,
		Transient: store.IsTransient(cause),
		TraceID:   in.TraceID,
		Err:       cause,
	}
	s.log.Error("storage failed",
		"stage", StageName,
		"trace_id", in.TraceID,
		"source", in.Source,
		"transient", serr.Transient,
		"error", serr,
	)
	return serr
}
