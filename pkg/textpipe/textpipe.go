// Package textpipe assembles the standard three-stage text pipeline:
// cleaning, sentiment scoring, durable storage.
package textpipe

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidelake/textpipe/pkg/textpipe/clean"
	"github.com/tidelake/textpipe/pkg/textpipe/persist"
	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/pipeline"
	"github.com/tidelake/textpipe/pkg/textpipe/record"
	"github.com/tidelake/textpipe/pkg/textpipe/sentiment"
	"github.com/tidelake/textpipe/pkg/textpipe/store"
)

// Options configures a Processor.
type Options struct {
	// Store is the transactional connector the storage stage writes
	// through. Required.
	Store store.Store

	// Lexicon supplies the sentiment marker words; nil selects the
	// built-in default lists.
	Lexicon *sentiment.Lexicon

	// Logger receives per-stage structured logs. nil selects
	// slog.Default().
	Logger *slog.Logger

	// RetryAttempts is how many times Process re-runs a submission
	// after a retriable failure. Zero disables retries.
	RetryAttempts int

	// RetryBackoff is the pause between attempts.
	RetryBackoff time.Duration
}

// Processor runs one submission at a time through the assembled
// pipeline. Distinct submissions are safe to process concurrently.
type Processor struct {
	pipe     *pipeline.Pipeline
	store    store.Store
	log      *slog.Logger
	attempts int
	backoff  time.Duration
}

// New builds the clean → sentiment → persist pipeline.
func New(opts Options) (*Processor, error) {
	if opts.Store == nil {
		return nil, &pipeerr.ConfigError{Reason: "store connector is required"}
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	lex := opts.Lexicon
	if lex == nil {
		lex = sentiment.DefaultLexicon()
	}

	analyzer, err := sentiment.NewAnalyzer(lex, log)
	if err != nil {
		return nil, err
	}

	pipe, err := pipeline.New(log,
		pipeline.Wrap[record.RawText, record.CleanedText](clean.NewCleaner(log)),
		pipeline.Wrap[record.CleanedText, record.AnalyzedText](analyzer),
		pipeline.Wrap[record.AnalyzedText, record.ProcessedResult](persist.NewStorer(opts.Store, log)),
	)
	if err != nil {
		return nil, err
	}

	return &Processor{
		pipe:     pipe,
		store:    opts.Store,
		log:      log,
		attempts: opts.RetryAttempts,
		backoff:  opts.RetryBackoff,
	}, nil
}

// Close releases the store connector.
func (p *Processor) Close() error {
	return p.store.Close()
}

// Process runs one submission end to end. Retriable failures (transient
// storage, lexicon not yet available) are retried up to the configured
// attempts with a fixed backoff; stages are stateless, so a re-run of
// the identical submission is equivalent to the first.
func (p *Processor) Process(ctx context.Context, raw record.RawText) (record.ProcessedResult, error) {
	attempt := 0
	for {
		result, err := p.pipe.Run(ctx, raw)
		if err == nil {
			return result, nil
		}
		if attempt >= p.attempts || !pipeerr.IsRetriable(err) {
			return record.ProcessedResult{}, err
		}

		attempt++
		p.log.Warn("retrying submission",
			"trace_id", raw.TraceID,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return record.ProcessedResult{}, err
		case <-time.After(p.backoff):
		}
	}
}

// Submit is a convenience wrapper: it builds a RawText with a fresh
// trace id and processes it.
func (p *Processor) Submit(ctx context.Context, content, source string) (record.ProcessedResult, error) {
	return p.Process(ctx, record.NewRawText(content, source))
}

// Lookup retrieves a stored result by its storage id.
func (p *Processor) Lookup(ctx context.Context, id string) (store.Result, error) {
	return p.store.GetResult(ctx, id)
}
