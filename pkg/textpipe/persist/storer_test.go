package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/record"
	"github.com/tidelake/textpipe/pkg/textpipe/store"
	"github.com/tidelake/textpipe/pkg/textpipe/store/memstore"
)

func analyzedFixture() record.AnalyzedText {
	return record.AnalyzedText{
		Content:        "this product is amazing",
		Original:       "<p>This product is amazing!</p>",
		Source:         "review",
		TraceID:        uuid.New(),
		Metadata:       map[string]string{"lang": "en"},
		Sentiment:      record.Positive,
		SentimentScore: 1.0,
		Confidence:     1.0,
	}
}

func TestProcessStoresRecord(t *testing.T) {
	mem := memstore.New()
	storer := NewStorer(mem, nil)

	in := analyzedFixture()
	out, err := storer.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if out.StorageID == "" {
		t.Fatal("StorageID should be non-empty on success")
	}
	if out.StoredAt.IsZero() {
		t.Error("StoredAt should be set")
	}
	if out.Sentiment != record.Positive || out.SentimentScore != 1.0 {
		t.Error("analysis fields should be carried into the result")
	}

	stored, err := mem.GetResult(context.Background(), out.StorageID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if stored.Cleaned != in.Content || stored.Original != in.Original {
		t.Error("stored row should keep both original and cleaned content")
	}
	if stored.TraceID != in.TraceID {
		t.Error("stored row should keep the trace id")
	}
	if stored.Metadata["lang"] != "en" {
		t.Error("stored row should keep metadata")
	}
}

func TestProcessUniqueIDs(t *testing.T) {
	mem := memstore.New()
	storer := NewStorer(mem, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		in := analyzedFixture()
		in.TraceID = uuid.New()
		out, err := storer.Process(context.Background(), in)
		if err != nil {
			t.Fatalf("Process #%d: %v", i, err)
		}
		if seen[out.StorageID] {
			t.Fatalf("duplicate storage id %s", out.StorageID)
		}
		seen[out.StorageID] = true
	}
}

func TestProcessInsertFailureRollsBack(t *testing.T) {
	mem := memstore.New()
	mem.FailInsert = func(store.Result) error {
		return &store.ConnectorError{Op: "insert result", Err: errors.New("row rejected")}
	}
	storer := NewStorer(mem, nil)

	in := analyzedFixture()
	_, err := storer.Process(context.Background(), in)
	if err == nil {
		t.Fatal("Process should fail when the connector rejects the write")
	}

	var serr *pipeerr.StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("error is %T, want *pipeerr.StorageError", err)
	}
	if serr.Transient {
		t.Error("rejected write should be permanent")
	}
	if serr.Source != "review" {
		t.Errorf("Source = %q, want %q", serr.Source, "review")
	}
	if serr.TraceID != in.TraceID {
		t.Error("error should carry the trace id")
	}

	// Atomicity: nothing with that source is retrievable.
	if got := mem.BySource("review"); len(got) != 0 {
		t.Errorf("found %d stored records after a failed write", len(got))
	}
}

func TestProcessCommitFailureRollsBack(t *testing.T) {
	mem := memstore.New()
	mem.FailCommit = func() error {
		return &store.ConnectorError{Op: "commit", Transient: true, Err: errors.New("connection lost")}
	}
	storer := NewStorer(mem, nil)

	_, err := storer.Process(context.Background(), analyzedFixture())
	if err == nil {
		t.Fatal("Process should surface the commit failure")
	}

	var serr *pipeerr.StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("error is %T, want *pipeerr.StorageError", err)
	}
	if !serr.Transient {
		t.Error("connection loss should be transient")
	}
	if mem.Len() != 0 {
		t.Errorf("store holds %d records after a failed commit", mem.Len())
	}
}

func TestProcessDuplicateIsDeterministic(t *testing.T) {
	mem := memstore.New()
	storer := NewStorer(mem, nil)

	in := analyzedFixture()
	if _, err := storer.Process(context.Background(), in); err != nil {
		t.Fatalf("first Process: %v", err)
	}

	// Resubmitting the identical record fails the same way every time.
	for i := 0; i < 2; i++ {
		_, err := storer.Process(context.Background(), in)
		if err == nil {
			t.Fatal("duplicate submission should fail")
		}
		var serr *pipeerr.StorageError
		if !errors.As(err, &serr) {
			t.Fatalf("error is %T, want *pipeerr.StorageError", err)
		}
		if serr.Transient {
			t.Error("duplicate constraint should be permanent")
		}
		if !errors.Is(err, pipeerr.ErrDuplicate) {
			t.Error("error should wrap the duplicate sentinel")
		}
	}

	if mem.Len() != 1 {
		t.Errorf("store holds %d records, want 1", mem.Len())
	}
}

func TestProcessDeadlineRollsBack(t *testing.T) {
	mem := memstore.New()
	storer := NewStorer(mem, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := storer.Process(ctx, analyzedFixture())
	if err == nil {
		t.Fatal("expired deadline should fail the write")
	}

	var serr *pipeerr.StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("error is %T, want *pipeerr.StorageError", err)
	}
	if !serr.Transient {
		t.Error("deadline expiry should be transient")
	}
	if mem.Len() != 0 {
		t.Error("nothing may persist after a deadline rollback")
	}
}
