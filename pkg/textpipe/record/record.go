package record

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment is the classification assigned by the sentiment stage.
type Sentiment string

const (
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
	Positive Sentiment = "positive"
)

// Classification thresholds applied to a sentiment score.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// Classify maps a score in [-1.0, 1.0] to its sentiment label.
func Classify(score float64) Sentiment {
	switch {
	case score > PositiveThreshold:
		return Positive
	case score < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// RawText is the pipeline input as submitted by the caller.
// Content may be empty or contain markup; nothing is validated yet.
type RawText struct {
	Content    string
	Source     string
	TraceID    uuid.UUID
	Metadata   map[string]string
	ReceivedAt time.Time
}

// NewRawText builds a submission with a fresh trace id and timestamp.
func NewRawText(content, source string) RawText {
	return RawText{
		Content:    content,
		Source:     source,
		TraceID:    uuid.New(),
		ReceivedAt: time.Now(),
	}
}

// CleanedText is the cleaning stage output: no markup, no zero-width
// characters, collapsed whitespace, NFKC-normalized.
type CleanedText struct {
	Content  string
	Original string
	Source   string
	TraceID  uuid.UUID
	Metadata map[string]string
	// Operations lists the cleaning steps applied, in order.
	Operations []string
	CleanedAt  time.Time
}

// AnalyzedText is the sentiment stage output.
type AnalyzedText struct {
	Content  string
	Original string
	Source   string
	TraceID  uuid.UUID
	Metadata map[string]string

	Sentiment      Sentiment
	SentimentScore float64
	Confidence     float64
}

// ProcessedResult is the final, persisted record.
type ProcessedResult struct {
	// StorageID is assigned by the store; non-empty on every success.
	StorageID string
	Content   string
	Original  string
	Source    string
	TraceID   uuid.UUID
	Metadata  map[string]string

	Sentiment      Sentiment
	SentimentScore float64
	Confidence     float64

	StoredAt time.Time
}
