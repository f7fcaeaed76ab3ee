// Package sentiment implements keyword-lexicon sentiment scoring.
package sentiment

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/record"
)

// StageName identifies the sentiment stage in logs and errors.
const StageName = "SentimentAnalyzer"

// Analyzer scores cleaned text against a marker lexicon.
//
// Raw score = (P − N) / max(1, P + N), where P and N are positive and
// negative marker occurrence counts. The score is bounded in
// [-1.0, 1.0] by construction; no markers means 0.0 (no evidence).
// Scoring never fails once the analyzer is constructed.
type Analyzer struct {
	lex *Lexicon
	log *slog.Logger
}

// NewAnalyzer creates the sentiment stage. The lexicon must already be
// loaded; a missing lexicon is the stage's one failure mode and is
// reported as retriable, since a later construction may find it loaded.
func NewAnalyzer(lex *Lexicon, log *slog.Logger) (*Analyzer, error) {
	if lex == nil {
		return nil, &pipeerr.AnalysisError{Reason: "lexicon not loaded", Transient: true}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{lex: lex, log: log}, nil
}

// Name returns the stage name.
func (a *Analyzer) Name() string { return StageName }

// Process scores one cleaned record. Every input, including empty
// content, yields a defined score.
func (a *Analyzer) Process(ctx context.Context, in record.CleanedText) (record.AnalyzedText, error) {
	var positives, negatives int
	for _, word := range tokenize(in.Content) {
		switch a.lex.Polarity(word) {
		case 1:
			positives++
		case -1:
			negatives++
		}
	}

	score := scoreOf(positives, negatives)
	label := record.Classify(score)

	a.log.Debug("sentiment scored",
		"stage", StageName,
		"trace_id", in.TraceID,
		"source", in.Source,
		"positives", positives,
		"negatives", negatives,
		"score", score,
		"sentiment", label,
	)

	return record.AnalyzedText{
		Content:        in.Content,
		Original:       in.Original,
		Source:         in.Source,
		TraceID:        in.TraceID,
		Metadata:       in.Metadata,
		Sentiment:      label,
		SentimentScore: score,
		Confidence:     1.0,
	}, nil
}

func scoreOf(positives, negatives int) float64 {
	total := positives + negatives
	if total == 0 {
		return 0.0
	}
	return float64(positives-negatives) / float64(total)
}

// tokenize splits text on word boundaries, lowercasing as it goes.
// Letters, digits, and inner hyphens/apostrophes count as word runes.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := strings.Trim(current.String(), "-'")
		if word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '\'' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
