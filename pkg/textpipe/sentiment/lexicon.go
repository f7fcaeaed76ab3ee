package sentiment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
)

// Lexicon holds the two disjoint, case-insensitive marker word sets used
// for scoring. It is built once at analyzer construction and never
// mutated per call.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

// NewLexicon builds a lexicon from positive and negative marker words.
// Words are lowercased; both sets must be non-empty and disjoint.
func NewLexicon(positive, negative []string) (*Lexicon, error) {
	if len(positive) == 0 || len(negative) == 0 {
		return nil, &pipeerr.AnalysisError{Reason: "lexicon requires positive and negative markers"}
	}

	lex := &Lexicon{
		positive: make(map[string]struct{}, len(positive)),
		negative: make(map[string]struct{}, len(negative)),
	}
	for _, w := range positive {
		lex.positive[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for _, w := range negative {
		word := strings.ToLower(strings.TrimSpace(w))
		if _, clash := lex.positive[word]; clash {
			return nil, &pipeerr.AnalysisError{
				Reason: fmt.Sprintf("marker %q is both positive and negative", word),
			}
		}
		lex.negative[word] = struct{}{}
	}

	return lex, nil
}

// LoadFromYAML loads marker words from a YAML file.
//
// Expected format:
//
//	positive: [amazing, great, love]
//	negative: [awful, terrible, hate]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pipeerr.AnalysisError{Reason: "read lexicon file", Err: err}
	}

	var file struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &pipeerr.AnalysisError{Reason: "parse lexicon file", Err: err}
	}

	return NewLexicon(file.Positive, file.Negative)
}

// DefaultLexicon returns the built-in English marker lists. The word
// lists are replaceable configuration; the scoring formula and
// thresholds are not.
func DefaultLexicon() *Lexicon {
	lex, err := NewLexicon(
		[]string{
			"amazing", "awesome", "brilliant", "delightful", "excellent",
			"fantastic", "good", "great", "happy", "love", "loved",
			"perfect", "pleasant", "superb", "wonderful",
		},
		[]string{
			"awful", "bad", "broken", "disappointing", "dreadful",
			"hate", "hated", "horrible", "miserable", "poor", "sad",
			"terrible", "unpleasant", "useless", "worst",
		},
	)
	if err != nil {
		// Built-in lists are disjoint and non-empty.
		panic(err)
	}
	return lex
}

// Polarity returns +1 for a positive marker, -1 for a negative marker,
// and 0 otherwise. Matching is case-insensitive.
func (l *Lexicon) Polarity(word string) int {
	word = strings.ToLower(word)
	if _, ok := l.positive[word]; ok {
		return 1
	}
	if _, ok := l.negative[word]; ok {
		return -1
	}
	return 0
}

// Size returns the number of positive and negative markers.
func (l *Lexicon) Size() (positive, negative int) {
	return len(l.positive), len(l.negative)
}
