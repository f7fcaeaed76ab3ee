// Package clean implements the text normalization stage.
package clean

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/record"
)

// StageName identifies the cleaning stage in logs and errors.
const StageName = "TextCleaner"

// whitespacePattern matches runs of Unicode whitespace, including the
// non-breaking and typographic spaces that NFKC folds into plain spaces.
var whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)

// zeroWidthReplacer drops zero-width space, non-joiner, joiner, and BOM.
var zeroWidthReplacer = strings.NewReplacer(
	"\u200b", "", // zero-width space
	"\u200c", "", // zero-width non-joiner
	"\u200d", "", // zero-width joiner
	"\ufeff", "", // byte order mark
)

// Cleaner normalizes raw text. The steps run in a fixed order; each
// step consumes the previous step's output:
//
//  1. strip HTML tags (and decode entities)
//  2. collapse whitespace runs to single spaces
//  3. trim leading/trailing whitespace
//  4. normalize unicode to NFKC
//  5. remove zero-width characters
//
// The stage holds no per-call state and is safe for concurrent use.
type Cleaner struct {
	log *slog.Logger
}

// NewCleaner creates the cleaning stage.
func NewCleaner(log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{log: log}
}

// Name returns the stage name.
func (c *Cleaner) Name() string { return StageName }

// Process cleans one submission. Empty input is valid and produces empty
// cleaned output; only structurally malformed markup fails.
func (c *Cleaner) Process(ctx context.Context, in record.RawText) (record.CleanedText, error) {
	c.log.Debug("cleaning start",
		"stage", StageName,
		"trace_id", in.TraceID,
		"source", in.Source,
	)

	operations := make([]string, 0, 5)
	content := in.Content

	stripped, err := stripMarkup(content)
	if err != nil {
		return record.CleanedText{}, &pipeerr.CleaningError{
			Reason:  err.Error(),
			Input:   truncate(in.Content, 80),
			TraceID: in.TraceID,
		}
	}
	content = stripped
	operations = append(operations, "html_stripping")

	content = whitespacePattern.ReplaceAllString(content, " ")
	operations = append(operations, "whitespace_collapse")

	content = strings.TrimSpace(content)
	operations = append(operations, "trim")

	content = norm.NFKC.String(content)
	operations = append(operations, "unicode_normalization")

	content = zeroWidthReplacer.Replace(content)
	operations = append(operations, "zero_width_removal")

	// NFKC can surface whitespace from compatibility decompositions
	// (e.g. spacing diacritics); the cleaned invariant still holds.
	content = strings.TrimSpace(content)

	c.log.Debug("cleaning done",
		"stage", StageName,
		"trace_id", in.TraceID,
		"chars", len(content),
	)

	return record.CleanedText{
		Content:    content,
		Original:   in.Content,
		Source:     in.Source,
		TraceID:    in.TraceID,
		Metadata:   in.Metadata,
		Operations: operations,
		CleanedAt:  time.Now(),
	}, nil
}

// stripMarkup removes HTML tags and decodes entities. A '<' that opens
// tag markup (letter, '/', or '!' follows) with no closing '>' before the
// end of input cannot be stripped safely and is an error; a bare '<'
// followed by anything else is ordinary text.
func stripMarkup(s string) (string, error) {
	if !strings.ContainsRune(s, '<') {
		return html.UnescapeString(s), nil
	}

	if err := checkTerminated(s); err != nil {
		return "", err
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return b.String(), nil
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// checkTerminated scans for tag-opening '<' without a matching '>'.
func checkTerminated(s string) error {
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '<' {
			continue
		}
		if i+1 >= len(runes) || !opensTag(runes[i+1]) {
			continue
		}
		closed := false
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == '>' {
				closed = true
				i = j
				break
			}
		}
		if !closed {
			return &unterminatedError{offset: i}
		}
	}
	return nil
}

func opensTag(r rune) bool {
	return unicode.IsLetter(r) || r == '/' || r == '!'
}

type unterminatedError struct {
	offset int
}

func (e *unterminatedError) Error() string {
	return fmt.Sprintf("unterminated tag markup at offset %d", e.offset)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
