package sentiment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
)

func TestNewLexicon(t *testing.T) {
	lex, err := NewLexicon([]string{"Good", "NICE"}, []string{"bad"})
	if err != nil {
		t.Fatalf("NewLexicon: %v", err)
	}

	if lex.Polarity("good") != 1 {
		t.Error("'good' should be positive")
	}
	if lex.Polarity("NICE") != 1 {
		t.Error("matching should be case-insensitive")
	}
	if lex.Polarity("bad") != -1 {
		t.Error("'bad' should be negative")
	}
	if lex.Polarity("table") != 0 {
		t.Error("unknown word should be neutral")
	}

	p, n := lex.Size()
	if p != 2 || n != 1 {
		t.Errorf("Size() = (%d, %d), want (2, 1)", p, n)
	}
}

func TestNewLexiconRejectsOverlap(t *testing.T) {
	_, err := NewLexicon([]string{"fine"}, []string{"bad", "Fine"})
	if err == nil {
		t.Fatal("overlapping marker sets should be rejected")
	}

	var aerr *pipeerr.AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("error is %T, want *pipeerr.AnalysisError", err)
	}
}

func TestNewLexiconRejectsEmpty(t *testing.T) {
	if _, err := NewLexicon(nil, []string{"bad"}); err == nil {
		t.Error("empty positive set should be rejected")
	}
	if _, err := NewLexicon([]string{"good"}, nil); err == nil {
		t.Error("empty negative set should be rejected")
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.yaml")
	content := `positive: [stellar, solid]
negative: [shoddy]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	lex, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}

	if lex.Polarity("stellar") != 1 || lex.Polarity("shoddy") != -1 {
		t.Error("loaded markers should score")
	}
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	_, err := LoadFromYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("missing file should fail")
	}

	var aerr *pipeerr.AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("error is %T, want *pipeerr.AnalysisError", err)
	}
}

func TestDefaultLexicon(t *testing.T) {
	lex := DefaultLexicon()

	p, n := lex.Size()
	if p == 0 || n == 0 {
		t.Fatal("default lexicon should have markers on both sides")
	}
	if lex.Polarity("amazing") != 1 {
		t.Error("'amazing' should be positive")
	}
	if lex.Polarity("terrible") != -1 {
		t.Error("'terrible' should be negative")
	}
}
