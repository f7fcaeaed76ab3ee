package pipeerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"cleaning", &CleaningError{Reason: "bad markup"}, false},
		{"analysis permanent", &AnalysisError{Reason: "bad lexicon"}, false},
		{"analysis transient", &AnalysisError{Reason: "not loaded", Transient: true}, true},
		{"storage permanent", &StorageError{Reason: "constraint"}, false},
		{"storage transient", &StorageError{Reason: "busy", Transient: true}, true},
		{"config", &ConfigError{Reason: "empty stage list"}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetriable(tc.err); got != tc.want {
				t.Errorf("IsRetriable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsRetriableWrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", &StorageError{Reason: "busy", Transient: true})
	if !IsRetriable(err) {
		t.Error("wrapped transient storage error should be retriable")
	}
}

func TestStorageErrorContext(t *testing.T) {
	trace := uuid.New()
	cause := errors.New("disk detached")
	err := &StorageError{
		Source:    "review",
		Reason:    "write record",
		Transient: true,
		TraceID:   trace,
		Err:       cause,
	}

	if !errors.Is(err, cause) {
		t.Error("StorageError should unwrap to its cause")
	}

	msg := err.Error()
	for _, want := range []string{"review", "transient", "write record", trace.String()} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q should contain %q", msg, want)
		}
	}
}

func TestErrorsAsMatchesKind(t *testing.T) {
	var err error = fmt.Errorf("run: %w", &CleaningError{Reason: "unterminated", Input: "<b"})

	var cerr *CleaningError
	if !errors.As(err, &cerr) {
		t.Fatal("errors.As should find CleaningError")
	}
	if cerr.Input != "<b" {
		t.Errorf("Input = %q, want %q", cerr.Input, "<b")
	}

	var serr *StorageError
	if errors.As(err, &serr) {
		t.Error("errors.As should not match a different kind")
	}
}
