package record

import (
	"testing"
)

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Sentiment
	}{
		{1.0, Positive},
		{0.5, Positive},
		{0.11, Positive},
		{0.1, Neutral},
		{0.0, Neutral},
		{-0.1, Neutral},
		{-0.11, Negative},
		{-0.5, Negative},
		{-1.0, Negative},
	}

	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestNewRawText(t *testing.T) {
	raw := NewRawText("hello", "test")

	if raw.Content != "hello" {
		t.Errorf("Content = %q, want %q", raw.Content, "hello")
	}
	if raw.Source != "test" {
		t.Errorf("Source = %q, want %q", raw.Source, "test")
	}
	if raw.TraceID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("TraceID should be generated")
	}
	if raw.ReceivedAt.IsZero() {
		t.Error("ReceivedAt should be set")
	}

	other := NewRawText("hello", "test")
	if other.TraceID == raw.TraceID {
		t.Error("trace ids should be unique per submission")
	}
}
