package stream

import (
	"strings"
	"testing"
	"time"
)

func TestFramerFrames(t *testing.T) {
	var sb strings.Builder
	f := NewFramer(&sb)

	if err := f.Heartbeat(); err != nil {
		t.Fatalf("Heartbeat error: %v", err)
	}
	if err := f.WriteChunk("Hello there. "); err != nil {
		t.Fatalf("WriteChunk error: %v", err)
	}
	if err := f.WriteChunk("Two\nlines\n"); err != nil {
		t.Fatalf("WriteChunk error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	want := ":\n\n" +
		"data: Hello there. \n\n" +
		"data: Two\ndata: lines\ndata: \n\n" +
		"data: [DONE]\n\n"
	if sb.String() != want {
		t.Errorf("stream = %q, want %q", sb.String(), want)
	}
}

func TestFramerSentinelOnce(t *testing.T) {
	var sb strings.Builder
	f := NewFramer(&sb)

	if err := f.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	f.Fail("should not appear")

	if got := strings.Count(sb.String(), DoneSentinel); got != 1 {
		t.Errorf("sentinel count = %d, want 1", got)
	}
	if !strings.HasSuffix(sb.String(), "data: [DONE]\n\n") {
		t.Errorf("sentinel is not the last frame: %q", sb.String())
	}
	if strings.Contains(sb.String(), "should not appear") {
		t.Error("Fail wrote after close")
	}
}

func TestFramerFail(t *testing.T) {
	var sb strings.Builder
	f := NewFramer(&sb)

	if err := f.WriteChunk("partial "); err != nil {
		t.Fatalf("WriteChunk error: %v", err)
	}
	f.Fail("Sorry, something went wrong mid-response.")

	out := sb.String()
	if !strings.Contains(out, "data: Sorry, something went wrong mid-response.\n\n") {
		t.Errorf("missing error frame: %q", out)
	}
	if !strings.HasSuffix(out, "data: [DONE]\n\n") {
		t.Errorf("stream does not end with sentinel: %q", out)
	}
	if err := f.WriteChunk("late"); err == nil {
		t.Error("WriteChunk after Fail should error")
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{10, 10 * time.Second},
	}

	prev := time.Duration(0)
	for _, tt := range tests {
		got := Backoff(tt.attempt)
		if got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
		if got < prev {
			t.Errorf("Backoff(%d) = %v decreased below %v", tt.attempt, got, prev)
		}
		prev = got
	}
}
