package stream

import (
	"fmt"
	"io"
	"strings"
)

// DoneSentinel terminates every event stream, exactly once and always last.
const DoneSentinel = "[DONE]"

// Framer serializes assembled chunks as server-sent events. It owns the
// writer handle: all frames, the terminal sentinel and the flush calls go
// through one Framer, and the sentinel is written at most once no matter
// how the stream ends.
type Framer struct {
	w       io.Writer
	flusher interface{ Flush() error }
	closed  bool
}

func NewFramer(w io.Writer) *Framer {
	f := &Framer{w: w}
	if fl, ok := w.(interface{ Flush() error }); ok {
		f.flusher = fl
	}
	return f
}

// Heartbeat writes a comment-only frame. Sent once at stream open so
// intermediaries with idle timeouts see bytes before the first token.
func (f *Framer) Heartbeat() error {
	if f.closed {
		return nil
	}
	if _, err := io.WriteString(f.w, ":\n\n"); err != nil {
		return err
	}
	return f.flush()
}

// WriteChunk writes one content frame. Embedded newlines become additional
// data lines within the same frame; the consumer joins them back with a
// newline, so the chunk text round-trips byte for byte.
func (f *Framer) WriteChunk(chunk string) error {
	if f.closed {
		return fmt.Errorf("stream already closed")
	}
	for _, line := range strings.Split(chunk, "\n") {
		if _, err := fmt.Fprintf(f.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(f.w, "\n"); err != nil {
		return err
	}
	return f.flush()
}

// Close writes the terminal sentinel frame. Safe to call more than once;
// only the first call emits the sentinel.
func (f *Framer) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if _, err := fmt.Fprintf(f.w, "data: %s\n\n", DoneSentinel); err != nil {
		return err
	}
	return f.flush()
}

// Fail reports a mid-stream error to the client: one final human-readable
// content frame, then the sentinel. Write failures here are swallowed;
// the connection may already be gone, and the close path must not escalate.
func (f *Framer) Fail(message string) {
	if f.closed {
		return
	}
	_ = f.WriteChunk(message)
	_ = f.Close()
}

func (f *Framer) flush() error {
	if f.flusher == nil {
		return nil
	}
	return f.flusher.Flush()
}
