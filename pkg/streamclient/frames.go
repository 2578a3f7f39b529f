package streamclient

import (
	"strings"
	"unicode/utf8"
)

// utf8Decoder converts byte reads to text while tolerating multi-byte
// characters split across read boundaries. Incomplete trailing bytes are
// carried into the next decode call instead of being replaced.
type utf8Decoder struct {
	pending []byte
}

func (d *utf8Decoder) decode(b []byte) string {
	d.pending = append(d.pending, b...)

	// Walk back to the last rune-start byte; if its sequence is still
	// incomplete, hold those bytes for the next read.
	n := len(d.pending)
	cut := n
	for back := 1; back <= 4 && back <= n; back++ {
		c := d.pending[n-back]
		if utf8.RuneStart(c) {
			if runeLen(c) > back {
				cut = n - back
			}
			break
		}
	}

	out := string(d.pending[:cut])
	rest := d.pending[cut:]
	d.pending = append(d.pending[:0], rest...)
	return out
}

func runeLen(lead byte) int {
	switch {
	case lead < 0x80:
		return 1
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	default:
		return 1 // invalid lead byte, pass through as-is
	}
}

// frameSplitter accumulates decoded text and yields complete event-stream
// frames (blank-line terminated). Each yielded value is the frame's data
// payload with the "data:" prefixes stripped; comment-only frames yield
// nothing.
type frameSplitter struct {
	buf strings.Builder
}

func (f *frameSplitter) push(text string) []string {
	f.buf.WriteString(text)

	s := f.buf.String()
	var frames []string
	for {
		idx := strings.Index(s, "\n\n")
		if idx < 0 {
			break
		}
		raw := s[:idx]
		s = s[idx+2:]
		if data, ok := parseFrame(raw); ok {
			frames = append(frames, data)
		}
	}
	f.buf.Reset()
	f.buf.WriteString(s)
	return frames
}

func parseFrame(raw string) (string, bool) {
	var dataLines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, line[6:])
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, line[5:])
		}
		// Comments (":") and other fields are ignored.
	}
	if dataLines == nil {
		return "", false
	}
	return strings.Join(dataLines, "\n"), true
}
