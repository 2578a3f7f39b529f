package stream

import (
	"regexp"
	"strings"
)

// flushThreshold is the buffer size above which a chunk is emitted even
// without a sentence boundary. Chosen for readable increments in the UI.
const flushThreshold = 40

// glueRepair matches a lowercase letter glued to an uppercase letter, which
// happens when provider fragments split across a word boundary and the
// separating space is lost.
var glueRepair = regexp.MustCompile(`([a-z])([A-Z])`)

// Assembler re-buffers small provider fragments into larger,
// punctuation-aligned chunks. Emit is called once per ready chunk, in
// fragment order. The concatenation of all emitted chunks equals the
// concatenation of all written fragments, modulo repaired glue spaces.
type Assembler struct {
	emit func(chunk string) error
	buf  strings.Builder
}

func NewAssembler(emit func(chunk string) error) *Assembler {
	return &Assembler{emit: emit}
}

// Write appends one fragment and emits the buffer if it is flush-ready.
func (a *Assembler) Write(fragment string) error {
	if fragment == "" {
		return nil
	}
	a.buf.WriteString(fragment)
	if a.shouldFlush() {
		return a.flush()
	}
	return nil
}

// Close emits any trailing buffered text. A whitespace-only remainder is
// dropped so the stream never ends with an empty chunk.
func (a *Assembler) Close() error {
	if strings.TrimSpace(a.buf.String()) == "" {
		a.buf.Reset()
		return nil
	}
	return a.flush()
}

func (a *Assembler) shouldFlush() bool {
	s := a.buf.String()
	if len(s) > flushThreshold {
		return true
	}
	if strings.HasSuffix(s, ". ") || strings.HasSuffix(s, "! ") || strings.HasSuffix(s, "? ") {
		return true
	}
	return strings.HasSuffix(s, "\n")
}

func (a *Assembler) flush() error {
	chunk := glueRepair.ReplaceAllString(a.buf.String(), "$1 $2")
	a.buf.Reset()
	if chunk == "" {
		return nil
	}
	return a.emit(chunk)
}
