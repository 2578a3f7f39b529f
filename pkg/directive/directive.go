// Package directive implements the control-tag grammar embedded at the end
// of assistant text. The canonical tag is [SECTION:<name>] with a lowercase
// section name; a bare [NAME] uppercase token is accepted on extraction for
// tolerance but never emitted.
package directive

import (
	"regexp"
	"strings"
)

var (
	sectionTag = regexp.MustCompile(`\[SECTION:([a-z]+)\]\s*$`)
	bareTag    = regexp.MustCompile(`\[([A-Z]+)\]\s*$`)
)

// Result is the outcome of scanning assistant text for a trailing tag.
type Result struct {
	Text    string // display text with the tag stripped
	Section string // lowercased section name, "" when no tag matched
	Found   bool
}

// Extract scans text for a trailing directive. Matching is anchored to the
// end of the string only, so bracketed text anywhere else survives intact.
// Extracting from already-stripped text is a no-op.
func Extract(text string) Result {
	if m := sectionTag.FindStringSubmatchIndex(text); m != nil {
		return Result{
			Text:    strings.TrimRight(text[:m[0]], " \t"),
			Section: text[m[2]:m[3]],
			Found:   true,
		}
	}
	if m := bareTag.FindStringSubmatchIndex(text); m != nil {
		return Result{
			Text:    strings.TrimRight(text[:m[0]], " \t"),
			Section: strings.ToLower(text[m[2]:m[3]]),
			Found:   true,
		}
	}
	return Result{Text: text}
}

// Append attaches the canonical tag for a section to the end of text.
func Append(text, section string) string {
	return text + " [SECTION:" + strings.ToLower(section) + "]"
}
