// Package patch applies the search/replace edits a model emits for an
// existing file.
package patch

import (
	"strings"

	"github.com/jorge-barreto/sitegen/internal/markers"
)

// Instruction is one search/replace pair from an update block. An empty or
// whitespace-only Search means "prepend Replace to the file".
type Instruction struct {
	Search  string
	Replace string
}

// IsPrepend reports whether the instruction inserts at the top of the file.
func (in Instruction) IsPrepend() bool {
	return strings.TrimSpace(in.Search) == ""
}

// ParseInstructions scans raw for SEARCH / ======= / REPLACE triples in
// order. Scanning stops at the first triple that is not complete, so a
// truncated trailing edit is ignored rather than reported.
func ParseInstructions(raw string) []Instruction {
	var out []Instruction
	pos := 0
	for {
		start := strings.Index(raw[pos:], markers.SearchStart)
		if start < 0 {
			break
		}
		start += pos + len(markers.SearchStart)

		div := indexDivider(raw[start:])
		if div < 0 {
			break
		}
		div += start

		end := strings.Index(raw[div+len(markers.Divider):], markers.ReplaceEnd)
		if end < 0 {
			break
		}
		end += div + len(markers.Divider)

		out = append(out, Instruction{
			Search:  trimMarkerNewlines(raw[start:div]),
			Replace: trimMarkerNewlines(raw[div+len(markers.Divider) : end]),
		})
		pos = end + len(markers.ReplaceEnd)
	}
	return out
}

// indexDivider prefers a divider on its own line so that "=======" inside
// file content (a CSS banner comment, say) does not split the edit.
func indexDivider(s string) int {
	off := 0
	for {
		i := strings.Index(s[off:], markers.Divider)
		if i < 0 {
			return strings.Index(s, markers.Divider)
		}
		i += off
		atLineStart := i == 0 || s[i-1] == '\n'
		rest := s[i+len(markers.Divider):]
		atLineEnd := rest == "" || rest[0] == '\n' || rest[0] == '\r' || strings.HasPrefix(rest, markers.ReplaceEnd)
		if atLineStart && atLineEnd {
			return i
		}
		off = i + len(markers.Divider)
	}
}

// trimMarkerNewlines drops the single line break that separates a section
// from the marker lines around it.
func trimMarkerNewlines(s string) string {
	s = strings.TrimPrefix(s, "\r")
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}
