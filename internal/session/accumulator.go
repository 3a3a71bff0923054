package session

import "strings"

// Accumulator collects streamed chunks into one growing buffer. Markers can
// span chunk boundaries, so extraction always runs over the full snapshot.
type Accumulator struct {
	buf strings.Builder
}

// Append adds chunk and returns the full buffer.
func (a *Accumulator) Append(chunk string) string {
	a.buf.WriteString(chunk)
	return a.buf.String()
}

// Snapshot returns the full buffer.
func (a *Accumulator) Snapshot() string {
	return a.buf.String()
}

// Len returns the buffer size in bytes.
func (a *Accumulator) Len() int {
	return a.buf.Len()
}

// Reset empties the buffer.
func (a *Accumulator) Reset() {
	a.buf.Reset()
}
