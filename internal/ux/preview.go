package ux

import (
	"sync"

	"github.com/jorge-barreto/sitegen/internal/pages"
)

// Preview is a session.Observer that prints pages as they surface and
// throttles reasoning output to one line per change of line.
type Preview struct {
	// Verbose also prints reasoning lines.
	Verbose bool

	mu       sync.Mutex
	seen     map[string]bool
	selected string
	thought  string
}

// NewPreview returns an observer writing to Out.
func NewPreview(verbose bool) *Preview {
	return &Preview{Verbose: verbose, seen: make(map[string]bool)}
}

func (p *Preview) Pages(list []pages.Page) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pg := range list {
		if p.seen[pg.Path] {
			continue
		}
		p.seen[pg.Path] = true
		FileSurfaced(pg.Path, true)
	}
}

func (p *Preview) Select(path string) {
	p.mu.Lock()
	p.selected = path
	p.mu.Unlock()
}

func (p *Preview) Thinking(text string, done bool) {
	if !p.Verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	line := lastLine(text)
	if line == p.thought && !done {
		return
	}
	p.thought = line
	Thinking(text, done)
}

// Selected returns the page the session asked to preview, if any.
func (p *Preview) Selected() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Surfaced returns the number of distinct pages printed so far.
func (p *Preview) Surfaced() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}
