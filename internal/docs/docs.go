package docs

import (
	"fmt"
	"strings"
)

// Topic holds a single documentation article.
type Topic struct {
	Name    string // short slug used as CLI argument
	Title   string // human-readable title
	Summary string // one-line description for topic listing
	Content string // full article text (plain text, no ANSI)
}

// All returns every topic in display order.
func All() []Topic {
	return topics
}

// Names returns the topic slugs in display order.
func Names() []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Name
	}
	return out
}

// Get looks up a topic by name, ignoring case. The error lists the valid
// names.
func Get(name string) (Topic, error) {
	for _, t := range topics {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return Topic{}, fmt.Errorf("unknown topic %q (available: %s); run 'sitegen docs' for summaries",
		name, strings.Join(Names(), ", "))
}
