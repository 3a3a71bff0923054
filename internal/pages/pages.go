// Package pages models the files of a generated site and reconciles freshly
// generated files against an existing project.
package pages

import "strings"

// Page is one file of a project. Path is unique within a project.
type Page struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RootDocument is the path new projects use for their landing page.
const RootDocument = "index.html"

// IsRootDocument reports whether path names the project's landing page.
func IsRootDocument(path string) bool {
	switch strings.TrimSpace(path) {
	case "index.html", "/index.html", "/index", "/", "index":
		return true
	}
	return false
}

// IsPreviewable reports whether path is a full HTML page that can be shown on
// its own, as opposed to a fragment under components/.
func IsPreviewable(path string) bool {
	p := strings.ToLower(path)
	if !strings.HasSuffix(p, ".html") && !strings.HasSuffix(p, ".htm") {
		return false
	}
	return !strings.HasPrefix(p, "components/") && !strings.Contains(p, "/components/")
}

// Merge reconciles updated against existing. Existing pages keep their order
// and are replaced in place when updated carries the same path; pages new to
// the project are appended in the order they appear in updated. When updated
// repeats a path, the last entry wins.
func Merge(existing, updated []Page) []Page {
	byPath := make(map[string]Page, len(updated))
	for _, p := range updated {
		byPath[p.Path] = p
	}

	out := make([]Page, 0, len(existing)+len(updated))
	seen := make(map[string]bool, len(existing)+len(updated))
	for _, p := range existing {
		if seen[p.Path] {
			continue
		}
		seen[p.Path] = true
		if u, ok := byPath[p.Path]; ok {
			p = u
		}
		out = append(out, p)
	}
	for _, p := range updated {
		if seen[p.Path] {
			continue
		}
		seen[p.Path] = true
		out = append(out, byPath[p.Path])
	}
	return out
}

// Upsert replaces the page with p's path or appends p. It returns the new
// slice; list is not modified.
func Upsert(list []Page, p Page) []Page {
	out := Clone(list)
	if i := Index(out, p.Path); i >= 0 {
		out[i] = p
		return out
	}
	return append(out, p)
}

// Index returns the position of path in list, or -1.
func Index(list []Page, path string) int {
	for i, p := range list {
		if p.Path == path {
			return i
		}
	}
	return -1
}

// Find returns the page with the given path.
func Find(list []Page, path string) (Page, bool) {
	if i := Index(list, path); i >= 0 {
		return list[i], true
	}
	return Page{}, false
}

// FindRoot returns the project's landing page.
func FindRoot(list []Page) (Page, bool) {
	for _, p := range list {
		if IsRootDocument(p.Path) {
			return p, true
		}
	}
	return Page{}, false
}

// Paths lists the page paths in order.
func Paths(list []Page) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Path
	}
	return out
}

// Clone returns a copy of list that shares no backing array with it.
func Clone(list []Page) []Page {
	if list == nil {
		return nil
	}
	out := make([]Page, len(list))
	copy(out, list)
	return out
}
