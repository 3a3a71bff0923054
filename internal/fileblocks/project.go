package fileblocks

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jorge-barreto/sitegen/internal/markers"
)

var (
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

	thinkSectionRe = regexp.MustCompile(`(?s)<think>.*?</think>|<think>.*$`)
	fileSectionRe  = regexp.MustCompile(`(?s)(?:` + markers.FileHeaderRe.String() + ")\\s*```[\\w-]*.*?```")
	editSectionRe  = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(markers.SearchStart) + `.*?` + regexp.QuoteMeta(markers.ReplaceEnd))
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
)

// ProjectName returns the trimmed name between the project-name markers.
func ProjectName(text string) (string, bool) {
	m := markers.ProjectNameRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

// FallbackProjectName builds a name from the first characters of the prompt
// when the model did not provide one. A random suffix keeps it unique.
func FallbackProjectName(prompt string) string {
	head := []rune(strings.TrimSpace(prompt))
	if len(head) > 20 {
		head = head[:20]
	}
	base := nonAlnumRe.ReplaceAllString(string(head), "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return "project-" + suffix
	}
	return base + "-" + suffix
}

// Conversation returns the prose the model wrote around its file blocks,
// with thinking, project names, file bodies and edits removed.
func Conversation(text string) string {
	text = thinkSectionRe.ReplaceAllString(text, "")
	text = markers.ProjectNameRe.ReplaceAllString(text, "")
	text = fileSectionRe.ReplaceAllString(text, "")
	text = editSectionRe.ReplaceAllString(text, "")
	text = markers.FileHeaderRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
