// Package markers holds the sentinel tokens the model uses to frame files,
// project names and search/replace edits in its streamed output.
//
// The literals are a protocol contract with the prompts in internal/prompts.
// Changing one breaks every model response produced against the old prompts.
package markers

import (
	"regexp"
	"strings"
)

const (
	ProjectNameStart = "<<<<<<< PROJECT_NAME_START"
	ProjectNameEnd   = ">>>>>>> PROJECT_NAME_END"

	NewFileStart = "<<<<<<< NEW_FILE_START"
	NewFileEnd   = ">>>>>>> NEW_FILE_END"

	UpdateFileStart = "<<<<<<< UPDATE_FILE_START"
	UpdateFileEnd   = ">>>>>>> UPDATE_FILE_END"

	SearchStart = "<<<<<<< SEARCH"
	Divider     = "======="
	ReplaceEnd  = ">>>>>>> REPLACE"

	ThinkStart = "<think>"
	ThinkEnd   = "</think>"

	Fence = "```"
)

var (
	// FileHeaderRe matches a complete NEW_FILE or UPDATE_FILE header.
	// Group 1 is the new-file path, group 2 the update-file path; exactly one
	// of them is non-empty for any match.
	FileHeaderRe = regexp.MustCompile(
		regexp.QuoteMeta(NewFileStart) + `\s*(\S+?)\s*` + regexp.QuoteMeta(NewFileEnd) +
			`|` +
			regexp.QuoteMeta(UpdateFileStart) + `\s*(\S+?)\s*` + regexp.QuoteMeta(UpdateFileEnd))

	// ProjectNameRe captures the trimmed project name.
	ProjectNameRe = regexp.MustCompile(
		regexp.QuoteMeta(ProjectNameStart) + `\s*([\s\S]*?)\s*` + regexp.QuoteMeta(ProjectNameEnd))

	thinkRe     = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	openThinkRe = regexp.MustCompile(`(?s)<think>(.*)$`)
)

// HasFileHeader reports whether text contains at least one complete file header.
func HasFileHeader(text string) bool {
	return FileHeaderRe.MatchString(text)
}

// HasUpdateHeader reports whether text contains an UPDATE_FILE start marker.
func HasUpdateHeader(text string) bool {
	return strings.Contains(text, UpdateFileStart)
}

// Thinking returns the reasoning section of text. done is false while the
// closing tag has not arrived yet.
func Thinking(text string) (thought string, done bool, ok bool) {
	if m := thinkRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true, true
	}
	if m := openThinkRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), false, true
	}
	return "", false, false
}

// StripThinking removes the first reasoning section from text. A section
// whose closing tag has not arrived runs to the end of text.
func StripThinking(text string) string {
	if loc := thinkRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	}
	if loc := openThinkRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[0]])
	}
	return text
}
