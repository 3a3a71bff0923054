// Package prompts builds the chat messages that teach a model the marker
// protocol and carry the project's current state.
package prompts

import (
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jorge-barreto/sitegen/internal/markers"
	"github.com/jorge-barreto/sitegen/internal/pages"
)

// Input is what a generation call knows about the user's request.
type Input struct {
	Prompt          string
	PreviousPrompts []string
	Pages           []pages.Page
	// SelectedElement restricts a follow-up edit to one element's HTML.
	SelectedElement string
	// NameProject asks the model for a project name.
	NameProject bool
}

var markerVars = map[string]string{
	"PROJECT_NAME_START": markers.ProjectNameStart,
	"PROJECT_NAME_END":   markers.ProjectNameEnd,
	"NEW_FILE_START":     markers.NewFileStart,
	"NEW_FILE_END":       markers.NewFileEnd,
	"UPDATE_FILE_START":  markers.UpdateFileStart,
	"UPDATE_FILE_END":    markers.UpdateFileEnd,
	"SEARCH":             markers.SearchStart,
	"DIVIDER":            markers.Divider,
	"REPLACE":            markers.ReplaceEnd,
	"FENCE":              markers.Fence,
}

// expand substitutes ${MARKER} references in template.
func expand(template string) string {
	return os.Expand(template, func(key string) string {
		return markerVars[key]
	})
}

// InitialSystem is the system prompt for building a project from scratch.
func InitialSystem() string {
	return expand(initialSystem)
}

// FollowUpSystem is the system prompt for editing an existing project.
func FollowUpSystem(nameProject bool) string {
	s := expand(followUpSystem)
	if nameProject {
		s += "\n" + expand(projectNameRule)
	}
	return s
}

// NewProject returns the messages for a first generation.
func NewProject(in Input) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: InitialSystem()},
		{Role: openai.ChatMessageRoleUser, Content: in.Prompt},
	}
}

// FollowUp returns the messages for an edit of in.Pages.
func FollowUp(in Input) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: FollowUpSystem(in.NameProject)},
		{Role: openai.ChatMessageRoleUser, Content: userContext(in.PreviousPrompts)},
		{Role: openai.ChatMessageRoleAssistant, Content: pagesContext(in)},
		{Role: openai.ChatMessageRoleUser, Content: in.Prompt},
	}
}

func userContext(previous []string) string {
	if len(previous) == 0 {
		return "You are modifying the files of an existing website based on the user's request."
	}
	var b strings.Builder
	b.WriteString("Also here are the previous prompts:\n\n")
	for _, p := range previous {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}

func pagesContext(in Input) string {
	var b strings.Builder
	if in.SelectedElement != "" {
		fmt.Fprintf(&b, "You have to update ONLY the following element, NOTHING ELSE:\n\n%shtml\n%s\n%s\n", markers.Fence, in.SelectedElement, markers.Fence)
		b.WriteString("It could be in multiple pages; if so, update all of them.\n\n")
	}
	b.WriteString("Current pages:\n")
	for _, p := range in.Pages {
		fmt.Fprintf(&b, "- %s\n%s\n", p.Path, p.Content)
	}
	return b.String()
}

const projectNameRule = `REQUIRED: Generate a name for the project, based on the user's request. Keep it short, about six words, and add an emoji at the end. Wrap it as ${PROJECT_NAME_START} Name ${PROJECT_NAME_END}.`

const initialSystem = `You are an expert UI/UX and front-end developer.
No need for long explanations. Briefly state what you will do before the files, and a short summary at the very end.
Return the result in this format:
1. Start with ${PROJECT_NAME_START}, the name of the project, then ${PROJECT_NAME_END}.
2. Generate files in this order: index.html first, then style.css, then script.js, then web components if needed.
3. For each file, write ${NEW_FILE_START} followed by the file name and ${NEW_FILE_END} on one line.
4. Put the file content in a fenced code block with the right language marker.
5. Repeat for each file.
Example:
${PROJECT_NAME_START} Project Name ${PROJECT_NAME_END}
${NEW_FILE_START} index.html ${NEW_FILE_END}
${FENCE}html
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Index</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <h1>Hello World</h1>
    <script src="script.js"></script>
</body>
</html>
${FENCE}
CRITICAL: The first file MUST always be index.html.`

const followUpSystem = `You are an expert UI/UX and front-end developer modifying existing files (HTML, CSS, JavaScript).
Output ONLY the changes required, using the UPDATE_FILE and SEARCH/REPLACE format below. Do NOT output whole files you are editing.
Briefly state what you will do at the beginning and give a short summary at the very end.
Update format:
1. Write ${UPDATE_FILE_START} followed by the file name and ${UPDATE_FILE_END} on one line.
2. Start each edit with ${SEARCH} on its own line.
3. Provide the exact lines of the current file to replace.
4. Write ${DIVIDER} on its own line.
5. Provide the new lines.
6. End the edit with ${REPLACE} on its own line.
7. Use several edits for changes in different parts of a file.
8. To insert at the very beginning of a file, leave the search part empty. Otherwise include the line before the insertion point in both parts.
9. To delete code, leave the replacement part empty.
10. The search part must match the current code exactly, including indentation.
Example:
${UPDATE_FILE_START} index.html ${UPDATE_FILE_END}
${SEARCH}
    <h1>Old Title</h1>
${DIVIDER}
    <h1>New Title</h1>
${REPLACE}
To create a new file, write ${NEW_FILE_START} followed by the file name and ${NEW_FILE_END}, then the full content in a fenced code block:
${NEW_FILE_START} about.html ${NEW_FILE_END}
${FENCE}html
<!DOCTYPE html>
<html lang="en">
<head><title>About</title></head>
<body><h1>About</h1></body>
</html>
${FENCE}`
