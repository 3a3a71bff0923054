package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jorge-barreto/sitegen/internal/failure"
	"github.com/jorge-barreto/sitegen/internal/session"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Out receives all progress output. Tests swap it for a buffer.
var Out io.Writer = os.Stdout

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// SessionHeader prints a timestamped header for a generation session.
func SessionHeader(mode session.Mode, project, model string) {
	fmt.Fprintf(Out, "\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	name := project
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(Out, "%s[%s]%s  %s%s: %s (%s)%s\n",
		Dim, timestamp(), Reset, Bold, mode, name, model, Reset)
	fmt.Fprintf(Out, "%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// FileSurfaced prints a page as soon as it first appears in the stream.
func FileSurfaced(path string, partial bool) {
	state := ""
	if partial {
		state = Dim + " (streaming)" + Reset
	}
	fmt.Fprintf(Out, "  %s+ %s%s%s\n", Cyan, path, Reset, state)
}

// Thinking prints the tail of the model's reasoning.
func Thinking(text string, done bool) {
	line := lastLine(text)
	if len(line) > 80 {
		line = line[:77] + "..."
	}
	mark := "…"
	if done {
		mark = "✓"
	}
	fmt.Fprintf(Out, "  %s%s thinking%s %s\n", Dim, mark, Reset, line)
}

// SessionComplete prints the summary of a finished session.
func SessionComplete(res *session.Result) {
	fmt.Fprintf(Out, "\n%s[%s]%s  %s%s✓ %d page(s), %d edited (%s)%s\n",
		Dim, timestamp(), Reset, Bold, Green, len(res.Pages), len(res.Changes), FormatDuration(res.Elapsed), Reset)
	if res.ActivePage != "" {
		fmt.Fprintf(Out, "  %sactive:%s %s\n", Dim, Reset, res.ActivePage)
	}
	for _, s := range res.Skipped {
		Skipped(s)
	}
	if res.Conversation != "" {
		fmt.Fprintf(Out, "\n%s\n", res.Conversation)
	}
}

// SessionFailed prints a failure with a hint for the user.
func SessionFailed(f *failure.Failure) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✗ generation failed: %s%s\n",
		Dim, timestamp(), Reset, Red, f.Error(), Reset)
	if hint := f.Reason.Hint(); hint != "" {
		fmt.Fprintf(Out, "\n%sHint:%s %s\n", Yellow, Reset, hint)
	}
}

// SessionCancelled prints a cancellation notice.
func SessionCancelled(elapsed time.Duration) {
	fmt.Fprintf(Out, "%s[%s]%s  %s– cancelled after %s, nothing saved%s\n",
		Dim, timestamp(), Reset, Yellow, FormatDuration(elapsed), Reset)
}

// Skipped prints one edit that could not be applied.
func Skipped(s session.Skip) {
	search := strings.TrimSpace(s.Search)
	if len(search) > 60 {
		search = search[:57] + "..."
	}
	if search != "" {
		search = fmt.Sprintf(" %q", search)
	}
	fmt.Fprintf(Out, "  %s⚠ %s: %s%s%s\n", Yellow, s.Path, s.Reason, search, Reset)
}

// Warn prints a warning to stderr.
func Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%swarning:%s %s\n", Yellow, Reset, fmt.Sprintf(format, args...))
}

// FormatDuration renders d as minutes and zero-padded seconds.
func FormatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n ")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
