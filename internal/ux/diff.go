package ux

import (
	"fmt"
	"strings"

	diff "github.com/shogoki/gotextdiff"

	"github.com/jorge-barreto/sitegen/internal/pages"
)

// PrintDiff prints a colored unified diff of one page.
func PrintDiff(path, oldContent, newContent string) {
	if oldContent == newContent {
		return
	}
	out := diff.Diff(path, []byte(oldContent), path, []byte(newContent))
	if len(out) == 0 {
		return
	}
	fmt.Fprintf(Out, "%sEdit:%s %s\n", Bold, Reset, path)
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "diff "), strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			continue
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintf(Out, "%s%s%s\n", Cyan, line, Reset)
		case strings.HasPrefix(line, "+"):
			fmt.Fprintf(Out, "%s%s%s\n", Green, line, Reset)
		case strings.HasPrefix(line, "-"):
			fmt.Fprintf(Out, "%s%s%s\n", Red, line, Reset)
		default:
			fmt.Fprintln(Out, line)
		}
	}
}

// PrintPageDiffs diffs every page in after against its counterpart in before.
// Pages missing from before are reported as new.
func PrintPageDiffs(before, after []pages.Page) {
	for _, p := range after {
		old, ok := pages.Find(before, p.Path)
		if !ok {
			FileSurfaced(p.Path, false)
			continue
		}
		PrintDiff(p.Path, old.Content, p.Content)
	}
}
