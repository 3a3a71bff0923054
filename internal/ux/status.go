package ux

import (
	"fmt"

	"github.com/jorge-barreto/sitegen/internal/pages"
	"github.com/jorge-barreto/sitegen/internal/store"
)

// RenderProject prints a stored project with its pages and commit history.
func RenderProject(p *store.Project, commits []store.Commit, siteDir string) {
	fmt.Fprintf(Out, "%sProject:%s %s\n", Bold, Reset, p.Name)
	fmt.Fprintf(Out, "%sSlug:%s    %s\n", Bold, Reset, p.Slug)
	fmt.Fprintf(Out, "%sUpdated:%s %s\n", Bold, Reset, p.UpdatedAt.Local().Format("2006-01-02 15:04"))

	fmt.Fprintf(Out, "\n%sPages:%s\n", Bold, Reset)
	if len(p.Pages) == 0 {
		fmt.Fprintf(Out, "  %s(none)%s\n", Dim, Reset)
	}
	for _, pg := range p.Pages {
		marker := "  "
		if pages.IsRootDocument(pg.Path) {
			marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
		}
		fmt.Fprintf(Out, "  %s%-32s %s%d bytes%s\n", marker, pg.Path, Dim, len(pg.Content), Reset)
	}

	if len(commits) > 0 {
		fmt.Fprintf(Out, "\n%sHistory:%s\n", Bold, Reset)
		for _, c := range commits {
			prompt := c.Prompt
			if len(prompt) > 60 {
				prompt = prompt[:57] + "..."
			}
			fmt.Fprintf(Out, "  %s%d%s  %-11s %-60s %s(%s)%s\n",
				Dim, c.Seq, Reset, c.Mode, prompt, Dim, c.Duration, Reset)
		}
	}

	if siteDir != "" {
		fmt.Fprintf(Out, "\n%sExport:%s %s\n", Bold, Reset, siteDir)
	}
	fmt.Fprintln(Out)
}

// RenderProjects prints one line per stored project, most recent first.
func RenderProjects(list []store.Project) {
	if len(list) == 0 {
		fmt.Fprintf(Out, "%s(no projects yet; run 'sitegen new \"<prompt>\"')%s\n", Dim, Reset)
		return
	}
	for _, p := range list {
		fmt.Fprintf(Out, "  %-40s %s%d page(s)  %s%s\n",
			p.Slug, Dim, len(p.Pages), p.UpdatedAt.Local().Format("2006-01-02 15:04"), Reset)
	}
}
