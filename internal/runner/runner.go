// Package runner drives one generation session end to end: it opens the
// response stream, runs the session controller, and persists what the
// session committed.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jorge-barreto/sitegen/internal/config"
	"github.com/jorge-barreto/sitegen/internal/failure"
	"github.com/jorge-barreto/sitegen/internal/pages"
	"github.com/jorge-barreto/sitegen/internal/session"
	"github.com/jorge-barreto/sitegen/internal/sitefs"
	"github.com/jorge-barreto/sitegen/internal/store"
	"github.com/jorge-barreto/sitegen/internal/transport"
	"github.com/jorge-barreto/sitegen/internal/ux"
)

// ErrCancelled is returned when the user interrupts a session.
var ErrCancelled = errors.New("session cancelled, nothing was saved")

// ErrNoFiles is returned when a new-project response produced no pages.
var ErrNoFiles = errors.New("the response contained no files")

// maxSlugAttempts bounds the numeric suffixes tried for a taken slug.
const maxSlugAttempts = 100

// Job is one generation request.
type Job struct {
	ID              string
	Mode            session.Mode
	Prompt          string
	PreviousPrompts []string
	Pages           []pages.Page
	CurrentPage     string
	SelectedElement string
}

// Opener starts the response stream for a job.
type Opener interface {
	Open(ctx context.Context, job Job) (transport.Source, error)
}

// EditOptions narrows a follow-up edit.
type EditOptions struct {
	CurrentPage     string
	SelectedElement string
}

// Runner runs sessions against the project store.
type Runner struct {
	Config   *config.Config
	Root     string
	Store    *store.Store
	Opener   Opener
	Observer session.Observer
	// DryRun runs the session and prints the result without saving.
	DryRun bool
	// NoExport skips writing pages to the output directory.
	NoExport bool
}

// New generates a project from scratch and stores it.
func (r *Runner) New(ctx context.Context, prompt string) (*store.Project, error) {
	ux.SessionHeader(session.ModeNewProject, "", r.Config.Provider.Model)

	res, logPath, err := r.generate(ctx, Job{Mode: session.ModeNewProject, Prompt: prompt})
	if err != nil {
		return nil, err
	}
	ux.SessionComplete(res)
	if len(res.Pages) == 0 {
		return nil, ErrNoFiles
	}

	fm := sitefs.NewFrontMatter(res.ProjectName)
	p := &store.Project{
		Name:    res.ProjectName,
		Prompts: []string{prompt},
		Pages:   res.Pages,
		Meta:    &fm,
	}
	if r.DryRun {
		p.Slug = sitefs.Slug(p.Name)
		return p, nil
	}

	if err := r.create(p); err != nil {
		return nil, err
	}
	r.commit(p, res, session.ModeNewProject, prompt, logPath, nil)
	if err := r.export(p); err != nil {
		return p, err
	}
	return p, nil
}

// Edit applies a follow-up prompt to a stored project.
func (r *Runner) Edit(ctx context.Context, slug, prompt string, opts EditOptions) (*store.Project, error) {
	lock, err := store.LockProject(r.lockDir(), slug)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			ux.Warn("failed to release lock for %s: %v", slug, err)
		}
	}()

	p, err := r.Store.Get(slug)
	if err != nil {
		return nil, err
	}
	ux.SessionHeader(session.ModeFollowUp, p.Name, r.Config.Provider.Model)

	res, logPath, err := r.generate(ctx, Job{
		Mode:            session.ModeFollowUp,
		Prompt:          prompt,
		PreviousPrompts: p.Prompts,
		Pages:           p.Pages,
		CurrentPage:     opts.CurrentPage,
		SelectedElement: opts.SelectedElement,
	})
	if err != nil {
		return nil, err
	}
	ux.SessionComplete(res)
	ux.PrintPageDiffs(p.Pages, res.Pages)

	before := p.Pages
	p.Pages = res.Pages
	p.Prompts = append(p.Prompts, prompt)
	if r.DryRun {
		return p, nil
	}

	if err := r.Store.Save(p); err != nil {
		return nil, fmt.Errorf("saving project: %w", err)
	}
	r.commit(p, res, session.ModeFollowUp, prompt, logPath, before)
	if err := r.export(p); err != nil {
		return p, err
	}
	return p, nil
}

// Import stores the pages found in dir as a new project.
func (r *Runner) Import(dir, name string) (*store.Project, error) {
	list, skipped, err := sitefs.Load(dir)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		ux.Warn("skipped %s", s)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no pages found in %s", dir)
	}
	if name == "" {
		name = filepath.Base(filepath.Clean(dir))
	}
	p := &store.Project{Name: name, Pages: list}
	if readme, ok := pages.Find(list, "README.md"); ok {
		if fm, ok := sitefs.ParseReadme(readme.Content); ok {
			p.Meta = &fm
		}
	}
	if err := r.create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// generate runs one session. The returned error is ErrCancelled, a
// *failure.Failure, or a setup error.
func (r *Runner) generate(ctx context.Context, job Job) (*session.Result, string, error) {
	if t := r.Config.Provider.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t)*time.Minute)
		defer cancel()
	}
	job.ID = uuid.NewString()

	src, err := r.Opener.Open(ctx, job)
	if err != nil {
		if f, ok := failure.As(err); ok {
			ux.SessionFailed(f)
			return nil, "", err
		}
		if ctx.Err() != nil {
			return nil, "", r.interrupted(ctx, 0)
		}
		return nil, "", fmt.Errorf("starting generation: %w", err)
	}

	logPath, logFile := r.openLog(job.ID)
	if logFile != nil {
		defer logFile.Close()
		src = transport.Tee(src, logFile)
	}

	ctrl := session.NewController(r.Observer)
	res, err := ctrl.Run(ctx, src, session.Request{
		ID:          job.ID,
		Mode:        job.Mode,
		Prompt:      job.Prompt,
		Pages:       job.Pages,
		CurrentPage: job.CurrentPage,
	})
	if err != nil {
		if f, ok := failure.As(err); ok {
			ux.SessionFailed(f)
		}
		return nil, logPath, err
	}
	if res.State == session.Cancelled {
		return nil, logPath, r.interrupted(ctx, res.Elapsed)
	}
	return res, logPath, nil
}

func (r *Runner) interrupted(ctx context.Context, elapsed time.Duration) error {
	ux.SessionCancelled(elapsed)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("session timed out after %dm, nothing was saved", r.Config.Provider.Timeout)
	}
	return ErrCancelled
}

// openLog creates the raw response log. Failure only warns.
func (r *Runner) openLog(id string) (string, *os.File) {
	if r.DryRun || r.Config.LogDir == "" {
		return "", nil
	}
	dir := r.Config.LogPath(r.Root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		ux.Warn("cannot create log directory: %v", err)
		return "", nil
	}
	path := filepath.Join(dir, id+".log")
	f, err := os.Create(path)
	if err != nil {
		ux.Warn("cannot create session log: %v", err)
		return "", nil
	}
	return path, f
}

// create stores p under the first free slug derived from its name.
func (r *Runner) create(p *store.Project) error {
	base := sitefs.Slug(p.Name)
	if base == "" {
		base = "project"
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		p.Slug = base
		if i > 1 {
			suffix := fmt.Sprintf("-%d", i)
			p.Slug = sitefs.Slug(base[:min(len(base), sitefs.MaxSlugLen-len(suffix))]) + suffix
		}
		err := r.Store.Create(p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrExists) {
			return fmt.Errorf("creating project: %w", err)
		}
	}
	return fmt.Errorf("creating project: no free slug for %q", base)
}

// commit appends the session to the project history. Failure only warns
// since the pages are already saved.
func (r *Runner) commit(p *store.Project, res *session.Result, mode session.Mode, prompt, logPath string, before []pages.Page) {
	c := store.Commit{
		ID:       res.ID,
		Prompt:   prompt,
		Mode:     mode.String(),
		Summary:  summary(res.Conversation),
		Paths:    touchedPaths(mode, before, res),
		Changes:  res.Changes,
		Duration: ux.FormatDuration(res.Elapsed),
		Log:      logPath,
	}
	if _, err := r.Store.AddCommit(p.Slug, c); err != nil {
		ux.Warn("failed to record history for %s: %v", p.Slug, err)
	}
}

func (r *Runner) export(p *store.Project) error {
	if r.NoExport {
		return nil
	}
	dir := r.Config.SiteDir(r.Root, p.Slug)
	if err := Export(dir, p); err != nil {
		return fmt.Errorf("exporting %s: %w", p.Slug, err)
	}
	return nil
}

func (r *Runner) lockDir() string {
	return filepath.Join(r.Root, config.Dir, "locks")
}

// Export writes the project's pages under dir, adding a README.md built
// from the project's front matter when the pages carry none.
func Export(dir string, p *store.Project) error {
	list := pages.Clone(p.Pages)
	if _, ok := pages.Find(list, "README.md"); !ok && p.Meta != nil {
		readme, err := sitefs.Readme(*p.Meta)
		if err != nil {
			return err
		}
		list = append(list, pages.Page{Path: "README.md", Content: readme})
	}
	return sitefs.Write(dir, list)
}

// touchedPaths lists the pages a session created or edited.
func touchedPaths(mode session.Mode, before []pages.Page, res *session.Result) []string {
	if mode == session.ModeNewProject {
		return pages.Paths(res.Pages)
	}
	var out []string
	for _, p := range res.Pages {
		old, ok := pages.Find(before, p.Path)
		if !ok || old.Content != p.Content {
			out = append(out, p.Path)
		}
	}
	return out
}

func summary(conversation string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(conversation), "\n")
	if len(line) > 120 {
		line = line[:117] + "..."
	}
	return line
}
