package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jorge-barreto/sitegen/internal/config"
	"github.com/jorge-barreto/sitegen/internal/failure"
	"github.com/jorge-barreto/sitegen/internal/pages"
	"github.com/jorge-barreto/sitegen/internal/prompts"
	"github.com/jorge-barreto/sitegen/internal/session"
	"github.com/jorge-barreto/sitegen/internal/sitefs"
	"github.com/jorge-barreto/sitegen/internal/store"
	"github.com/jorge-barreto/sitegen/internal/transport"
	"github.com/jorge-barreto/sitegen/internal/ux"
)

const fence = "```"

// mockOpener records jobs and replays a fixed response for each.
type mockOpener struct {
	mu        sync.Mutex
	jobs      []Job
	responses []string
	err       error
}

func (m *mockOpener) Open(ctx context.Context, job Job) (transport.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	if m.err != nil {
		return nil, m.err
	}
	text := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return transport.NewReaderSource(strings.NewReader(text)), nil
}

func newFile(path, body string) string {
	return "<<<<<<< NEW_FILE_START " + path + " >>>>>>> NEW_FILE_END\n" + fence + "html\n" + body + "\n" + fence + "\n"
}

func updateFile(path, search, replace string) string {
	return "<<<<<<< UPDATE_FILE_START " + path + " >>>>>>> UPDATE_FILE_END\n" +
		"<<<<<<< SEARCH\n" + search + "\n=======\n" + replace + "\n>>>>>>> REPLACE\n"
}

var coffeeResponse = "<<<<<<< PROJECT_NAME_START Coffee Shop >>>>>>> PROJECT_NAME_END\n" +
	newFile("index.html", "<!DOCTYPE html><html><body><h1>Coffee</h1></body></html>") +
	newFile("menu.html", "<!DOCTYPE html><html><body><ul></ul></body></html>") +
	"Your site is ready.\n"

func newTestRunner(t *testing.T, opener Opener) *Runner {
	t.Helper()
	prev := ux.Out
	ux.Out = io.Discard
	t.Cleanup(func() { ux.Out = prev })

	root := t.TempDir()
	cfg := &config.Config{Name: "test"}
	if err := config.Validate(cfg, root); err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(cfg.StorePath(root))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return &Runner{Config: cfg, Root: root, Store: st, Opener: opener}
}

func TestNew_StoresAndExports(t *testing.T) {
	mock := &mockOpener{responses: []string{coffeeResponse}}
	r := newTestRunner(t, mock)

	p, err := r.New(context.Background(), "a coffee shop")
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "coffee-shop" || p.Name != "Coffee Shop" {
		t.Fatalf("project = %q / %q", p.Name, p.Slug)
	}

	got, err := r.Store.Get("coffee-shop")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Pages) != 2 || got.Pages[0].Path != "index.html" {
		t.Fatalf("stored pages = %v", pages.Paths(got.Pages))
	}
	if got.Meta == nil || got.Meta.Title != "Coffee Shop" {
		t.Fatalf("meta = %+v", got.Meta)
	}

	commits, err := r.Store.Commits("coffee-shop")
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 1 || commits[0].Mode != "new-project" || len(commits[0].Paths) != 2 {
		t.Fatalf("commits = %+v", commits)
	}
	if commits[0].Summary != "Your site is ready." {
		t.Fatalf("summary = %q", commits[0].Summary)
	}
	data, err := os.ReadFile(commits[0].Log)
	if err != nil {
		t.Fatalf("session log: %v", err)
	}
	if string(data) != coffeeResponse {
		t.Fatal("session log does not match the raw response")
	}

	siteDir := r.Config.SiteDir(r.Root, "coffee-shop")
	for _, name := range []string{"index.html", "menu.html", "README.md"} {
		if _, err := os.Stat(filepath.Join(siteDir, name)); err != nil {
			t.Fatalf("%s not exported: %v", name, err)
		}
	}
	if len(mock.jobs) != 1 || mock.jobs[0].Mode != session.ModeNewProject || mock.jobs[0].ID == "" {
		t.Fatalf("jobs = %+v", mock.jobs)
	}
}

func TestNew_SlugCollision(t *testing.T) {
	r := newTestRunner(t, &mockOpener{responses: []string{coffeeResponse}})
	if _, err := r.New(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	p, err := r.New(context.Background(), "two")
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "coffee-shop-2" {
		t.Fatalf("slug = %q, want coffee-shop-2", p.Slug)
	}
}

func TestNew_NoFiles(t *testing.T) {
	r := newTestRunner(t, &mockOpener{responses: []string{"I can't help with that."}})
	if _, err := r.New(context.Background(), "x"); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
	list, err := r.Store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %d projects", len(list))
	}
}

func TestNew_DryRunSavesNothing(t *testing.T) {
	r := newTestRunner(t, &mockOpener{responses: []string{coffeeResponse}})
	r.DryRun = true
	p, err := r.New(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "coffee-shop" {
		t.Fatalf("slug = %q", p.Slug)
	}
	if _, err := r.Store.Get("coffee-shop"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("dry run stored the project: %v", err)
	}
	if _, err := os.Stat(r.Config.LogPath(r.Root)); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote logs: %v", err)
	}
}

func TestEdit_MergesAndRecords(t *testing.T) {
	mock := &mockOpener{responses: []string{
		coffeeResponse,
		updateFile("index.html", "<h1>Coffee</h1>", "<h1>Best Coffee</h1>") +
			newFile("contact.html", "<!DOCTYPE html><html><body>Call us</body></html>"),
	}}
	r := newTestRunner(t, mock)
	if _, err := r.New(context.Background(), "a coffee shop"); err != nil {
		t.Fatal(err)
	}

	p, err := r.Edit(context.Background(), "coffee-shop", "better heading", EditOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if paths := pages.Paths(p.Pages); strings.Join(paths, ",") != "index.html,menu.html,contact.html" {
		t.Fatalf("paths = %v", paths)
	}
	idx, _ := pages.Find(p.Pages, "index.html")
	if !strings.Contains(idx.Content, "Best Coffee") {
		t.Fatalf("index not edited: %q", idx.Content)
	}
	if len(p.Prompts) != 2 || p.Prompts[1] != "better heading" {
		t.Fatalf("prompts = %v", p.Prompts)
	}

	job := mock.jobs[1]
	if job.Mode != session.ModeFollowUp || len(job.Pages) != 2 || len(job.PreviousPrompts) != 1 {
		t.Fatalf("follow-up job = %+v", job)
	}

	commits, err := r.Store.Commits("coffee-shop")
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}
	c := commits[1]
	if c.Mode != "follow-up" || strings.Join(c.Paths, ",") != "index.html,contact.html" {
		t.Fatalf("commit = %+v", c)
	}
	if len(c.Changes) != 1 || c.Changes[0].Path != "index.html" {
		t.Fatalf("changes = %+v", c.Changes)
	}

	data, err := os.ReadFile(filepath.Join(r.Config.SiteDir(r.Root, "coffee-shop"), "contact.html"))
	if err != nil || !strings.Contains(string(data), "Call us") {
		t.Fatalf("contact.html not exported: %v", err)
	}
}

func TestEdit_FailureSavesNothing(t *testing.T) {
	mock := &mockOpener{responses: []string{
		coffeeResponse,
		`{"ok":false,"openLogin":true,"message":"Log In to continue"}`,
	}}
	r := newTestRunner(t, mock)
	if _, err := r.New(context.Background(), "a coffee shop"); err != nil {
		t.Fatal(err)
	}

	_, err := r.Edit(context.Background(), "coffee-shop", "x", EditOptions{})
	f, ok := failure.As(err)
	if !ok || f.Reason != failure.LoginRequired {
		t.Fatalf("expected login failure, got %v", err)
	}
	p, _ := r.Store.Get("coffee-shop")
	if len(p.Prompts) != 1 {
		t.Fatalf("failed edit was saved: %v", p.Prompts)
	}
}

func TestEdit_Cancelled(t *testing.T) {
	mock := &mockOpener{responses: []string{coffeeResponse}}
	r := newTestRunner(t, mock)
	if _, err := r.New(context.Background(), "a coffee shop"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Edit(ctx, "coffee-shop", "x", EditOptions{}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	commits, _ := r.Store.Commits("coffee-shop")
	if len(commits) != 1 {
		t.Fatalf("cancelled edit recorded a commit")
	}
}

func TestEdit_Locked(t *testing.T) {
	r := newTestRunner(t, &mockOpener{responses: []string{coffeeResponse}})
	if _, err := r.New(context.Background(), "a coffee shop"); err != nil {
		t.Fatal(err)
	}
	lock, err := store.LockProject(r.lockDir(), "coffee-shop")
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Unlock()

	if _, err := r.Edit(context.Background(), "coffee-shop", "x", EditOptions{}); !errors.Is(err, store.ErrProjectLocked) {
		t.Fatalf("expected ErrProjectLocked, got %v", err)
	}
}

func TestEdit_UnknownProject(t *testing.T) {
	r := newTestRunner(t, &mockOpener{responses: []string{coffeeResponse}})
	if _, err := r.Edit(context.Background(), "missing", "x", EditOptions{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerate_OpenError(t *testing.T) {
	r := newTestRunner(t, &mockOpener{err: &failure.Failure{Reason: failure.QuotaExceeded, Message: "out of credits"}})
	_, err := r.New(context.Background(), "x")
	if f, ok := failure.As(err); !ok || f.Reason != failure.QuotaExceeded {
		t.Fatalf("expected quota failure, got %v", err)
	}
}

func TestImport(t *testing.T) {
	r := newTestRunner(t, &mockOpener{})
	dir := filepath.Join(t.TempDir(), "Old Site")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := r.Import(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "old-site" || len(p.Pages) != 1 {
		t.Fatalf("imported = %+v", p)
	}
}

func TestFileOpener_Missing(t *testing.T) {
	if _, err := (FileOpener{Path: filepath.Join(t.TempDir(), "nope.log")}).Open(context.Background(), Job{}); err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestOpenAIOpener_Request(t *testing.T) {
	o := &OpenAIOpener{Provider: config.Provider{
		Model:           "deepseek-ai/DeepSeek-V3-0324",
		Name:            "novita",
		ContextWindow:   131072,
		MaxOutputTokens: 16384,
	}}
	req, input, err := o.Request(Job{
		Mode:            session.ModeFollowUp,
		Prompt:          "make it blue",
		PreviousPrompts: []string{"a coffee shop"},
		Pages:           []pages.Page{{Path: "index.html", Content: "<html></html>"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Model != "deepseek-ai/DeepSeek-V3-0324:novita" {
		t.Fatalf("model = %q", req.Model)
	}
	if input != 0 || req.MaxTokens != 16384 {
		t.Fatalf("input=%d max=%d", input, req.MaxTokens)
	}
	if len(req.Messages) != 4 {
		t.Fatalf("expected 4 follow-up messages, got %d", len(req.Messages))
	}
}

func TestOpenAIOpener_ContextExceeded(t *testing.T) {
	o := &OpenAIOpener{Provider: config.Provider{Model: "m", ContextWindow: 1000}}
	if _, _, err := o.Request(Job{Mode: session.ModeNewProject, Prompt: "x"}); !errors.Is(err, prompts.ErrContextExceeded) {
		t.Fatalf("expected ErrContextExceeded, got %v", err)
	}
}

func TestCreate_LongSlugSuffixStaysLockable(t *testing.T) {
	r := newTestRunner(t, &mockOpener{})
	name := strings.Repeat("a", sitefs.MaxSlugLen+10)
	first := &store.Project{Name: name, Pages: []pages.Page{{Path: "index.html", Content: "<p>1</p>"}}}
	second := &store.Project{Name: name, Pages: []pages.Page{{Path: "index.html", Content: "<p>2</p>"}}}
	if err := r.create(first); err != nil {
		t.Fatal(err)
	}
	if err := r.create(second); err != nil {
		t.Fatal(err)
	}
	if len(second.Slug) > sitefs.MaxSlugLen || !strings.HasSuffix(second.Slug, "-2") {
		t.Fatalf("slug = %q", second.Slug)
	}
	lock, err := store.LockProject(r.lockDir(), second.Slug)
	if err != nil {
		t.Fatalf("suffixed slug rejected: %v", err)
	}
	lock.Unlock()
}
