package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jorge-barreto/sitegen/internal/pages"
	"github.com/jorge-barreto/sitegen/internal/patch"
	"github.com/jorge-barreto/sitegen/internal/session"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "projects.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateGet(t *testing.T) {
	s := openTemp(t)
	p := &Project{Name: "Todo App", Slug: "todo-app", Pages: []pages.Page{{Path: "index.html", Content: "<html></html>"}}}
	if err := s.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatal("Create did not fill ID and timestamps")
	}

	got, err := s.Get("todo-app")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Todo App" || len(got.Pages) != 1 || got.Pages[0].Content != "<html></html>" {
		t.Fatalf("unexpected project: %+v", got)
	}

	if err := s.Create(&Project{Name: "dup", Slug: "todo-app"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Save(&Project{Slug: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Save, got %v", err)
	}
}

func TestStore_SaveAndList(t *testing.T) {
	s := openTemp(t)
	a := &Project{Name: "A", Slug: "a"}
	b := &Project{Name: "B", Slug: "b"}
	if err := s.Create(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(b); err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)
	a.Prompts = append(a.Prompts, "make it blue")
	if err := s.Save(a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Slug != "a" {
		t.Fatalf("expected most recently updated first, got %+v", list)
	}
	if len(list[0].Prompts) != 1 {
		t.Fatalf("saved prompts lost: %+v", list[0])
	}
}

func TestStore_Commits(t *testing.T) {
	s := openTemp(t)
	if err := s.Create(&Project{Name: "A", Slug: "a"}); err != nil {
		t.Fatal(err)
	}

	first, err := s.AddCommit("a", Commit{Prompt: "create", Mode: "new-project", Paths: []string{"index.html"}})
	if err != nil {
		t.Fatalf("AddCommit: %v", err)
	}
	second, err := s.AddCommit("a", Commit{
		Prompt:  "edit",
		Mode:    "follow-up",
		Changes: []session.FileChanges{{Path: "index.html", Changes: []patch.Change{{StartLine: 2, EndLine: 3}}}},
	})
	if err != nil {
		t.Fatalf("AddCommit: %v", err)
	}
	if first.Seq != 1 || second.Seq != 2 || first.ID == second.ID {
		t.Fatalf("unexpected sequence: %+v %+v", first, second)
	}

	commits, err := s.Commits("a")
	if err != nil {
		t.Fatalf("Commits: %v", err)
	}
	if len(commits) != 2 || commits[0].Prompt != "create" || commits[1].Changes[0].Changes[0].EndLine != 3 {
		t.Fatalf("unexpected history: %+v", commits)
	}

	if _, err := s.AddCommit("missing", Commit{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTemp(t)
	if err := s.Create(&Project{Name: "A", Slug: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddCommit("a", Commit{Prompt: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOpen_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := Open(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestLockProject(t *testing.T) {
	dir := t.TempDir()
	l, err := LockProject(dir, "a")
	if err != nil {
		t.Fatalf("LockProject: %v", err)
	}
	if _, err := LockProject(dir, "a"); !errors.Is(err, ErrProjectLocked) {
		t.Fatalf("expected ErrProjectLocked, got %v", err)
	}
	other, err := LockProject(dir, "b")
	if err != nil {
		t.Fatalf("other projects should not be blocked: %v", err)
	}
	other.Unlock()

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	again, err := LockProject(dir, "a")
	if err != nil {
		t.Fatalf("expected lock after unlock, got %v", err)
	}
	again.Unlock()
}

func TestLockProject_RejectsNonCanonicalSlug(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	for _, slug := range []string{"", "../x", "a/b", "Coffee Shop"} {
		if _, err := LockProject(dir, slug); !errors.Is(err, ErrInvalidSlug) {
			t.Errorf("LockProject(%q): expected ErrInvalidSlug, got %v", slug, err)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "x.lock")); !os.IsNotExist(err) {
		t.Fatalf("lock file created outside the lock directory: %v", err)
	}
}
