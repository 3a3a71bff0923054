package session

import (
	"strings"

	"github.com/jorge-barreto/sitegen/internal/failure"
	"github.com/jorge-barreto/sitegen/internal/fileblocks"
	"github.com/jorge-barreto/sitegen/internal/markers"
	"github.com/jorge-barreto/sitegen/internal/pages"
	"github.com/jorge-barreto/sitegen/internal/patch"
)

// session is the per-call state. It is owned by the goroutine running
// Controller.Run and discarded when Run returns.
type session struct {
	req      Request
	obs      Observer
	acc      Accumulator
	surfaced map[string]bool
	thought  string
}

func newSession(req Request, obs Observer) *session {
	return &session{
		req:      req,
		obs:      obs,
		surfaced: make(map[string]bool),
	}
}

// base is the page set responses are applied to.
func (s *session) base() []pages.Page {
	if s.req.Mode == ModeNewProject {
		return nil
	}
	return pages.Clone(s.req.Pages)
}

// earlyFailure reports a failure payload as soon as the buffer holds one.
func (s *session) earlyFailure() *failure.Failure {
	f, ok := failure.FromPayload(s.acc.Snapshot())
	if !ok {
		return nil
	}
	return f
}

// preview pushes the best-effort page set to the observer.
func (s *session) preview() {
	text := s.acc.Snapshot()

	if thought, done, ok := markers.Thinking(text); ok && thought != s.thought {
		s.thought = thought
		s.obs.Thinking(thought, done)
	}

	blocks := fileblocks.Extract(markers.StripThinking(text), fileblocks.Streaming)
	if len(blocks) == 0 {
		return
	}

	working := s.base()
	var fresh []string
	for _, b := range blocks {
		switch b.Kind {
		case fileblocks.KindNewFile:
			working = pages.Upsert(working, pages.Page{Path: b.Path, Content: b.Content})
		case fileblocks.KindUpdateFile:
			p, ok := pages.Find(working, b.Path)
			if !ok {
				continue
			}
			r := patch.ApplyBlock(p.Content, b.Raw)
			working = pages.Upsert(working, pages.Page{Path: b.Path, Content: r.Content})
		}
		if !s.surfaced[b.Path] {
			s.surfaced[b.Path] = true
			fresh = append(fresh, b.Path)
		}
	}

	s.obs.Pages(working)
	for _, path := range fresh {
		if pages.IsPreviewable(path) {
			s.obs.Select(path)
			break
		}
	}
}

// finalize runs the authoritative pass and fills res.
func (s *session) finalize(res *Result) *failure.Failure {
	raw := s.acc.Snapshot()
	body := markers.StripThinking(raw)
	if f, ok := failure.FromPayload(body); ok {
		return f
	}

	res.Thinking, _, _ = markers.Thinking(raw)
	res.Conversation = fileblocks.Conversation(raw)

	blocks := fileblocks.Extract(body, fileblocks.Authoritative)
	a := applier{working: s.base()}
	for _, b := range blocks {
		switch b.Kind {
		case fileblocks.KindNewFile:
			a.create(b.Path, b.Content)
		case fileblocks.KindUpdateFile:
			a.update(b.Path, b.Raw)
		}
	}

	// Bare SEARCH/REPLACE edits with no file header target one page.
	if len(blocks) == 0 && strings.Contains(body, markers.SearchStart) {
		target := s.req.CurrentPage
		if target == "" {
			target = pages.RootDocument
			if root, ok := pages.FindRoot(a.working); ok {
				target = root.Path
			}
		}
		a.update(target, body)
	}

	if s.req.Mode == ModeNewProject {
		res.Pages = a.touched
		if name, ok := fileblocks.ProjectName(body); ok {
			res.ProjectName = name
		} else {
			res.ProjectName = fileblocks.FallbackProjectName(s.req.Prompt)
		}
	} else {
		res.Pages = pages.Merge(s.req.Pages, a.touched)
	}
	res.Changes = a.changes
	res.Skipped = a.skipped
	res.ActivePage = activePage(res.Pages, s.req.CurrentPage)
	return nil
}

// activePage picks the page to show once a session completes.
func activePage(list []pages.Page, current string) string {
	if root, ok := pages.FindRoot(list); ok {
		return root.Path
	}
	if _, ok := pages.Find(list, current); ok {
		return current
	}
	for _, p := range list {
		if pages.IsPreviewable(p.Path) {
			return p.Path
		}
	}
	if len(list) > 0 {
		return list[0].Path
	}
	return ""
}

// applier accumulates the authoritative page mutations of one response.
type applier struct {
	working []pages.Page // base plus everything applied so far
	touched []pages.Page // pages created or modified, in first-touch order
	changes []FileChanges
	skipped []Skip
}

func (a *applier) put(p pages.Page) {
	a.working = pages.Upsert(a.working, p)
	a.touched = pages.Upsert(a.touched, p)
}

func (a *applier) create(path, content string) {
	a.put(pages.Page{Path: path, Content: content})
}

func (a *applier) update(path, raw string) {
	p, ok := pages.Find(a.working, path)
	if !ok {
		a.skipped = append(a.skipped, Skip{Path: path, Reason: "page does not exist"})
		return
	}

	r := patch.ApplyBlock(p.Content, raw)
	for _, d := range r.Dropped {
		a.skipped = append(a.skipped, Skip{Path: path, Reason: "search text not found", Search: d.Search})
	}
	if len(r.Changes) == 0 {
		return
	}
	a.put(pages.Page{Path: path, Content: r.Content})
	a.addChanges(path, r.Changes)
}

func (a *applier) addChanges(path string, changes []patch.Change) {
	for i := range a.changes {
		if a.changes[i].Path == path {
			a.changes[i].Changes = append(a.changes[i].Changes, changes...)
			return
		}
	}
	a.changes = append(a.changes, FileChanges{Path: path, Changes: changes})
}
