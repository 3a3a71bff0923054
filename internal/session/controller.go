// Package session drives one model response from the first chunk to the
// final page set.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jorge-barreto/sitegen/internal/failure"
	"github.com/jorge-barreto/sitegen/internal/pages"
	"github.com/jorge-barreto/sitegen/internal/patch"
	"github.com/jorge-barreto/sitegen/internal/transport"
)

// ErrSessionActive is returned by Run while another session is in flight.
var ErrSessionActive = errors.New("a generation session is already active")

// Observer receives live preview updates while a response streams in. The
// pages it sees are presentation only; the committed set is Result.Pages.
type Observer interface {
	// Pages is called with the best-effort page set after each chunk that
	// carries file content.
	Pages(list []pages.Page)
	// Select is called when a page worth previewing first appears.
	Select(path string)
	// Thinking is called when the model's reasoning text changes.
	Thinking(text string, done bool)
}

// NopObserver ignores every update.
type NopObserver struct{}

func (NopObserver) Pages([]pages.Page)    {}
func (NopObserver) Select(string)         {}
func (NopObserver) Thinking(string, bool) {}

// Request describes one generation call.
type Request struct {
	// ID names the session. One is generated when empty.
	ID     string
	Mode   Mode
	Prompt string
	// Pages is the project's current page set. It is never modified.
	Pages []pages.Page
	// CurrentPage receives bare SEARCH/REPLACE edits that name no file.
	// Empty means the root document.
	CurrentPage string
}

// FileChanges lists the line ranges touched in one file.
type FileChanges struct {
	Path    string         `json:"path"`
	Changes []patch.Change `json:"changes"`
}

// Skip records an edit that could not be applied.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Search string `json:"search,omitempty"`
}

// Result is the outcome of a session.
type Result struct {
	ID           string
	State        State
	Pages        []pages.Page
	Changes      []FileChanges
	ProjectName  string
	ActivePage   string
	Thinking     string
	Conversation string
	Skipped      []Skip
	Raw          string
	Elapsed      time.Duration
}

// Controller runs sessions one at a time.
type Controller struct {
	obs Observer

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// NewController returns a controller reporting previews to obs.
func NewController(obs Observer) *Controller {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Controller{obs: obs}
}

// State returns the state of the current or most recent session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cancel aborts the active session, if any. It is safe to call at any time.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run consumes src until it ends and returns the final page set.
//
// A cancelled session returns a Result in state Cancelled and a nil error.
// A session that fails returns a Result in state Failed and a
// *failure.Failure. In both cases Result.Pages is nil: nothing is committed.
func (c *Controller) Run(ctx context.Context, src transport.Source, req Request) (*Result, error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = Streaming
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	// Closing the source unblocks a Next stuck in a read.
	stop := context.AfterFunc(ctx, func() { src.Close() })
	defer stop()
	defer src.Close()

	start := time.Now()
	s := newSession(req, c.obs)
	res := &Result{ID: req.ID}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	finish := func(state State, err error) (*Result, error) {
		c.setState(state)
		res.State = state
		res.Raw = s.acc.Snapshot()
		res.Elapsed = time.Since(start)
		if state != Completed {
			res.Pages = nil
			res.Changes = nil
		}
		return res, err
	}

	for {
		text, err := src.Next(ctx)
		if text != "" && ctx.Err() == nil {
			s.acc.Append(text)
			if f := s.earlyFailure(); f != nil {
				return finish(Failed, f)
			}
			s.preview()
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return finish(Cancelled, nil)
			}
			if f := failure.Classify(err); f != nil {
				return finish(Failed, f)
			}
			return finish(Cancelled, nil)
		}
	}

	c.setState(Finalizing)
	if ctx.Err() != nil {
		return finish(Cancelled, nil)
	}

	if f := s.finalize(res); f != nil {
		return finish(Failed, f)
	}
	if ctx.Err() != nil {
		return finish(Cancelled, nil)
	}
	return finish(Completed, nil)
}
