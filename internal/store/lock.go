package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/jorge-barreto/sitegen/internal/sitefs"
)

// ProjectLock holds a project exclusively across processes so that two
// generation sessions never edit the same project at once.
type ProjectLock struct {
	fl *flock.Flock
}

// LockProject takes the lock file for slug under dir without waiting. It
// returns ErrProjectLocked when another process holds it and ErrInvalidSlug
// when slug is not in canonical form.
func LockProject(dir, slug string) (*ProjectLock, error) {
	if slug == "" || sitefs.Slug(slug) != slug {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	fl := flock.New(filepath.Join(dir, slug+".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking project %s: %w", slug, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectLocked, slug)
	}
	return &ProjectLock{fl: fl}, nil
}

// Unlock releases the lock.
func (l *ProjectLock) Unlock() error {
	return l.fl.Unlock()
}
