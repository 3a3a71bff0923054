// Package store keeps generated projects and their edit history in a bbolt
// database.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/jorge-barreto/sitegen/internal/pages"
	"github.com/jorge-barreto/sitegen/internal/session"
	"github.com/jorge-barreto/sitegen/internal/sitefs"
)

var (
	ErrNotFound = errors.New("project not found")
	ErrExists   = errors.New("project already exists")
	ErrLocked   = errors.New("project store is in use by another process")

	ErrProjectLocked = errors.New("project is being edited by another process")
	ErrInvalidSlug   = errors.New("invalid project slug")
)

var (
	projectsBucket = []byte("projects")
	commitsBucket  = []byte("commits")
)

// openTimeout bounds how long Open waits for another process's lock.
const openTimeout = time.Second

// Project is a stored site. Meta is the README front matter written on
// export.
type Project struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Slug      string              `json:"slug"`
	Prompts   []string            `json:"prompts"`
	Pages     []pages.Page        `json:"pages"`
	Meta      *sitefs.FrontMatter `json:"meta,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Commit records one completed session against a project.
type Commit struct {
	ID       string                `json:"id"`
	Seq      uint64                `json:"seq"`
	Prompt   string                `json:"prompt"`
	Mode     string                `json:"mode"`
	Summary  string                `json:"summary,omitempty"`
	Paths    []string              `json:"paths"`
	Changes  []session.FileChanges `json:"changes,omitempty"`
	Duration string                `json:"duration"`
	Log      string                `json:"log,omitempty"`
	Created  time.Time             `json:"created"`
}

// Store is a handle on the database file.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("opening store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{projectsBucket, commitsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new project, assigning its ID and timestamps.
func (s *Store) Create(p *Project) error {
	if p.Slug == "" {
		return fmt.Errorf("project %q has no slug", p.Name)
	}
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(projectsBucket)
		if b.Get([]byte(p.Slug)) != nil {
			return fmt.Errorf("%w: %s", ErrExists, p.Slug)
		}
		return putJSON(b, []byte(p.Slug), p)
	})
}

// Save overwrites an existing project and bumps UpdatedAt.
func (s *Store) Save(p *Project) error {
	p.UpdatedAt = time.Now().UTC()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(projectsBucket)
		if b.Get([]byte(p.Slug)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, p.Slug)
		}
		return putJSON(b, []byte(p.Slug), p)
	})
}

// Get loads a project by slug.
func (s *Store) Get(slug string) (*Project, error) {
	var p Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(projectsBucket).Get([]byte(slug))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, slug)
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all projects, most recently updated first.
func (s *Store) List() ([]Project, error) {
	var out []Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(projectsBucket).ForEach(func(k, v []byte) error {
			var p Project
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decoding project %s: %w", k, err)
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a project and its history.
func (s *Store) Delete(slug string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(projectsBucket)
		if b.Get([]byte(slug)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, slug)
		}
		if err := b.Delete([]byte(slug)); err != nil {
			return err
		}
		err := tx.Bucket(commitsBucket).DeleteBucket([]byte(slug))
		if err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
}

// AddCommit appends c to the project's history and returns it with its
// sequence number filled in. An empty ID is assigned one.
func (s *Store) AddCommit(slug string, c Commit) (Commit, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(projectsBucket).Get([]byte(slug)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, slug)
		}
		b, err := tx.Bucket(commitsBucket).CreateBucketIfNotExists([]byte(slug))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.Seq = seq
		if c.Created.IsZero() {
			c.Created = time.Now().UTC()
		}
		return putJSON(b, seqKey(seq), c)
	})
	return c, err
}

// Commits returns the project's history, oldest first.
func (s *Store) Commits(slug string) ([]Commit, error) {
	var out []Commit
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(projectsBucket).Get([]byte(slug)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, slug)
		}
		b := tx.Bucket(commitsBucket).Bucket([]byte(slug))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var c Commit
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	return out, err
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// seqKey encodes seq big-endian so keys sort in insertion order.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
