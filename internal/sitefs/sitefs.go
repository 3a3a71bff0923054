// Package sitefs moves pages between the store and a directory on disk.
package sitefs

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/jorge-barreto/sitegen/internal/pages"
)

// maxFileSize bounds the files Load reads; larger files are skipped.
const maxFileSize = 512 * 1024

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".sitegen":     true,
	".venv":        true,
	"__pycache__":  true,
}

// textExtensions are the files Load turns into pages.
var textExtensions = map[string]bool{
	".html": true, ".htm": true, ".css": true, ".js": true, ".mjs": true,
	".json": true, ".md": true, ".txt": true, ".svg": true, ".xml": true,
	".ts": true, ".jsx": true, ".tsx": true, ".vue": true,
}

// Load reads the site files under dir as pages. The root document comes
// first; the rest are sorted by path. Paths matched by the directory's
// .gitignore are left out. Skipped lists files left out because they were
// too large.
func Load(dir string) (list []pages.Page, skipped []string, err error) {
	ig, err := loadIgnore(dir)
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skipDirs[d.Name()] || (ig != nil && ig.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !textExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		if ig != nil && ig.MatchesPath(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxFileSize {
			skipped = append(skipped, rel)
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		list = append(list, pages.Page{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", dir, err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := pages.IsRootDocument(list[i].Path), pages.IsRootDocument(list[j].Path)
		if ri != rj {
			return ri
		}
		return list[i].Path < list[j].Path
	})
	return list, skipped, nil
}

// loadIgnore compiles dir/.gitignore. A missing file yields nil.
func loadIgnore(dir string) (*gitignore.GitIgnore, error) {
	fn := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(fn); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ig, err := gitignore.CompileIgnoreFile(fn)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fn, err)
	}
	return ig, nil
}

// Write writes every page under dir, creating directories as needed. Each
// file is replaced atomically.
func Write(dir string, list []pages.Page) error {
	for _, p := range list {
		rel, err := cleanPath(p.Path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", rel, err)
		}
		if err := writeFileAtomic(target, []byte(p.Content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}
	return nil
}

// cleanPath maps a page path to a relative file path, rejecting paths that
// would escape the output directory. The root document aliases map to
// index.html.
func cleanPath(p string) (string, error) {
	if pages.IsRootDocument(p) {
		return pages.RootDocument, nil
	}
	clean := path.Clean(strings.TrimPrefix(p, "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", fmt.Errorf("page path %q is outside the site directory", p)
	}
	return clean, nil
}
