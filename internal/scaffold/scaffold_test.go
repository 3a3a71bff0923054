package scaffold

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/sitegen/internal/config"
	"github.com/jorge-barreto/sitegen/internal/ux"
)

func quiet(t *testing.T) {
	t.Helper()
	prev := ux.Out
	ux.Out = io.Discard
	t.Cleanup(func() { ux.Out = prev })
}

func TestInit_CreatesDirectoryStructure(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	for _, path := range []string{
		".sitegen",
		filepath.Join(".sitegen", "config.yaml"),
		filepath.Join(".sitegen", ".gitignore"),
	} {
		full := filepath.Join(dir, path)
		info, err := os.Stat(full)
		if err != nil {
			t.Fatalf("%s not created: %v", path, err)
		}
		if !info.IsDir() && info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestInit_GeneratedConfigIsValid(t *testing.T) {
	quiet(t)
	dir := filepath.Join(t.TempDir(), "My Sites")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := Init(dir); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cfg, err := config.Load(config.Path(dir), dir)
	if err != nil {
		t.Fatalf("config.Load failed on generated config: %v", err)
	}
	if cfg.Name != "my-sites" {
		t.Fatalf("name = %q, want %q", cfg.Name, "my-sites")
	}
	if cfg.Provider.Model != config.DefaultModel {
		t.Fatalf("model = %q", cfg.Provider.Model)
	}
	if cfg.Endpoint != nil {
		t.Fatalf("endpoint should be commented out, got %+v", cfg.Endpoint)
	}
}

func TestInit_FailsIfDirExists(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".sitegen"), 0755); err != nil {
		t.Fatal(err)
	}

	err := Init(dir)
	if err == nil {
		t.Fatal("expected error when .sitegen already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected error containing 'already exists', got: %s", err)
	}
}
