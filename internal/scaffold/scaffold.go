package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/sitegen/internal/config"
	"github.com/jorge-barreto/sitegen/internal/sitefs"
	"github.com/jorge-barreto/sitegen/internal/ux"
)

const configTemplate = `name: %s

provider:
  base-url: %s
  model: %s
  api-key-env: %s
  context-window: %d
  max-output-tokens: %d

# Uncomment to send prompts to a builder ask endpoint instead.
# endpoint:
#   url: http://localhost:3000/api/ask
#   token-env: BUILDER_TOKEN

output-dir: %s
`

const gitignore = `projects.db
logs/
*.lock
`

// Init creates a new .sitegen/ directory with a default config.
func Init(targetDir string) error {
	dir := filepath.Join(targetDir, config.Dir)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%s directory already exists in %s", config.Dir, targetDir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", config.Dir, err)
	}

	name := sitefs.Slug(filepath.Base(targetDir))
	if name == "" {
		name = "my-sites"
	}
	content := fmt.Sprintf(configTemplate, name,
		config.DefaultBaseURL, config.DefaultModel, config.DefaultAPIKeyEnv,
		config.DefaultContextWindow, config.DefaultMaxOutputTokens, config.DefaultOutputDir)

	if err := os.WriteFile(config.Path(targetDir), []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0644); err != nil {
		return fmt.Errorf("writing %s/.gitignore: %w", config.Dir, err)
	}

	fmt.Fprintf(ux.Out, "\n%s%s✓ Initialized %s/ directory%s\n\n", ux.Bold, ux.Green, config.Dir, ux.Reset)
	fmt.Fprintf(ux.Out, "  Created:\n")
	fmt.Fprintf(ux.Out, "    %s%s/config.yaml%s  workspace configuration\n\n", ux.Cyan, config.Dir, ux.Reset)
	fmt.Fprintf(ux.Out, "  Next steps:\n")
	fmt.Fprintf(ux.Out, "    1. Export %s%s%s with your provider token\n", ux.Cyan, config.DefaultAPIKeyEnv, ux.Reset)
	fmt.Fprintf(ux.Out, "    2. Run %ssitegen new \"<describe your site>\"%s\n\n", ux.Cyan, ux.Reset)

	return nil
}
