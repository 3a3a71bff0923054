package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/sitegen/internal/config"
	"github.com/jorge-barreto/sitegen/internal/docs"
	"github.com/jorge-barreto/sitegen/internal/prompts"
	"github.com/jorge-barreto/sitegen/internal/runner"
	"github.com/jorge-barreto/sitegen/internal/scaffold"
	"github.com/jorge-barreto/sitegen/internal/session"
	"github.com/jorge-barreto/sitegen/internal/store"
	"github.com/jorge-barreto/sitegen/internal/ux"
)

func main() {
	app := &cli.Command{
		Name:        "sitegen",
		Usage:       "Generate and edit static websites with a language model",
		Description: "Run 'sitegen docs' for documentation on config, the response protocol, and editing.",
		Commands: []*cli.Command{
			initCmd(),
			newCmd(),
			editCmd(),
			replayCmd(),
			importCmd(),
			listCmd(),
			showCmd(),
			exportCmd(),
			deleteCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

// workspace is a loaded .sitegen directory with its store open.
type workspace struct {
	root  string
	cfg   *config.Config
	store *store.Store
}

func openWorkspace() (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Path(root), root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	st, err := store.Open(cfg.StorePath(root))
	if err != nil {
		return nil, err
	}
	return &workspace{root: root, cfg: cfg, store: st}, nil
}

func (w *workspace) close() {
	if err := w.store.Close(); err != nil {
		ux.Warn("closing store: %v", err)
	}
}

func (w *workspace) runner(opener runner.Opener, verbose bool) *runner.Runner {
	return &runner.Runner{
		Config:   w.cfg,
		Root:     w.root,
		Store:    w.store,
		Opener:   opener,
		Observer: ux.NewPreview(verbose),
	}
}

func estimator() *prompts.Estimator {
	est, err := prompts.NewEstimator()
	if err != nil {
		ux.Warn("token estimate unavailable: %v", err)
		return nil
	}
	return est
}

// printPlan prints what a generation would send. Only the direct provider
// transport can be sized locally.
func printPlan(opener runner.Opener, job runner.Job) error {
	o, ok := opener.(*runner.OpenAIOpener)
	if !ok {
		fmt.Printf("\n%sDry run:%s prompts are sent to the configured endpoint; nothing to size locally.\n\n", ux.Bold, ux.Reset)
		return nil
	}
	return o.PrintPlan(job)
}

func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

func generationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "dry-run", Usage: "Print the request plan without calling the model"},
		&cli.BoolFlag{Name: "no-export", Usage: "Store the result without writing files to the output directory"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Show the model's reasoning while it streams"},
	}
}

func newCmd() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Generate a new site from a prompt",
		ArgsUsage: "<prompt>",
		Flags:     generationFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if prompt == "" {
				return fmt.Errorf("prompt argument is required")
			}

			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			opener := runner.NewOpener(w.cfg, estimator())
			if cmd.Bool("dry-run") {
				return printPlan(opener, runner.Job{Mode: session.ModeNewProject, Prompt: prompt})
			}

			ctx, stop := withSignals(ctx)
			defer stop()

			r := w.runner(opener, cmd.Bool("verbose"))
			r.NoExport = cmd.Bool("no-export")
			p, err := r.New(ctx, prompt)
			if err != nil {
				return err
			}
			fmt.Printf("\n%sSaved:%s %s", ux.Bold, ux.Reset, p.Slug)
			if !r.NoExport {
				fmt.Printf(" -> %s", w.cfg.SiteDir(w.root, p.Slug))
			}
			fmt.Println()
			return nil
		},
	}
}

func editCmd() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "page", Usage: "Page that receives edits naming no file (default: index.html)"},
		&cli.StringFlag{Name: "element", Usage: "Restrict the edit to this HTML element"},
	}, generationFlags()...)
	return &cli.Command{
		Name:      "edit",
		Usage:     "Apply a follow-up prompt to a stored site",
		ArgsUsage: "<project> <prompt>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			prompt := strings.TrimSpace(strings.Join(cmd.Args().Tail(), " "))
			if slug == "" || prompt == "" {
				return fmt.Errorf("project and prompt arguments are required")
			}

			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			opener := runner.NewOpener(w.cfg, estimator())
			if cmd.Bool("dry-run") {
				p, err := w.store.Get(slug)
				if err != nil {
					return err
				}
				return printPlan(opener, runner.Job{
					Mode:            session.ModeFollowUp,
					Prompt:          prompt,
					PreviousPrompts: p.Prompts,
					Pages:           p.Pages,
					SelectedElement: cmd.String("element"),
				})
			}

			ctx, stop := withSignals(ctx)
			defer stop()

			r := w.runner(opener, cmd.Bool("verbose"))
			r.NoExport = cmd.Bool("no-export")
			_, err = r.Edit(ctx, slug, prompt, runner.EditOptions{
				CurrentPage:     cmd.String("page"),
				SelectedElement: cmd.String("element"),
			})
			return err
		},
	}
}

func replayCmd() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Run a recorded response through the session pipeline",
		ArgsUsage: "<log-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "Replay as an edit of this project"},
			&cli.StringFlag{Name: "prompt", Value: "replay", Usage: "Prompt recorded with the result"},
			&cli.BoolFlag{Name: "save", Usage: "Store the result instead of only printing it"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("log file argument is required")
			}

			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			ctx, stop := withSignals(ctx)
			defer stop()

			r := w.runner(runner.FileOpener{Path: path}, false)
			r.DryRun = !cmd.Bool("save")
			if slug := cmd.String("project"); slug != "" {
				_, err = r.Edit(ctx, slug, cmd.String("prompt"), runner.EditOptions{})
				return err
			}
			_, err = r.New(ctx, cmd.String("prompt"))
			return err
		},
	}
}

func importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Store an existing site directory as a project",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Project name (default: directory name)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return fmt.Errorf("directory argument is required")
			}
			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			p, err := w.runner(nil, false).Import(dir, cmd.String("name"))
			if err != nil {
				return err
			}
			fmt.Printf("%s✓ Imported %d page(s) as %s%s\n", ux.Green, len(p.Pages), p.Slug, ux.Reset)
			return nil
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored sites",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			list, err := w.store.List()
			if err != nil {
				return err
			}
			ux.RenderProjects(list)
			return nil
		},
	}
}

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a stored site and its history",
		ArgsUsage: "<project>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return fmt.Errorf("project argument is required")
			}
			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			p, err := w.store.Get(slug)
			if err != nil {
				return err
			}
			commits, err := w.store.Commits(slug)
			if err != nil {
				return err
			}
			ux.RenderProject(p, commits, w.cfg.SiteDir(w.root, slug))
			return nil
		},
	}
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a stored site's pages to disk",
		ArgsUsage: "<project>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Target directory (default: output-dir/<project>)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return fmt.Errorf("project argument is required")
			}
			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			p, err := w.store.Get(slug)
			if err != nil {
				return err
			}
			dir := cmd.String("dir")
			if dir == "" {
				dir = w.cfg.SiteDir(w.root, slug)
			}
			if err := runner.Export(dir, p); err != nil {
				return err
			}
			fmt.Printf("%s✓ Exported %d page(s) to %s%s\n", ux.Green, len(p.Pages), dir, ux.Reset)
			return nil
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove a stored site and its history",
		ArgsUsage: "<project>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return fmt.Errorf("project argument is required")
			}
			w, err := openWorkspace()
			if err != nil {
				return err
			}
			defer w.close()

			if err := w.store.Delete(slug); err != nil {
				return err
			}
			fmt.Printf("Deleted %s (exported files were left in place)\n", slug)
			return nil
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new .sitegen/ directory with a default config",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(dir)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'sitegen docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}
