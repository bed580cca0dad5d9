// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/discovery"
	"github.com/invowk/nestcmd/internal/issue"
	"github.com/invowk/nestcmd/internal/render"
	"github.com/invowk/nestcmd/internal/watch"
	"github.com/invowk/nestcmd/pkg/manifest"
)

const watchDebounce = 300 * time.Millisecond

type validationResult struct {
	Valid    bool     `json:"valid"`
	Path     string   `json:"path"`
	Modules  int      `json:"modules,omitempty"`
	Commands int      `json:"commands,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

func newValidateCommand(app *App) *cobra.Command {
	var watchFlag bool

	cmd := &cobra.Command{
		Use:   "validate [manifest]",
		Short: "Check a manifest for errors",
		Long: `Parse a manifest and check its declarations: names, parents, extensions,
default subcommands, explicit subcommand lists and parent cycles.

All problems are reported at once. The exit status is 1 when any is found.

With --watch the manifest is validated again whenever it changes, until
interrupted.`,
		Example: `  nestcmd validate
  nestcmd validate ./commands.toml -f json
  nestcmd validate --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchFlag {
				return app.exitError(app.watchValidate(cmd.Context(), firstArg(args)))
			}
			return app.exitError(app.runValidate(firstArg(args)))
		},
	}
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "validate again on every manifest change")
	return cmd
}

func (a *App) runValidate(arg string) error {
	path, err := a.locateManifest(arg)
	if err != nil {
		return err
	}

	m, err := manifest.Parse(path)
	if err != nil {
		if a.jsonOutput() {
			if encErr := render.JSON(a.stdout, validationResult{Path: path, Errors: errorList(err)}); encErr != nil {
				return encErr
			}
			return &ExitError{Code: ExitCodeFailure, Message: fmt.Sprintf("%s is not valid", path), Err: err}
		}
		id := issue.ManifestInvalidId
		if errors.Is(err, manifest.ErrUnsupportedFormat) {
			id = issue.UnsupportedFormatId
		}
		return issue.NewErrorContext().
			WithOperation("validate manifest").
			WithResource(path).
			WithIssue(id).
			Wrap(err).
			BuildError()
	}

	res := validationResult{Valid: true, Path: path, Modules: len(m.Modules)}
	for _, mod := range m.Modules {
		for i := range mod.Commands {
			if mod.Commands[i].IsCommand() {
				res.Commands++
			}
		}
	}
	if a.jsonOutput() {
		return render.JSON(a.stdout, res)
	}
	_, err = fmt.Fprintln(a.stdout, a.paint(SuccessStyle, fmt.Sprintf("✓ %s: %d module(s), %d command(s)", path, res.Modules, res.Commands)))
	return err
}

// watchValidate validates once, then after every change to the manifest or
// to a manifest appearing in the working directory.
func (a *App) watchValidate(ctx context.Context, arg string) error {
	report := func() {
		if err := a.runValidate(arg); err != nil {
			fmt.Fprintln(a.stderr, a.paint(ErrorStyle, "✗ ")+formatErrorForDisplay(err, a.Options.Verbose))
		}
	}
	report()

	cfg := watch.Config{
		Debounce: watchDebounce,
		Logger:   a.logger,
		OnChange: func(_ context.Context, changed []string) error {
			a.logger.Info("revalidating", "changed", changed)
			report()
			return nil
		},
	}
	if arg != "" {
		cfg.Files = []string{arg}
	} else {
		cfg.Dirs = []string{a.workDir}
		cfg.Patterns = []string{manifestPattern()}
		if path, err := a.locateManifest(""); err == nil {
			cfg.Files = []string{path}
		}
	}

	w, err := watch.New(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stderr, a.paint(SubtitleStyle, "watching for manifest changes (Ctrl+C to stop)"))
	return w.Run(ctx)
}

// manifestPattern matches the base names found by manifest discovery.
func manifestPattern() string {
	exts := make([]string, 0, len(discovery.ManifestExtensions()))
	for _, ext := range discovery.ManifestExtensions() {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	return discovery.ManifestBaseName + ".{" + strings.Join(exts, ",") + "}"
}

// errorList flattens joined errors into one message each.
func errorList(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorList(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
