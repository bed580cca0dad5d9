// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/issue"
)

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run [manifest] -- <command> [args...]",
		Short: "Run a manifest command through its discovered hierarchy",
		Long: `Build a command line from a module-level manifest command and its
discovered subcommands, then run it with the given arguments.

Leaf commands with an output template print it, expanding {args} and {path}.
Commands without one run their default subcommand or show help.`,
		Example: `  nestcmd run -- git remote add origin https://example.com/repo.git
  nestcmd run ./commands.yaml -- git status`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, rest := splitAtDash(args, cmd.ArgsLenAtDash())
			if len(rest) == 0 {
				return &ExitError{Code: ExitCodeUsage, Message: "run: missing command name after --"}
			}
			return app.exitError(app.runManifestCommand(cmd, manifestPath, rest[0], rest[1:]))
		},
	}
}

// splitAtDash separates the optional manifest argument from the command line
// that follows "--". Without a dash every argument belongs to the command.
func splitAtDash(args []string, dash int) (string, []string) {
	if dash < 0 {
		return "", args
	}
	return firstArg(args[:dash]), args[dash:]
}

func (a *App) runManifestCommand(parent *cobra.Command, manifestPath, name string, args []string) error {
	s, err := a.openSession(manifestPath)
	if err != nil {
		return err
	}
	root, err := s.findRoot(name)
	if err != nil {
		return err
	}

	cc, err := s.binder(a).Build(root.Handle)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("build command tree").
			WithResource(root.Key).
			WithIssue(issue.CommandTreeInvalidId).
			Wrap(err).
			BuildError()
	}
	cc.SetArgs(args)
	cc.SetOut(a.stdout)
	cc.SetErr(a.stderr)
	cc.SilenceErrors = true
	cc.SilenceUsage = true

	a.logger.Debug("running manifest command", "key", root.Key, "args", args)
	return cc.ExecuteContext(parent.Context())
}
