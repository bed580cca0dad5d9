// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/render"
)

func newTreeCommand(app *App) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "tree [manifest]",
		Short: "Show command hierarchies",
		Long: `Show the command hierarchy under every module-level command of a
manifest, or under a single command with --root.

Without a manifest argument, nestcmd.{cue,yaml,yml,toml} is looked up in the
current directory and in the configured manifest paths.`,
		Example: `  nestcmd tree
  nestcmd tree ./commands.yaml --root git.Remote
  nestcmd tree -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.exitError(app.runTree(firstArg(args), root))
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "type key (or unique type name) to start from")
	return cmd
}

func (a *App) runTree(manifestPath, root string) error {
	s, err := a.openSession(manifestPath)
	if err != nil {
		return err
	}
	nodes, err := s.trees(root)
	if err != nil {
		return err
	}

	entries := make([]*render.Entry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, render.FromTree(n))
	}
	if a.jsonOutput() {
		return render.JSON(a.stdout, entries)
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		if err := render.Text(a.stdout, e, a.styles()); err != nil {
			return err
		}
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
