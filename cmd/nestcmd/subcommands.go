// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/render"
)

func newSubcommandsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subcommands [manifest] <type>",
		Short: "List the direct subcommands of a command type",
		Long: `List the direct subcommand types of one command type: nominal types
nested directly inside it, declared in the same module, non-generic, and
conforming to the command protocol. Declaration order is kept.`,
		Example: `  nestcmd subcommands git.Remote
  nestcmd subcommands ./commands.cue Remote -f json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			manifestPath, key := "", args[0]
			if len(args) == 2 {
				manifestPath, key = args[0], args[1]
			}
			return app.exitError(app.runSubcommands(manifestPath, key))
		},
	}
}

func (a *App) runSubcommands(manifestPath, key string) error {
	s, err := a.openSession(manifestPath)
	if err != nil {
		return err
	}
	parent, err := s.resolve(key)
	if err != nil {
		return err
	}

	subs := s.finder.FindSubcommands(parent.Handle)
	entries := make([]*render.Entry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, render.NewEntry(sub))
	}

	if a.jsonOutput() {
		return render.JSON(a.stdout, entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(a.stdout, a.styles().Muted(fmt.Sprintf("%s has no subcommands", parent.Key)))
		return err
	}
	return render.List(a.stdout, entries, a.styles())
}
