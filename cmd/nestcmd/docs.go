// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/render"
)

func newDocsCommand(app *App) *cobra.Command {
	var (
		root  string
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "docs [manifest]",
		Short: "Render reference documentation for manifest commands",
		Long: `Render a markdown reference page for every module-level command, or for
one command with --root. Hidden commands are left out.`,
		Example: `  nestcmd docs
  nestcmd docs --root git.Git --raw > git.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.exitError(app.runDocs(firstArg(args), root, raw, width))
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "type key (or unique type name) to document")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal rendering")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width")
	return cmd
}

func (a *App) runDocs(manifestPath, root string, raw bool, width int) error {
	s, err := a.openSession(manifestPath)
	if err != nil {
		return err
	}
	nodes, err := s.trees(root)
	if err != nil {
		return err
	}

	pages := make([]string, 0, len(nodes))
	for _, n := range nodes {
		pages = append(pages, render.Markdown(render.FromTree(n)))
	}
	md := strings.Join(pages, "\n")

	if raw {
		_, err := io.WriteString(a.stdout, md)
		return err
	}
	out, err := render.Docs(md, render.DocsOptions{Style: a.glamourStyle(), Width: width})
	if err != nil {
		return fmt.Errorf("failed to render docs: %w", err)
	}
	_, err = io.WriteString(a.stdout, out)
	return err
}
