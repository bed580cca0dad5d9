// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/config"
	"github.com/invowk/nestcmd/internal/issue"
	"github.com/invowk/nestcmd/internal/render"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage nestcmd configuration",
		Long: `Manage the nestcmd configuration file.

The configuration is written in CUE and looked up in order at --config, in
the user config directory, and at ./config.cue. NESTCMD_* environment
variables override file values.`,
	}
	cmd.AddCommand(
		newConfigShowCommand(app),
		newConfigInitCommand(app),
		newConfigPathCommand(app),
	)
	return cmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if app.jsonOutput() {
				return app.exitError(render.JSON(app.stdout, struct {
					Path   string         `json:"path,omitempty"`
					Config *config.Config `json:"config"`
				}{app.cfgPath, app.cfg}))
			}
			source := app.cfgPath
			if source == "" {
				source = "defaults"
			}
			fmt.Fprintln(app.stdout, app.paint(SubtitleStyle, "// source: "+source))
			fmt.Fprint(app.stdout, config.GenerateCUE(app.cfg))
			return nil
		},
	}
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file with the default settings to --config, or to
the user config directory.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			path := app.Options.ConfigPath
			if path == "" {
				var err error
				if path, err = config.FilePath(""); err != nil {
					return app.exitError(err)
				}
			}
			if err := config.WriteDefault(path, force); err != nil {
				ctx := issue.NewErrorContext().WithOperation("write configuration").WithResource(path).Wrap(err)
				if errors.Is(err, config.ErrConfigExists) {
					ctx.WithSuggestion("Use --force to overwrite it")
				}
				return app.exitError(ctx.BuildError())
			}
			fmt.Fprintln(app.stdout, app.paint(SuccessStyle, "✓ wrote "+path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Long: `Print the file the configuration was loaded from, or the default
location when no file was found.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := app.cfgPath
			if path == "" {
				var err error
				if path, err = config.FilePath(""); err != nil {
					return app.exitError(err)
				}
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	}
}
