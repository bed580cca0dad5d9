// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/issue"
	"github.com/invowk/nestcmd/pkg/manifest"
)

type genOptions struct {
	lang    string
	pkg     string
	module  string
	imports map[string]string
	output  string
}

func newGenCommand(app *App) *cobra.Command {
	opts := genOptions{}

	cmd := &cobra.Command{
		Use:   "gen [manifest]",
		Short: "Generate Go registration code or canonical CUE from a manifest",
		Long: `Generate code from a manifest.

--lang go writes Go types that register themselves with the process-wide
command registry (pkg/cmdreg). --lang cue writes the manifest back as CUE.`,
		Example: `  nestcmd gen --lang go --package commands -o commands_gen.go
  nestcmd gen ./commands.yaml --lang cue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.exitError(app.runGen(firstArg(args), opts))
		},
	}
	cmd.Flags().StringVar(&opts.lang, "lang", "go", "output language: go or cue")
	cmd.Flags().StringVar(&opts.pkg, "package", "commands", "Go package name")
	cmd.Flags().StringVar(&opts.module, "module", "", "manifest module to generate (default: the first)")
	cmd.Flags().StringToStringVar(&opts.imports, "import", nil, "manifest module to Go import path (module=path)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (a *App) runGen(arg string, opts genOptions) error {
	s, err := a.openSession(arg)
	if err != nil {
		return err
	}

	var out []byte
	switch opts.lang {
	case "cue":
		out = []byte(manifest.GenerateCUE(s.manifest))
	case "go":
		out, err = manifest.GenerateGo(s.manifest, manifest.GoOptions{
			Package: opts.pkg,
			Module:  opts.module,
			Imports: opts.imports,
		})
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("generate Go code").
				WithResource(s.path).
				WithIssue(issue.GenerateFailedId).
				Wrap(err).
				BuildError()
		}
	default:
		return &ExitError{Code: ExitCodeUsage, Message: fmt.Sprintf("invalid --lang %q (valid: go, cue)", opts.lang)}
	}

	if opts.output == "" {
		_, err = a.stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return issue.NewErrorContext().
			WithOperation("write generated code").
			WithResource(opts.output).
			WithSuggestion("Check that the output directory exists and is writable").
			Wrap(err).
			BuildError()
	}
	a.logger.Info("generated", "lang", opts.lang, "path", opts.output)
	_, err = fmt.Fprintln(a.stdout, a.paint(SuccessStyle, "✓ wrote "+opts.output))
	return err
}
