// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/config"
	"github.com/invowk/nestcmd/internal/issue"
	"github.com/invowk/nestcmd/internal/metrics"
	"github.com/invowk/nestcmd/internal/render"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// RootOptions holds the global flags.
	RootOptions struct {
		Verbose    bool
		ConfigPath string
		Format     string
		Metrics    bool
	}

	// ConfigProvider loads configuration and reports the file it came from.
	ConfigProvider interface {
		Resolve(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// WorkDir is where manifests and ./config.cue are looked up. Empty
		// means the process working directory.
		WorkDir string
	}

	// App is the composition root shared by all command handlers.
	App struct {
		Options RootOptions

		configProvider ConfigProvider
		stdout         io.Writer
		stderr         io.Writer
		workDir        string

		// Set up by the root pre-run hook.
		cfg     *config.Config
		cfgPath string
		logger  *log.Logger
		metrics *metrics.Collector
	}
)

// annotationConfigOptional marks commands that run even when an explicit
// --config file cannot be loaded.
const annotationConfigOptional = "nestcmd/config-optional"

// ValidFormats lists the accepted --format values.
func ValidFormats() []string {
	return []string{string(config.FormatText), string(config.FormatJSON)}
}

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			deps.WorkDir = wd
		}
	}
	return &App{
		configProvider: deps.Config,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
		workDir:        deps.WorkDir,
		cfg:            config.DefaultConfig(),
		logger:         log.New(io.Discard),
	}
}

// NewRootCommand builds the nestcmd command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "nestcmd",
		Short: "Discover and inspect nested subcommand hierarchies",
		Long: TitleStyle.Render("nestcmd") + SubtitleStyle.Render(" - nested subcommand discovery") + `

nestcmd reads a manifest of command types and discovers, for each command,
its direct, non-generic subcommands declared in the same module.

` + SubtitleStyle.Render("Examples:") + `
  nestcmd tree                       Show every command hierarchy
  nestcmd subcommands git.Remote     List the subcommands of one type
  nestcmd validate nestcmd.yaml      Check a manifest
  nestcmd run -- git remote add x    Run a manifest command`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&app.Options.Verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.Options.ConfigPath, "config", "", "config file (default is $XDG_CONFIG_HOME/nestcmd/config.cue)")
	flags.StringVarP(&app.Options.Format, "format", "f", string(config.FormatText), "output format: text or json")
	flags.BoolVar(&app.Options.Metrics, "metrics", false, "print discovery metrics to stderr after the command")

	root.AddCommand(
		newTreeCommand(app),
		newSubcommandsCommand(app),
		newValidateCommand(app),
		newGenCommand(app),
		newDocsCommand(app),
		newRunCommand(app),
		newConfigCommand(app),
	)
	app.flushMetricsAfter(root)
	return root
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with its status.
func Execute() {
	os.Exit(Main())
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return ExitCodeFailure
	}
	return 0
}

// setup loads the configuration and applies it under the global flags.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, path, err := a.configProvider.Resolve(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.Options.ConfigPath,
		BaseDir:        a.workDir,
	})
	if err != nil {
		if a.Options.ConfigPath != "" && cmd.Annotations[annotationConfigOptional] != "true" {
			return a.exitError(err)
		}
		fmt.Fprintln(a.stderr, a.paint(WarningStyle, "Warning: ")+formatErrorForDisplay(err, a.Options.Verbose))
		cfg, path = config.DefaultConfig(), ""
	}
	a.cfg, a.cfgPath = cfg, path

	if !a.Options.Verbose {
		a.Options.Verbose = cfg.UI.Verbose
	}
	if !cmd.Flags().Changed("format") {
		a.Options.Format = string(cfg.DefaultFormat)
	}
	if !slices.Contains(ValidFormats(), a.Options.Format) {
		return &ExitError{
			Code:    ExitCodeUsage,
			Message: fmt.Sprintf("invalid --format %q (valid: text, json)", a.Options.Format),
		}
	}

	a.logger = newLogger(a.stderr, cfg.Log.Level, a.Options.Verbose)
	if a.Options.Metrics || cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
	a.logger.Debug("configuration loaded", "path", path, "format", a.Options.Format)
	return nil
}

func newLogger(w io.Writer, level config.LogLevel, verbose bool) *log.Logger {
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		lvl = log.WarnLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: config.AppName, Level: lvl})
}

// flushMetricsAfter wraps the RunE of cmd and its descendants so metrics
// are written when the command fails too. cobra skips post-run hooks after
// a failed RunE.
func (a *App) flushMetricsAfter(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				if flushErr := a.flushMetrics(); err == nil {
					err = flushErr
				}
			}()
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		a.flushMetricsAfter(sub)
	}
}

func (a *App) flushMetrics() error {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.Write(a.stderr)
}

func (a *App) jsonOutput() bool {
	return a.Options.Format == string(config.FormatJSON)
}

func (a *App) plain() bool {
	return a.cfg.UI.ColorScheme == config.ColorSchemeNone
}

func (a *App) paint(style lipgloss.Style, s string) string {
	if a.plain() {
		return s
	}
	return style.Render(s)
}

func (a *App) styles() render.Styles {
	if a.plain() {
		return render.PlainStyles()
	}
	return render.DefaultStyles()
}

// glamourStyle maps the color scheme to a glamour style name; "" means
// auto-detection.
func (a *App) glamourStyle() string {
	switch a.cfg.UI.ColorScheme {
	case config.ColorSchemeNone:
		return "notty"
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return ""
	}
}

// exitError turns err into the error returned from RunE. Actionable errors
// keep their suggestions; verbose runs also print the issue help page.
func (a *App) exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	var ae *issue.ActionableError
	if a.Options.Verbose && errors.As(err, &ae) && ae.Issue != 0 {
		if page, renderErr := issue.Get(ae.Issue).Render(a.issueStyle()); renderErr == nil {
			fmt.Fprint(a.stderr, page)
		} else {
			a.logger.Warn("failed to render issue help", "issue", ae.Issue, "err", renderErr)
		}
	}
	return &ExitError{
		Code:    ExitCodeFailure,
		Message: formatErrorForDisplay(err, a.Options.Verbose),
		Err:     err,
	}
}

func (a *App) issueStyle() string {
	if style := a.glamourStyle(); style != "" {
		return style
	}
	return "dark"
}

// formatErrorForDisplay renders actionable errors with their suggestions
// and, in verbose mode, the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
