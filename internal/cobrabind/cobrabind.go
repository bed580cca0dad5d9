// SPDX-License-Identifier: MPL-2.0

// Package cobrabind turns a command hierarchy into a cobra command tree.
//
// Each command contributes its Configuration. Children come from the
// explicit Subcommands list when one is given and from discovery otherwise.
package cobrabind

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/invowk/nestcmd/internal/discovery"
	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

// maxDepth bounds explicit subcommand lists that refer back to an ancestor
// without a handle to detect it by.
const maxDepth = 64

var (
	// ErrNotCommand is returned when the root handle does not materialize
	// as a command.
	ErrNotCommand = errors.New("root is not a command")
	// ErrCycle is returned when a command lists one of its ancestors.
	ErrCycle = errors.New("subcommand cycle")
	// ErrDuplicateName is returned when two siblings share a name or alias.
	ErrDuplicateName = errors.New("duplicate subcommand name")
	// ErrUnknownDefault is returned when a default subcommand names no child.
	ErrUnknownDefault = errors.New("unknown default subcommand")
)

type (
	// Resolver maps an explicitly listed command back to its handle so its
	// own children can be discovered.
	Resolver func(command.Command) (typemeta.Handle, bool)

	// Binder builds cobra trees over one finder.
	Binder struct {
		finder   *discovery.Finder[command.Command]
		resolver Resolver
		logger   *log.Logger
	}

	// Option configures a Binder.
	Option func(*Binder)

	// BindError reports where building the tree failed.
	BindError struct {
		// Path is the command path of the offending command.
		Path string
		Err  error
	}

	node struct {
		handle typemeta.Handle
		cmd    command.Command
		name   string
	}
)

// WithResolver sets how explicit subcommands are mapped to handles.
func WithResolver(r Resolver) Option {
	return func(b *Binder) {
		b.resolver = r
	}
}

// WithLogger sets the logger used to trace bound commands.
func WithLogger(l *log.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Binder.
func New(finder *discovery.Finder[command.Command], opts ...Option) *Binder {
	b := &Binder{
		finder:   finder,
		resolver: func(command.Command) (typemeta.Handle, bool) { return 0, false },
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error {
	return e.Err
}

// Build creates the cobra tree rooted at the command behind root.
func (b *Binder) Build(root typemeta.Handle) (*cobra.Command, error) {
	sub, ok := b.finder.Materialize(root)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d", ErrNotCommand, root)
	}
	return b.bind(node{handle: root, cmd: sub.Command, name: sub.Name}, nil, nil)
}

// BuildCommand creates the cobra tree for a command value. Its children are
// discovered only if the resolver knows its handle.
func (b *Binder) BuildCommand(c command.Command, typeName string) (*cobra.Command, error) {
	if c == nil {
		return nil, ErrNotCommand
	}
	h, _ := b.resolver(c)
	return b.bind(node{handle: h, cmd: c, name: typeName}, nil, nil)
}

func (b *Binder) bind(n node, path []string, ancestors []typemeta.Handle) (*cobra.Command, error) {
	cfg := n.cmd.Configuration()
	name := cfg.ResolvedName(n.name)
	path = append(path[:len(path):len(path)], name)
	where := strings.Join(path, " ")

	if len(path) > maxDepth {
		return nil, &BindError{Path: where, Err: ErrCycle}
	}
	if n.handle.IsValid() {
		for _, h := range ancestors {
			if h == n.handle {
				return nil, &BindError{Path: where, Err: ErrCycle}
			}
		}
		ancestors = append(ancestors[:len(ancestors):len(ancestors)], n.handle)
	}

	cc := &cobra.Command{
		Use:     name,
		Short:   cfg.Abstract,
		Long:    longHelp(cfg),
		Aliases: cfg.Aliases,
		Hidden:  cfg.Hidden,
	}

	children, err := b.children(n, cfg)
	if err != nil {
		return nil, &BindError{Path: where, Err: err}
	}
	taken := make(map[string]bool)
	for _, child := range children {
		sub, err := b.bind(child, path, ancestors)
		if err != nil {
			return nil, err
		}
		for _, token := range append([]string{sub.Name()}, sub.Aliases...) {
			if taken[token] {
				return nil, &BindError{Path: where, Err: fmt.Errorf("%w: %q", ErrDuplicateName, token)}
			}
			taken[token] = true
		}
		cc.AddCommand(sub)
	}

	if err := b.wire(cc, n.cmd, cfg); err != nil {
		return nil, &BindError{Path: where, Err: err}
	}
	b.logger.Debug("bound command", "path", where, "children", len(children), "discovered", cfg.DiscoversSubcommands())
	return cc, nil
}

func (b *Binder) children(n node, cfg command.Configuration) ([]node, error) {
	if !cfg.DiscoversSubcommands() {
		out := make([]node, 0, len(cfg.Subcommands))
		for _, c := range cfg.Subcommands {
			if c == nil {
				return nil, fmt.Errorf("%w: nil explicit subcommand", ErrNotCommand)
			}
			h, _ := b.resolver(c)
			out = append(out, node{handle: h, cmd: c, name: fmt.Sprintf("%T", c)})
		}
		return out, nil
	}
	if !n.handle.IsValid() {
		return nil, nil
	}
	subs := b.finder.FindSubcommands(n.handle)
	out := make([]node, 0, len(subs))
	for _, sub := range subs {
		out = append(out, node{handle: sub.Handle, cmd: sub.Command, name: sub.Name})
	}
	return out, nil
}

// wire sets the run behavior: the command's own Runner, else its default
// subcommand, else help.
func (b *Binder) wire(cc *cobra.Command, c command.Command, cfg command.Configuration) error {
	runner, isRunner := c.(command.Runner)

	var def *cobra.Command
	if cfg.DefaultSubcommand != "" {
		for _, sub := range cc.Commands() {
			if sub.Name() == cfg.DefaultSubcommand {
				def = sub
				break
			}
		}
		if def == nil {
			return fmt.Errorf("%w: %q", ErrUnknownDefault, cfg.DefaultSubcommand)
		}
	}

	switch {
	case isRunner:
		cc.Use += " [args...]"
		cc.Args = cobra.ArbitraryArgs
		cc.RunE = func(cmd *cobra.Command, args []string) error {
			return runner.Run(cmd.Context(), invocation(cmd, args))
		}
	case def != nil:
		cc.Args = cobra.ArbitraryArgs
		cc.RunE = func(cmd *cobra.Command, args []string) error {
			if err := def.ValidateArgs(args); err != nil {
				return err
			}
			if def.RunE == nil {
				return def.Help()
			}
			def.SetContext(cmd.Context())
			return def.RunE(def, args)
		}
	case cc.HasSubCommands():
		cc.Args = cobra.NoArgs
		cc.RunE = func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		}
	}
	return nil
}

func invocation(cmd *cobra.Command, args []string) command.Invocation {
	return command.Invocation{
		Path:   strings.Fields(cmd.CommandPath()),
		Args:   args,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
}

func longHelp(cfg command.Configuration) string {
	if cfg.Discussion == "" {
		return cfg.Abstract
	}
	if cfg.Abstract == "" {
		return cfg.Discussion
	}
	return cfg.Abstract + "\n\n" + cfg.Discussion
}
