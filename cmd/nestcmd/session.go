// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/invowk/nestcmd/internal/cobrabind"
	"github.com/invowk/nestcmd/internal/discovery"
	"github.com/invowk/nestcmd/internal/issue"
	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/manifest"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

var (
	// ErrUnknownType is returned when a type key matches no declaration.
	ErrUnknownType = errors.New("unknown type")
	// ErrAmbiguousType is returned when a bare type name exists in several modules.
	ErrAmbiguousType = errors.New("ambiguous type name")
	// ErrNotCommand is returned when a type does not conform to the command protocol.
	ErrNotCommand = errors.New("type is not a command")
	// ErrUnknownCommand is returned when no root command has the given name.
	ErrUnknownCommand = errors.New("unknown command")
)

// session is one loaded manifest with its registry and finder.
type session struct {
	path     string
	manifest *manifest.Manifest
	registry *typemeta.Registry
	finder   *discovery.Finder[command.Command]
}

// locateManifest returns arg, or the first manifest discovered in the working
// directory and the configured manifest paths.
func (a *App) locateManifest(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}

	opts := []discovery.FilesOption{discovery.WithManifestPaths(a.cfg.Paths()...)}
	if a.workDir != "" {
		opts = append(opts, discovery.WithBaseDir(a.workDir))
	}
	files, diags := discovery.NewFiles(opts...).Discover()
	for _, d := range diags {
		a.logger.Warn(d.Message, "code", d.Code, "path", d.Path)
	}
	if len(files) == 0 {
		return "", issue.NewErrorContext().
			WithOperation("find manifest").
			WithIssue(issue.ManifestNotFoundId).
			Wrap(fmt.Errorf("no %s.{cue,yaml,yml,toml} found", discovery.ManifestBaseName)).
			BuildError()
	}
	a.logger.Debug("using manifest", "path", files[0].Path, "source", files[0].Source)
	return files[0].Path, nil
}

func (a *App) openSession(arg string) (*session, error) {
	path, err := a.locateManifest(arg)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Parse(path)
	if err != nil {
		ctx := issue.NewErrorContext().WithOperation("load manifest").WithResource(path).Wrap(err)
		switch {
		case errors.Is(err, manifest.ErrUnsupportedFormat):
			ctx.WithIssue(issue.UnsupportedFormatId)
		case errors.Is(err, fs.ErrNotExist):
			ctx.WithIssue(issue.ManifestNotFoundId)
		default:
			ctx.WithIssue(issue.ManifestInvalidId)
		}
		return nil, ctx.BuildError()
	}

	reg, err := m.Registry()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("build type registry").
			WithResource(path).
			WithIssue(issue.RegistryBuildFailedId).
			Wrap(err).
			BuildError()
	}
	contract, _ := reg.Lookup(command.ExistentialKey)

	opts := []discovery.Option{discovery.WithLogger(a.logger)}
	if a.metrics != nil {
		opts = append(opts, discovery.WithObserver(a.metrics))
	}
	return &session{
		path:     path,
		manifest: m,
		registry: reg,
		finder:   discovery.New[command.Command](reg, contract, opts...),
	}, nil
}

// resolve finds the command behind key. A bare type name is accepted when
// exactly one module declares it.
func (s *session) resolve(key string) (discovery.Subcommand[command.Command], error) {
	var none discovery.Subcommand[command.Command]

	h, ok := s.registry.Lookup(key)
	if !ok {
		var matches []string
		for _, mod := range s.manifest.Modules {
			if _, found := s.manifest.Find(mod.Name, key); found {
				matches = append(matches, manifest.Key(mod.Name, key))
			}
		}
		switch len(matches) {
		case 0:
			return none, issue.NewErrorContext().
				WithOperation("resolve type").
				WithResource(key).
				WithIssue(issue.TypeNotFoundId).
				Wrap(fmt.Errorf("%w in %s", ErrUnknownType, s.path)).
				BuildError()
		case 1:
			h, _ = s.registry.Lookup(matches[0])
		default:
			return none, issue.NewErrorContext().
				WithOperation("resolve type").
				WithResource(key).
				WithSuggestion("Qualify the name: " + strings.Join(matches, ", ")).
				Wrap(ErrAmbiguousType).
				BuildError()
		}
	}

	sub, ok := s.finder.Materialize(h)
	if !ok {
		return none, issue.NewErrorContext().
			WithOperation("resolve type").
			WithResource(key).
			WithIssue(issue.NotACommandId).
			Wrap(ErrNotCommand).
			BuildError()
	}
	return sub, nil
}

// roots returns the module-level commands in declaration order.
func (s *session) roots() []discovery.Subcommand[command.Command] {
	var out []discovery.Subcommand[command.Command]
	for _, mod := range s.manifest.Modules {
		for i := range mod.Commands {
			decl := &mod.Commands[i]
			if decl.Parent != "" || decl.Extends != "" || !decl.IsCommand() {
				continue
			}
			h, ok := s.registry.Lookup(manifest.Key(mod.Name, decl.Name))
			if !ok {
				continue
			}
			if sub, ok := s.finder.Materialize(h); ok {
				out = append(out, sub)
			}
		}
	}
	return out
}

// trees returns the tree under root, or under every module-level command
// when root is empty.
func (s *session) trees(root string) ([]*discovery.Node[command.Command], error) {
	subs := s.roots()
	if root != "" {
		sub, err := s.resolve(root)
		if err != nil {
			return nil, err
		}
		subs = []discovery.Subcommand[command.Command]{sub}
	}

	out := make([]*discovery.Node[command.Command], 0, len(subs))
	for _, sub := range subs {
		if node, ok := s.finder.Tree(sub.Handle); ok {
			out = append(out, node)
		}
	}
	return out, nil
}

// findRoot matches token against the names and aliases of the roots.
func (s *session) findRoot(token string) (discovery.Subcommand[command.Command], error) {
	roots := s.roots()
	names := make([]string, 0, len(roots))
	for _, sub := range roots {
		cfg := sub.Command.Configuration()
		name := cfg.ResolvedName(sub.Name)
		if name == token || slices.Contains(cfg.Aliases, token) {
			return sub, nil
		}
		names = append(names, name)
	}
	return discovery.Subcommand[command.Command]{}, issue.NewErrorContext().
		WithOperation("run command").
		WithResource(token).
		WithSuggestion("Available commands: " + strings.Join(names, ", ")).
		WithIssue(issue.CommandNotFoundId).
		Wrap(ErrUnknownCommand).
		BuildError()
}

func (s *session) binder(a *App) *cobrabind.Binder {
	return cobrabind.New(s.finder,
		cobrabind.WithResolver(func(c command.Command) (typemeta.Handle, bool) {
			if p, ok := c.(interface{ Key() string }); ok {
				return s.registry.Lookup(p.Key())
			}
			return 0, false
		}),
		cobrabind.WithLogger(a.logger),
	)
}
