// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invowk/nestcmd/internal/discovery"
	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

func gitFinder(t *testing.T) (*typemeta.Registry, *discovery.Finder[command.Command]) {
	t.Helper()
	reg, err := parseTestdata(t, "git.cue").Registry()
	require.NoError(t, err)
	contract, ok := reg.Lookup(command.ExistentialKey)
	require.True(t, ok)
	return reg, discovery.New[command.Command](reg, contract)
}

func names(subs []discovery.Subcommand[command.Command]) []string {
	out := make([]string, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.Command.Configuration().Name)
	}
	return out
}

func TestRegistry_Discovery(t *testing.T) {
	t.Parallel()

	reg, finder := gitFinder(t)

	tests := []struct {
		parent string
		want   []string
	}{
		// Stash is generic and Lfs lives in an extension of another module.
		{"git.Git", []string{"status", "remote"}},
		// Options is not a command.
		{"git.Remote", []string{"add", "remove"}},
		{"git.RemoteAdd", nil},
		{"plugins.Lfs", nil},
	}

	for _, tt := range tests {
		t.Run(tt.parent, func(t *testing.T) {
			t.Parallel()
			h, ok := reg.Lookup(tt.parent)
			require.True(t, ok)
			subs := finder.FindSubcommands(h)
			if tt.want == nil {
				assert.Empty(t, subs)
				return
			}
			assert.Equal(t, tt.want, names(subs))
		})
	}
}

func TestRegistry_Metadata(t *testing.T) {
	t.Parallel()

	reg, _ := gitFinder(t)

	stash, ok := reg.Lookup("git.Stash")
	require.True(t, ok)
	info, ok := reg.Describe(stash)
	require.True(t, ok)
	assert.True(t, info.Generic)
	assert.Equal(t, "git.Git", info.ParentKey)
	assert.Equal(t, "git", info.ModuleKey)

	lfs, ok := reg.Lookup("plugins.Lfs")
	require.True(t, ok)
	info, ok = reg.Describe(lfs)
	require.True(t, ok)
	assert.Equal(t, "plugins.ext(git.Git)", info.ParentKey)
	assert.Equal(t, "plugins", info.ModuleKey)

	ext, ok := reg.Lookup("plugins.ext(git.Git)")
	require.True(t, ok)
	info, ok = reg.Describe(ext)
	require.True(t, ok)
	assert.Equal(t, typemeta.KindExtension, info.Kind)
	assert.Equal(t, "git.Git", info.ExtendsKey)
}

func TestRegistry_Prototypes(t *testing.T) {
	t.Parallel()

	reg, finder := gitFinder(t)
	h, ok := reg.Lookup("git.Git")
	require.True(t, ok)

	sub, ok := finder.Materialize(h)
	require.True(t, ok)
	proto, ok := sub.Command.(*Prototype)
	require.True(t, ok, "Git has no output and should be a *Prototype, got %T", sub.Command)
	assert.Equal(t, "git.Git", proto.Key())
	assert.Equal(t, "git", proto.Module())

	cfg := proto.Configuration()
	assert.Equal(t, "git", cfg.Name)
	assert.Equal(t, "A content tracker.", cfg.Abstract)
	assert.Equal(t, "status", cfg.DefaultSubcommand)
	assert.True(t, cfg.DiscoversSubcommands())

	_, isRunner := sub.Command.(command.Runner)
	assert.False(t, isRunner)
}

func TestRegistry_RunnablePrototype(t *testing.T) {
	t.Parallel()

	reg, finder := gitFinder(t)
	h, ok := reg.Lookup("git.RemoteAdd")
	require.True(t, ok)

	sub, ok := finder.Materialize(h)
	require.True(t, ok)
	runner, ok := sub.Command.(command.Runner)
	require.True(t, ok, "RemoteAdd has output and should run, got %T", sub.Command)

	var out bytes.Buffer
	err := runner.Run(context.Background(), command.Invocation{
		Path:   []string{"git", "remote", "add"},
		Args:   []string{"origin", "https://example.com/repo.git"},
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "added origin https://example.com/repo.git\n", out.String())
}

func TestRegistry_PathPlaceholder(t *testing.T) {
	t.Parallel()

	p := newPrototype("m", Command{Name: "Echo", Output: "at {path}\n"})
	var out bytes.Buffer
	err := p.(command.Runner).Run(context.Background(), command.Invocation{
		Path:   []string{"tool", "echo"},
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "at tool echo\n", out.String())
}

func TestRegistry_ExplicitSubcommands(t *testing.T) {
	t.Parallel()

	data := `
modules:
  - name: a
    commands:
      - {name: Root, subcommands: [Second, First, b.Other]}
      - {name: First, parent: Root}
      - {name: Second}
      - {name: Empty, subcommands: []}
  - name: b
    commands:
      - {name: Other, command: other-cmd}
`
	m, err := ParseBytes([]byte(data), "nestcmd.yaml", FormatYAML)
	require.NoError(t, err)
	reg, err := m.Registry()
	require.NoError(t, err)

	contract, _ := reg.Lookup(command.ExistentialKey)
	finder := discovery.New[command.Command](reg, contract)

	root, _ := reg.Lookup("a.Root")
	sub, ok := finder.Materialize(root)
	require.True(t, ok)
	cfg := sub.Command.Configuration()
	require.False(t, cfg.DiscoversSubcommands())

	got := make([]string, 0, len(cfg.Subcommands))
	for _, c := range cfg.Subcommands {
		got = append(got, c.Configuration().Name)
	}
	assert.Equal(t, []string{"second", "first", "other-cmd"}, got)

	empty, _ := reg.Lookup("a.Empty")
	sub, ok = finder.Materialize(empty)
	require.True(t, ok)
	cfg = sub.Command.Configuration()
	assert.False(t, cfg.DiscoversSubcommands())
	assert.Empty(t, cfg.Subcommands)
}

func TestRegistry_BridgedConformances(t *testing.T) {
	t.Parallel()

	var reports []discovery.Report
	reg, err := parseTestdata(t, "git.cue").Registry()
	require.NoError(t, err)
	contract, _ := reg.Lookup(command.ExistentialKey)
	finder := discovery.New[command.Command](reg, contract,
		discovery.WithObserver(discovery.ObserverFunc(func(r discovery.Report) {
			reports = append(reports, r)
		})))

	lfs, _ := reg.Lookup("plugins.Lfs")
	assert.Empty(t, finder.FindSubcommands(lfs))
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].Candidates)
	assert.Equal(t, 1, reports[0].Filtered[discovery.ReasonBridged])
}

func TestRegistry_NonCommandDoesNotMaterialize(t *testing.T) {
	t.Parallel()

	reg, finder := gitFinder(t)
	h, ok := reg.Lookup("git.Options")
	require.True(t, ok)
	_, ok = finder.Materialize(h)
	assert.False(t, ok)
}
