// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"io"
	"strings"

	"github.com/iancoleman/strcase"
)

// ProtocolKey is the registry key of the command contract. Every set of
// registered commands declares it as a protocol together with the
// single-protocol existential ExistentialKey.
const (
	ProtocolKey    = "nestcmd.Command"
	ExistentialKey = "any nestcmd.Command"
)

type (
	// Command is the contract every command and subcommand satisfies.
	Command interface {
		Configuration() Configuration
	}

	// Runner is implemented by commands that do work when invoked. Commands
	// that only group subcommands do not need it.
	Runner interface {
		Run(ctx context.Context, inv Invocation) error
	}

	// Configuration describes how a command presents itself.
	Configuration struct {
		// Name is the token used on the command line. Empty means the
		// kebab-case form of the type name.
		Name string
		// Abstract is the one-line summary.
		Abstract string
		// Discussion is the long help text.
		Discussion string
		Aliases    []string
		// Subcommands lists the children explicitly. A nil slice asks for
		// discovery of the nested command types; an empty non-nil slice
		// means the command has no subcommands.
		Subcommands []Command
		// DefaultSubcommand names the child that runs when none is given.
		DefaultSubcommand string
		Hidden            bool
	}

	// Invocation carries what a Runner needs to execute.
	Invocation struct {
		// Path is the full command path, e.g. ["git", "remote", "add"].
		Path   []string
		Args   []string
		Stdout io.Writer
		Stderr io.Writer
	}
)

// DiscoversSubcommands reports whether the children come from discovery
// rather than from the explicit Subcommands list.
func (c Configuration) DiscoversSubcommands() bool {
	return c.Subcommands == nil
}

// ResolvedName returns Name, falling back to the kebab-case of typeName.
func (c Configuration) ResolvedName(typeName string) string {
	if c.Name != "" {
		return c.Name
	}
	return DefaultName(typeName)
}

// DefaultName converts a Go type name to a command name:
// "RemoveAll" -> "remove-all", "HTTPServer" -> "http-server",
// "*pkg.List[int]" -> "list". Digits form their own word.
func DefaultName(typeName string) string {
	name := typeName
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimLeft(name, "*")
	return strings.Trim(strcase.ToKebab(name), "-")
}
