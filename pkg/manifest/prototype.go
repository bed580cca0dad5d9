// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

type (
	// Prototype is the command value behind a manifest declaration. It
	// groups subcommands and does no work itself.
	Prototype struct {
		module      string
		decl        Command
		subcommands []command.Command
	}

	// RunnablePrototype is a Prototype whose declaration has output. Running
	// it prints that output.
	RunnablePrototype struct {
		Prototype
	}

	prototype interface {
		command.Command
		base() *Prototype
	}
)

func newPrototype(module string, decl Command) prototype {
	p := Prototype{module: module, decl: decl}
	if decl.Output != "" {
		return &RunnablePrototype{Prototype: p}
	}
	return &p
}

// Key returns the registry key of the declaration.
func (p *Prototype) Key() string {
	return Key(p.module, p.decl.Name)
}

// Module returns the declaring module.
func (p *Prototype) Module() string {
	return p.module
}

// Declaration returns a copy of the manifest declaration.
func (p *Prototype) Declaration() Command {
	return p.decl
}

// Configuration implements command.Command.
func (p *Prototype) Configuration() command.Configuration {
	return command.Configuration{
		Name:              p.decl.CommandName(),
		Abstract:          p.decl.Abstract,
		Discussion:        p.decl.Discussion,
		Aliases:           p.decl.Aliases,
		Subcommands:       p.subcommands,
		DefaultSubcommand: p.decl.Default,
		Hidden:            p.decl.Hidden,
	}
}

func (p *Prototype) base() *Prototype {
	return p
}

// Run writes the declared output with {args} and {path} expanded.
func (p *RunnablePrototype) Run(_ context.Context, inv command.Invocation) error {
	if inv.Stdout == nil {
		return nil
	}
	r := strings.NewReplacer(
		"{args}", strings.Join(inv.Args, " "),
		"{path}", strings.Join(inv.Path, " "),
	)
	out := r.Replace(p.decl.Output)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if _, err := fmt.Fprint(inv.Stdout, out); err != nil {
		return fmt.Errorf("failed to write output of %s: %w", p.Key(), err)
	}
	return nil
}

func accessorOf(p prototype) typemeta.Accessor {
	return func(typemeta.RequestMode) any { return p }
}
