// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

// ContractModule is the module that declares the command protocol in
// registries built from manifests.
const ContractModule = "nestcmd"

type (
	// Manifest declares modules of command types. It is the build-step input
	// from which a typemeta.Registry is produced without Go code.
	Manifest struct {
		Modules []Module `json:"modules" yaml:"modules" toml:"modules"`

		// FilePath is where the manifest was read from (not serialized).
		FilePath string `json:"-" yaml:"-" toml:"-"`
	}

	// Module is one compiled unit owning command types.
	Module struct {
		// Name is the module identity, e.g. "git" or "example.com/tools".
		Name string `json:"name" yaml:"name" toml:"name"`
		// Bridged counts conformances of foreign types that have no
		// descriptor. They are recorded but never become subcommands.
		Bridged  int       `json:"bridged,omitempty" yaml:"bridged,omitempty" toml:"bridged,omitempty"`
		Commands []Command `json:"commands" yaml:"commands" toml:"commands"`
	}

	// Command declares one nominal type and, unless Conforms is false, its
	// conformance to the command protocol.
	Command struct {
		// Name is the type name, unique within the module.
		Name string `json:"name" yaml:"name" toml:"name"`
		// Parent names the enclosing command of the same module. Empty means
		// the type is declared at module level.
		Parent string `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
		// Extends nests the type in an extension of "module.Name", a command
		// of another module. Exclusive with Parent.
		Extends string `json:"extends,omitempty" yaml:"extends,omitempty" toml:"extends,omitempty"`
		// Kind is "struct" (default), "enum" or "class".
		Kind    string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
		Generic bool   `json:"generic,omitempty" yaml:"generic,omitempty" toml:"generic,omitempty"`
		// Conforms defaults to true. False declares a nested helper type
		// that is not a command.
		Conforms *bool `json:"conforms,omitempty" yaml:"conforms,omitempty" toml:"conforms,omitempty"`

		// Token is the command-line name; empty means the kebab-case of Name.
		Token       string   `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
		Abstract    string   `json:"abstract,omitempty" yaml:"abstract,omitempty" toml:"abstract,omitempty"`
		Discussion  string   `json:"discussion,omitempty" yaml:"discussion,omitempty" toml:"discussion,omitempty"`
		Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty" toml:"aliases,omitempty"`
		Hidden      bool     `json:"hidden,omitempty" yaml:"hidden,omitempty" toml:"hidden,omitempty"`
		Default     string   `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
		// Subcommands lists children explicitly by type name (same module)
		// or "module.Name". Absent means the children are discovered.
		Subcommands []string `json:"subcommands,omitempty" yaml:"subcommands,omitempty" toml:"subcommands,omitempty"`
		// Output is printed when the command runs; {args} and {path} are
		// replaced by the arguments and the command path. Commands without
		// output only group subcommands.
		Output string `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
	}
)

// Key returns the registry key of a command declared in module.
func Key(module, name string) string {
	return module + "." + name
}

// IsCommand reports whether the declaration conforms to the command protocol.
func (c *Command) IsCommand() bool {
	return c.Conforms == nil || *c.Conforms
}

// TypeKind returns the declared nominal kind.
func (c *Command) TypeKind() typemeta.Kind {
	if kind, ok := typemeta.ParseNominalKind(c.Kind); ok {
		return kind
	}
	return typemeta.KindStruct
}

// CommandName returns the command-line token.
func (c *Command) CommandName() string {
	if c.Token != "" {
		return c.Token
	}
	return command.DefaultName(c.Name)
}

// Find returns the declaration of name in module.
func (m *Manifest) Find(module, name string) (*Command, bool) {
	for i := range m.Modules {
		if m.Modules[i].Name != module {
			continue
		}
		for j := range m.Modules[i].Commands {
			if m.Modules[i].Commands[j].Name == name {
				return &m.Modules[i].Commands[j], true
			}
		}
	}
	return nil, false
}

// Keys lists the keys of every declared type in declaration order.
func (m *Manifest) Keys() []string {
	var keys []string
	for _, mod := range m.Modules {
		for _, cmd := range mod.Commands {
			keys = append(keys, Key(mod.Name, cmd.Name))
		}
	}
	return keys
}
