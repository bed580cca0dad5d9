// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"strings"

	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

// Registry builds the metadata registry the manifest describes. The accessor
// of each command yields its *Prototype (or *RunnablePrototype when the
// declaration has output). Types that are not commands have no accessor.
func (m *Manifest) Registry() (*typemeta.Registry, error) {
	prototypes := m.prototypes()

	b := typemeta.NewBuilder()
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(b.AddModule(ContractModule))
	add(b.AddProtocol(command.ProtocolKey, ContractModule))
	add(b.AddExistential(command.ExistentialKey, command.ProtocolKey))

	for _, mod := range m.Modules {
		add(b.AddModule(mod.Name))
	}
	for _, mod := range m.Modules {
		for i := range mod.Commands {
			cmd := &mod.Commands[i]
			key := Key(mod.Name, cmd.Name)

			parent := mod.Name
			switch {
			case cmd.Parent != "":
				parent = Key(mod.Name, cmd.Parent)
			case cmd.Extends != "":
				parent = extensionKey(mod.Name, cmd.Extends)
				if !b.Has(parent) {
					add(b.AddExtension(parent, mod.Name, cmd.Extends))
				}
			}

			spec := typemeta.TypeSpec{
				Key:     key,
				Name:    cmd.Name,
				Kind:    cmd.TypeKind(),
				Parent:  parent,
				Generic: cmd.Generic,
			}
			if cmd.IsCommand() {
				spec.Accessor = accessorOf(prototypes[key])
			}
			add(b.AddType(spec))
			if cmd.IsCommand() {
				add(b.AddConformance(key, command.ProtocolKey))
			}
		}
		for range mod.Bridged {
			add(b.AddBridgedConformance(command.ProtocolKey, mod.Name))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.Build()
}

// prototypes creates one prototype per declaration and links explicit
// subcommand lists.
func (m *Manifest) prototypes() map[string]prototype {
	out := make(map[string]prototype)
	for _, mod := range m.Modules {
		for i := range mod.Commands {
			cmd := mod.Commands[i]
			out[Key(mod.Name, cmd.Name)] = newPrototype(mod.Name, cmd)
		}
	}
	for _, mod := range m.Modules {
		for _, cmd := range mod.Commands {
			if cmd.Subcommands == nil {
				continue
			}
			subs := make([]command.Command, 0, len(cmd.Subcommands))
			for _, ref := range cmd.Subcommands {
				if target, c, ok := m.lookupRef(mod.Name, ref); ok {
					subs = append(subs, out[Key(target, c.Name)])
				}
			}
			out[Key(mod.Name, cmd.Name)].base().subcommands = subs
		}
	}
	return out
}

// lookupRef resolves a subcommand reference: a type name of module, or
// "module.Name". It returns the owning module name.
func (m *Manifest) lookupRef(module, ref string) (string, *Command, bool) {
	if c, ok := m.Find(module, ref); ok {
		return module, c, true
	}
	if i := strings.LastIndex(ref, "."); i > 0 {
		if c, ok := m.Find(ref[:i], ref[i+1:]); ok {
			return ref[:i], c, true
		}
	}
	return "", nil, false
}

func extensionKey(module, extended string) string {
	return module + ".ext(" + extended + ")"
}
