// SPDX-License-Identifier: MPL-2.0

package cmdreg

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

// build declares the command contract, one module per package path, and
// every entry in registration order.
func build(entries []entry) (*typemeta.Registry, error) {
	b := typemeta.NewBuilder()
	var errs []error
	declareModule := func(path string) {
		if !b.Has(path) {
			errs = append(errs, b.AddModule(path))
		}
	}

	contractModule := reflect.TypeFor[command.Command]().PkgPath()
	declareModule(contractModule)
	errs = append(errs,
		b.AddProtocol(command.ProtocolKey, contractModule),
		b.AddExistential(command.ExistentialKey, command.ProtocolKey),
	)

	for _, e := range entries {
		declareModule(e.module)

		parent := e.module
		if e.parent != nil {
			named, err := namedType(e.parent)
			if err != nil {
				errs = append(errs, fmt.Errorf("parent of %s: %w", e.key, err))
				continue
			}
			parent = typeKey(named)
			if named.PkgPath() != e.module {
				parent = extensionKey(e.module, parent)
				if !b.Has(parent) {
					errs = append(errs, b.AddExtension(parent, e.module, typeKey(named)))
				}
			}
		}

		errs = append(errs,
			b.AddType(typemeta.TypeSpec{
				Key:      e.key,
				Name:     e.name,
				Kind:     e.kind,
				Parent:   parent,
				Generic:  e.generic,
				Accessor: e.access,
			}),
			b.AddConformance(e.key, command.ProtocolKey),
		)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return b.Build()
}

func extensionKey(module, extended string) string {
	return module + ".ext(" + extended + ")"
}
