// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/invowk/nestcmd/pkg/cueutil"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

var (
	typeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	tokenPattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	modulePattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_./-]*$`)
)

// Validate checks the manifest independently of its source format and then
// builds its registry, so hierarchy errors such as parent cycles are caught
// too. Field problems are returned together as *cueutil.ValidationError
// values; registry errors wrap the typemeta sentinels.
func (m *Manifest) Validate() error {
	v := validator{m: m, file: m.FilePath}
	if v.file == "" {
		v.file = "<manifest>"
	}
	v.run()
	if len(v.errs) > 0 {
		return errors.Join(v.errs...)
	}

	if _, err := m.Registry(); err != nil {
		return fmt.Errorf("%s: %w", v.file, err)
	}
	return nil
}

type validator struct {
	m    *Manifest
	file string
	errs []error
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = append(v.errs, &cueutil.ValidationError{
		FilePath: v.file,
		CUEPath:  cueutil.CUEPath(path),
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validator) run() {
	if len(v.m.Modules) == 0 {
		v.fail("modules", "at least one module is required")
		return
	}

	modules := make(map[string]bool)
	for i := range v.m.Modules {
		mod := &v.m.Modules[i]
		path := fmt.Sprintf("modules[%d]", i)
		switch {
		case !modulePattern.MatchString(mod.Name):
			v.fail(path+".name", "invalid module name %q", mod.Name)
		case mod.Name == ContractModule:
			v.fail(path+".name", "module name %q is reserved", mod.Name)
		case modules[mod.Name]:
			v.fail(path+".name", "duplicate module %q", mod.Name)
		}
		modules[mod.Name] = true
		if mod.Bridged < 0 {
			v.fail(path+".bridged", "must not be negative")
		}
	}

	for i := range v.m.Modules {
		v.module(i)
	}
}

func (v *validator) module(i int) {
	mod := &v.m.Modules[i]
	names := make(map[string]bool, len(mod.Commands))
	for j := range mod.Commands {
		cmd := &mod.Commands[j]
		path := fmt.Sprintf("modules[%d].commands[%d]", i, j)
		if !typeNamePattern.MatchString(cmd.Name) {
			v.fail(path+".name", "invalid type name %q", cmd.Name)
		} else if names[cmd.Name] {
			v.fail(path+".name", "duplicate type %q in module %q", cmd.Name, mod.Name)
		}
		names[cmd.Name] = true
	}

	tokens := make(map[string]map[string]bool)
	for j := range mod.Commands {
		cmd := &mod.Commands[j]
		path := fmt.Sprintf("modules[%d].commands[%d]", i, j)
		v.command(mod, cmd, path, names)

		if cmd.IsCommand() {
			scope := cmd.Parent
			if cmd.Extends != "" {
				scope = "ext:" + cmd.Extends
			}
			if tokens[scope] == nil {
				tokens[scope] = make(map[string]bool)
			}
			if token := cmd.CommandName(); tokens[scope][token] {
				v.fail(path+".command", "command name %q is used twice under the same parent", token)
			} else {
				tokens[scope][token] = true
			}
		}
	}
}

func (v *validator) command(mod *Module, cmd *Command, path string, names map[string]bool) {
	if cmd.Kind != "" {
		if _, ok := typemeta.ParseNominalKind(cmd.Kind); !ok {
			v.fail(path+".kind", "kind must be struct, enum or class, got %q", cmd.Kind)
		}
	}
	if cmd.Token != "" && !tokenPattern.MatchString(cmd.Token) {
		v.fail(path+".command", "invalid command name %q", cmd.Token)
	}
	for k, alias := range cmd.Aliases {
		if !tokenPattern.MatchString(alias) {
			v.fail(fmt.Sprintf("%s.aliases[%d]", path, k), "invalid alias %q", alias)
		}
	}

	switch {
	case cmd.Parent != "" && cmd.Extends != "":
		v.fail(path, "parent and extends are mutually exclusive")
	case cmd.Parent != "" && cmd.Parent == cmd.Name:
		v.fail(path+".parent", "a type cannot be its own parent")
	case cmd.Parent != "" && !names[cmd.Parent]:
		v.fail(path+".parent", "unknown parent %q in module %q", cmd.Parent, mod.Name)
	case cmd.Extends != "":
		v.extends(mod, cmd, path)
	}

	for k, ref := range cmd.Subcommands {
		target, ok := v.resolve(mod.Name, ref)
		switch {
		case !ok:
			v.fail(fmt.Sprintf("%s.subcommands[%d]", path, k), "unknown command %q", ref)
		case !target.IsCommand():
			v.fail(fmt.Sprintf("%s.subcommands[%d]", path, k), "%q is not a command", ref)
		}
	}

	if cmd.Default != "" && !v.hasChildToken(mod, cmd, cmd.Default) {
		v.fail(path+".default", "default subcommand %q is not a subcommand of %s", cmd.Default, cmd.Name)
	}
}

func (v *validator) extends(mod *Module, cmd *Command, path string) {
	i := strings.LastIndex(cmd.Extends, ".")
	if i <= 0 {
		v.fail(path+".extends", "extends must be module.Type, got %q", cmd.Extends)
		return
	}
	target, name := cmd.Extends[:i], cmd.Extends[i+1:]
	if target == mod.Name {
		v.fail(path+".extends", "extension of %q must be declared in another module", name)
		return
	}
	if _, ok := v.m.Find(target, name); !ok {
		v.fail(path+".extends", "unknown type %q", cmd.Extends)
	}
}

func (v *validator) resolve(module, ref string) (*Command, bool) {
	_, cmd, ok := v.m.lookupRef(module, ref)
	return cmd, ok
}

// hasChildToken reports whether token names one of cmd's subcommands: an
// explicit subcommand when the list is given, otherwise a nested command of
// the same module.
func (v *validator) hasChildToken(mod *Module, cmd *Command, token string) bool {
	if cmd.Subcommands != nil {
		for _, ref := range cmd.Subcommands {
			if child, ok := v.resolve(mod.Name, ref); ok && child.CommandName() == token {
				return true
			}
		}
		return false
	}
	for k := range mod.Commands {
		child := &mod.Commands[k]
		if child.Parent == cmd.Name && child.IsCommand() && !child.Generic && child.CommandName() == token {
			return true
		}
	}
	return false
}
