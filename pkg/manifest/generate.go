// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"go/format"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const cmdregImport = "github.com/invowk/nestcmd/pkg/cmdreg"

// ErrNotGenerable is returned by GenerateGo for declarations that have no
// Go self-registration equivalent.
var ErrNotGenerable = errors.New("declaration cannot be generated as Go code")

// GoOptions controls GenerateGo.
type GoOptions struct {
	// Package is the Go package name of the generated file.
	Package string
	// Module selects the manifest module to generate. Empty means the
	// first module.
	Module string
	// Imports maps other manifest modules to Go import paths. Types that
	// extend a command of such a module register it as their parent.
	Imports map[string]string
}

// GenerateCUE generates CUE text from a Manifest.
// The output parses back into an equal manifest.
func GenerateCUE(m *Manifest) string {
	var sb strings.Builder

	sb.WriteString("// nestcmd manifest\n\n")
	sb.WriteString("modules: [\n")
	for _, mod := range m.Modules {
		sb.WriteString("\t{\n")
		fmt.Fprintf(&sb, "\t\tname: %q\n", mod.Name)
		if mod.Bridged > 0 {
			fmt.Fprintf(&sb, "\t\tbridged: %d\n", mod.Bridged)
		}
		sb.WriteString("\t\tcommands: [\n")
		for i := range mod.Commands {
			generateCommandCUE(&sb, &mod.Commands[i])
		}
		sb.WriteString("\t\t]\n")
		sb.WriteString("\t},\n")
	}
	sb.WriteString("]\n")

	return sb.String()
}

func generateCommandCUE(sb *strings.Builder, cmd *Command) {
	const indent = "\t\t\t\t"
	sb.WriteString("\t\t\t{\n")
	fmt.Fprintf(sb, indent+"name: %q\n", cmd.Name)
	writeString := func(field, value string) {
		if value != "" {
			fmt.Fprintf(sb, indent+"%s: %q\n", field, value)
		}
	}
	writeString("parent", cmd.Parent)
	writeString("extends", cmd.Extends)
	writeString("kind", cmd.Kind)
	if cmd.Generic {
		sb.WriteString(indent + "generic: true\n")
	}
	if cmd.Conforms != nil {
		fmt.Fprintf(sb, indent+"conforms: %t\n", *cmd.Conforms)
	}
	writeString("command", cmd.Token)
	writeString("abstract", cmd.Abstract)
	writeString("discussion", cmd.Discussion)
	if len(cmd.Aliases) > 0 {
		sb.WriteString(indent + "aliases: ")
		writeList(sb, cmd.Aliases)
	}
	if cmd.Hidden {
		sb.WriteString(indent + "hidden: true\n")
	}
	writeString("default", cmd.Default)
	if cmd.Subcommands != nil {
		sb.WriteString(indent + "subcommands: ")
		writeList(sb, cmd.Subcommands)
	}
	writeString("output", cmd.Output)
	sb.WriteString("\t\t\t},\n")
}

func writeList(sb *strings.Builder, items []string) {
	sb.WriteString("[")
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%q", item)
	}
	sb.WriteString("]\n")
}

// GenerateGo emits Go source that declares one type per command of a
// manifest module and registers them with cmdreg from init, so the same
// hierarchy is available without the manifest at run time. The result is
// gofmt-formatted.
func GenerateGo(m *Manifest, opts GoOptions) ([]byte, error) {
	if opts.Package == "" {
		return nil, fmt.Errorf("%w: package name is required", ErrNotGenerable)
	}
	mod, err := m.module(opts.Module)
	if err != nil {
		return nil, err
	}

	g := goGenerator{m: m, mod: mod, opts: opts, imports: map[string]string{}}
	body, err := g.body()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "// Code generated by nestcmd gen from module %q. DO NOT EDIT.\n\n", mod.Name)
	fmt.Fprintf(&sb, "package %s\n\n", opts.Package)
	sb.WriteString("import (\n")
	std, third := g.importGroups()
	g.writeImports(&sb, std)
	if len(std) > 0 && len(third) > 0 {
		sb.WriteString("\n")
	}
	g.writeImports(&sb, third)
	sb.WriteString(")\n\n")
	sb.WriteString(body)

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return src, nil
}

func (m *Manifest) module(name string) (*Module, error) {
	if len(m.Modules) == 0 {
		return nil, fmt.Errorf("%w: manifest has no modules", ErrNotGenerable)
	}
	if name == "" {
		return &m.Modules[0], nil
	}
	for i := range m.Modules {
		if m.Modules[i].Name == name {
			return &m.Modules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: unknown module %q", ErrNotGenerable, name)
}

type goGenerator struct {
	m           *Manifest
	mod         *Module
	opts        GoOptions
	imports     map[string]string
	importOrder []string
}

func (g *goGenerator) use(path, alias string) {
	if _, ok := g.imports[path]; ok {
		return
	}
	g.imports[path] = alias
	g.importOrder = append(g.importOrder, path)
}

// importGroups splits the imports into standard library and module paths.
// The standard library has no dot in its first path element.
func (g *goGenerator) importGroups() (std, third []string) {
	for _, path := range g.importOrder {
		first, _, _ := strings.Cut(path, "/")
		if strings.Contains(first, ".") {
			third = append(third, path)
		} else {
			std = append(std, path)
		}
	}
	slices.Sort(std)
	slices.Sort(third)
	return std, third
}

func (g *goGenerator) writeImports(sb *strings.Builder, paths []string) {
	for _, path := range paths {
		if alias := g.imports[path]; alias != "" {
			fmt.Fprintf(sb, "\t%s %q\n", alias, path)
		} else {
			fmt.Fprintf(sb, "\t%q\n", path)
		}
	}
}

func (g *goGenerator) body() (string, error) {
	g.use("github.com/invowk/nestcmd/pkg/command", "")
	g.use(cmdregImport, "")

	var types, regs strings.Builder
	var errs []error
	for i := range g.mod.Commands {
		cmd := &g.mod.Commands[i]
		if !cmd.IsCommand() {
			fmt.Fprintf(&types, "// %s is not a command.\ntype %s struct{}\n\n", cmd.Name, cmd.Name)
			continue
		}
		reg, err := g.registration(cmd)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.declare(&types, cmd)
		regs.WriteString("\t" + reg + "\n")
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}

	var sb strings.Builder
	sb.WriteString(types.String())
	sb.WriteString("func init() {\n")
	sb.WriteString(regs.String())
	sb.WriteString("}\n")
	return sb.String(), nil
}

// goType returns the Go type expression registered for cmd.
func goType(cmd *Command) string {
	name := cmd.Name
	if cmd.Generic {
		name += "[struct{}]"
	}
	if cmd.Kind == "class" {
		return "*" + name
	}
	return name
}

// receiver returns the method receiver for cmd's type.
func receiver(cmd *Command) string {
	name := cmd.Name
	if cmd.Generic {
		name += "[T]"
	}
	if cmd.Kind == "class" {
		return "*" + name
	}
	return name
}

func (g *goGenerator) declare(sb *strings.Builder, cmd *Command) {
	fmt.Fprintf(sb, "// %s is the %q command.\n", cmd.Name, cmd.CommandName())
	if cmd.Abstract != "" {
		fmt.Fprintf(sb, "// %s\n", cmd.Abstract)
	}
	typeParams := ""
	if cmd.Generic {
		typeParams = "[T any]"
	}
	underlying := "struct{}"
	if cmd.Kind == "enum" {
		underlying = "int"
	}
	fmt.Fprintf(sb, "type %s%s %s\n\n", cmd.Name, typeParams, underlying)

	fmt.Fprintf(sb, "func (%s) Configuration() command.Configuration {\n", receiver(cmd))
	sb.WriteString("\treturn command.Configuration{\n")
	fmt.Fprintf(sb, "\t\tName: %q,\n", cmd.CommandName())
	if cmd.Abstract != "" {
		fmt.Fprintf(sb, "\t\tAbstract: %q,\n", cmd.Abstract)
	}
	if cmd.Discussion != "" {
		fmt.Fprintf(sb, "\t\tDiscussion: %q,\n", cmd.Discussion)
	}
	if len(cmd.Aliases) > 0 {
		sb.WriteString("\t\tAliases: []string{")
		for i, alias := range cmd.Aliases {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%q", alias)
		}
		sb.WriteString("},\n")
	}
	if cmd.Subcommands != nil {
		sb.WriteString("\t\tSubcommands: []command.Command{")
		for i, ref := range cmd.Subcommands {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(g.value(ref))
		}
		sb.WriteString("},\n")
	}
	if cmd.Default != "" {
		fmt.Fprintf(sb, "\t\tDefaultSubcommand: %q,\n", cmd.Default)
	}
	if cmd.Hidden {
		sb.WriteString("\t\tHidden: true,\n")
	}
	sb.WriteString("\t}\n}\n\n")

	if cmd.Output != "" {
		g.use("context", "")
		g.use("fmt", "")
		g.use("strings", "")
		fmt.Fprintf(sb, "func (%s) Run(_ context.Context, inv command.Invocation) error {\n", receiver(cmd))
		sb.WriteString("\tr := strings.NewReplacer(\"{args}\", strings.Join(inv.Args, \" \"), \"{path}\", strings.Join(inv.Path, \" \"))\n")
		fmt.Fprintf(sb, "\t_, err := fmt.Fprintln(inv.Stdout, r.Replace(%q))\n", strings.TrimSuffix(cmd.Output, "\n"))
		sb.WriteString("\treturn err\n}\n\n")
	}
}

// value returns a Go expression producing the command referenced by ref.
func (g *goGenerator) value(ref string) string {
	module, cmd, ok := g.m.lookupRef(g.mod.Name, ref)
	if !ok {
		return "nil"
	}
	prefix := ""
	if module != g.mod.Name {
		prefix = g.qualifier(module) + "."
	}
	t := prefix + strings.TrimPrefix(goType(cmd), "*")
	if cmd.Kind == "class" {
		return "&" + t + "{}"
	}
	if cmd.Kind == "enum" {
		return t + "(0)"
	}
	return t + "{}"
}

func (g *goGenerator) registration(cmd *Command) (string, error) {
	var opts []string
	switch {
	case cmd.Parent != "":
		parent, ok := g.m.Find(g.mod.Name, cmd.Parent)
		if !ok || !parent.IsCommand() {
			return "", fmt.Errorf("%w: %s: parent %q is not a command", ErrNotGenerable, cmd.Name, cmd.Parent)
		}
		opts = append(opts, "cmdreg.Parent["+goType(parent)+"]()")
	case cmd.Extends != "":
		i := strings.LastIndex(cmd.Extends, ".")
		module, name := cmd.Extends[:i], cmd.Extends[i+1:]
		if _, ok := g.opts.Imports[module]; !ok {
			return "", fmt.Errorf("%w: %s: no import path for module %q", ErrNotGenerable, cmd.Name, module)
		}
		target, ok := g.m.Find(module, name)
		if !ok || !target.IsCommand() {
			return "", fmt.Errorf("%w: %s: %q is not a command", ErrNotGenerable, cmd.Name, cmd.Extends)
		}
		if r, _ := utf8.DecodeRuneInString(name); !unicode.IsUpper(r) {
			return "", fmt.Errorf("%w: %s: %q is not exported", ErrNotGenerable, cmd.Name, cmd.Extends)
		}
		t := goType(target)
		ptr := strings.HasPrefix(t, "*")
		t = g.qualifier(module) + "." + strings.TrimPrefix(t, "*")
		if ptr {
			t = "*" + t
		}
		opts = append(opts, "cmdreg.Parent["+t+"]()")
	}
	for _, ref := range cmd.Subcommands {
		module, _, ok := g.m.lookupRef(g.mod.Name, ref)
		if !ok {
			return "", fmt.Errorf("%w: %s: unknown subcommand %q", ErrNotGenerable, cmd.Name, ref)
		}
		if _, imported := g.opts.Imports[module]; module != g.mod.Name && !imported {
			return "", fmt.Errorf("%w: %s: no import path for module %q", ErrNotGenerable, cmd.Name, module)
		}
	}
	return fmt.Sprintf("cmdreg.Register[%s](%s)", goType(cmd), strings.Join(opts, ", ")), nil
}

// qualifier imports the Go package of a manifest module and returns the
// name it is referenced by.
func (g *goGenerator) qualifier(module string) string {
	path := g.opts.Imports[module]
	alias := packageAlias(module)
	g.use(path, alias)
	return g.imports[path]
}

// packageAlias derives a Go identifier from a module name.
func packageAlias(module string) string {
	if i := strings.LastIndex(module, "/"); i >= 0 {
		module = module[i+1:]
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(module) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 || unicode.IsDigit(rune(sb.String()[0])) {
		return "mod" + sb.String()
	}
	return sb.String()
}
