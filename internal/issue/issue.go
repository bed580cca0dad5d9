// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

// Id identifies a catalogued issue.
type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestInvalidId
	UnsupportedFormatId
	TypeNotFoundId
	NotACommandId
	CommandNotFoundId
	RegistryBuildFailedId
	CommandTreeInvalidId
	ConfigLoadFailedId
	GenerateFailedId
)

type (
	MarkdownMsg string

	HttpLink string

	// Issue is a markdown help page shown for a class of failures.
	Issue struct {
		id       Id
		hint     string // one line, appended to ActionableError suggestions
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

// Hint is the one-line suggestion for the issue.
func (i *Issue) Hint() string {
	return i.hint
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the page with glamour using stylePath ("dark", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		var sb strings.Builder
		sb.WriteString(md)
		sb.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			sb.WriteString("\n- <" + string(link) + ">")
		}
		md = sb.String()
	}
	return render(md, stylePath)
}

const docsBase = "https://github.com/invowk/nestcmd/blob/main/docs/"

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id:   ManifestNotFoundId,
		hint: "Pass a manifest path or add one to manifest_paths in the config file",
		mdMsg: `
# No manifest found!

None of the paths given on the command line or listed in ` + "`manifest_paths`" + ` exist.

## Things you can try:
- Create a ` + "`nestcmd.cue`" + ` file in the current directory
- Pass the manifest explicitly:
~~~
$ nestcmd tree ./commands.yaml
~~~
- Check ` + "`manifest_paths`" + ` with ` + "`nestcmd config show`",
		docLinks: []HttpLink{docsBase + "manifest.md"},
	}

	manifestInvalidIssue = &Issue{
		id:   ManifestInvalidId,
		hint: "Run 'nestcmd validate <manifest>' to list every problem",
		mdMsg: `
# Manifest is invalid!

The manifest parsed, but its declarations are inconsistent.

## Common causes:
- A ` + "`parent`" + ` or ` + "`extends`" + ` names a type that is not declared
- Two types in one module share a name
- A ` + "`default`" + ` names no direct subcommand
- Parents form a cycle`,
		docLinks: []HttpLink{docsBase + "manifest.md"},
	}

	unsupportedFormatIssue = &Issue{
		id:   UnsupportedFormatId,
		hint: "Use a .cue, .yaml, .yml or .toml manifest",
		mdMsg: `
# Unsupported manifest format!

Manifests are read as CUE, YAML or TOML, chosen by file extension.`,
		docLinks: []HttpLink{docsBase + "manifest.md"},
	}

	typeNotFoundIssue = &Issue{
		id:   TypeNotFoundId,
		hint: "Type keys are written module.Type, for example git.Remote",
		mdMsg: `
# Type not found!

The type key is not declared in the manifest.

## Things you can try:
- List the declared commands:
~~~
$ nestcmd tree
~~~
- Qualify the name with its module, as in ` + "`git.Remote`",
		docLinks: []HttpLink{docsBase + "discovery.md"},
	}

	notACommandIssue = &Issue{
		id:   NotACommandId,
		hint: "Only types that conform to the command protocol can be roots",
		mdMsg: `
# Not a command!

The type exists but does not conform to the command protocol, so it has no
configuration and cannot start a command tree.`,
		docLinks: []HttpLink{docsBase + "discovery.md"},
	}

	commandNotFoundIssue = &Issue{
		id:   CommandNotFoundId,
		hint: "Run 'nestcmd tree' to list the available commands",
		mdMsg: `
# Command not found!

No root command of the manifest has this name or alias.

## Things you can try:
- List the root commands and their subcommands:
~~~
$ nestcmd tree
~~~
- Put the command line after ` + "`--`" + `:
~~~
$ nestcmd run -- git remote add origin
~~~`,
		docLinks: []HttpLink{docsBase + "cli.md"},
	}

	registryBuildFailedIssue = &Issue{
		id:   RegistryBuildFailedId,
		hint: "Check that every parent type is declared before it is used",
		mdMsg: `
# Type registry could not be built!

Registration rejected a declaration. This usually means a parent handle is
unknown, a key is declared twice, or parents form a cycle.`,
		docLinks: []HttpLink{docsBase + "discovery.md"},
	}

	commandTreeInvalidIssue = &Issue{
		id:   CommandTreeInvalidId,
		hint: "Give sibling commands distinct names and aliases",
		mdMsg: `
# Command tree is invalid!

The command hierarchy could not be turned into a CLI.

## Common causes:
- Two siblings resolve to the same command name or alias
- An explicit ` + "`subcommands`" + ` list refers back to an ancestor
- ` + "`default`" + ` names a subcommand that is not a child`,
		docLinks: []HttpLink{docsBase + "manifest.md"},
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		hint: "Run 'nestcmd config show' to see the effective configuration",
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be read.

## Things you can try:
- Check the CUE syntax of the config file
- Compare it with a fresh default:
~~~
$ nestcmd config init --force
~~~`,
		docLinks: []HttpLink{docsBase + "config.md"},
	}

	generateFailedIssue = &Issue{
		id:   GenerateFailedId,
		hint: "Pass --import module=path for every module referenced from another",
		mdMsg: `
# Code generation failed!

Go registrations are generated one manifest module at a time. References to
types in other modules need the Go import path of that module.`,
		docLinks: []HttpLink{docsBase + "generate.md"},
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():    manifestNotFoundIssue,
		manifestInvalidIssue.Id():     manifestInvalidIssue,
		unsupportedFormatIssue.Id():   unsupportedFormatIssue,
		typeNotFoundIssue.Id():        typeNotFoundIssue,
		notACommandIssue.Id():         notACommandIssue,
		commandNotFoundIssue.Id():     commandNotFoundIssue,
		registryBuildFailedIssue.Id(): registryBuildFailedIssue,
		commandTreeInvalidIssue.Id():  commandTreeInvalidIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		generateFailedIssue.Id():      generateFailedIssue,
	}
)

// Values returns every catalogued issue in Id order.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
