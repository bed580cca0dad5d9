// SPDX-License-Identifier: MPL-2.0

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DocsOptions configures terminal rendering of the markdown reference.
type DocsOptions struct {
	// Style is a glamour style name ("dark", "light", "notty", ...). Empty
	// means auto-detection.
	Style string
	// Width is the word wrap width (0 for no wrap).
	Width int
}

// Markdown writes a reference page for root and its visible descendants.
// Each command gets a section headed by its full command path.
func Markdown(root *Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", root.Command)
	writeSection(&sb, root, nil, true)
	return sb.String()
}

func writeSection(sb *strings.Builder, e *Entry, parents []string, top bool) {
	path := append(parents[:len(parents):len(parents)], e.Command)
	if !top {
		fmt.Fprintf(sb, "\n## %s\n", strings.Join(path, " "))
	}
	if e.Abstract != "" {
		fmt.Fprintf(sb, "\n%s\n", e.Abstract)
	}
	if e.Discussion != "" {
		fmt.Fprintf(sb, "\n%s\n", e.Discussion)
	}
	fmt.Fprintf(sb, "\nType: `%s`\n", e.Key)
	if len(e.Aliases) > 0 {
		fmt.Fprintf(sb, "\nAliases: `%s`\n", strings.Join(e.Aliases, "`, `"))
	}
	if e.Runnable {
		fmt.Fprintf(sb, "\nUsage: `%s [args...]`\n", strings.Join(path, " "))
	}

	visible := make([]*Entry, 0, len(e.Children))
	for _, child := range e.Children {
		if !child.Hidden {
			visible = append(visible, child)
		}
	}
	if len(visible) > 0 {
		sb.WriteString("\nSubcommands:\n\n")
		for _, child := range visible {
			item := strings.Join(append(path[:len(path):len(path)], child.Command), " ")
			if child.Command == e.Default {
				item += " (default)"
			}
			fmt.Fprintf(sb, "- `%s`", item)
			if child.Abstract != "" {
				fmt.Fprintf(sb, ": %s", child.Abstract)
			}
			sb.WriteByte('\n')
		}
	}
	for _, child := range visible {
		writeSection(sb, child, path, false)
	}
}

// Docs renders markdown for the terminal with glamour.
func Docs(markdown string, opts DocsOptions) (string, error) {
	var rendererOpts []glamour.TermRendererOption
	if opts.Style == "" {
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	} else {
		rendererOpts = append(rendererOpts, glamour.WithStandardStyle(opts.Style))
	}
	if opts.Width > 0 {
		rendererOpts = append(rendererOpts, glamour.WithWordWrap(opts.Width))
	}

	renderer, err := glamour.NewTermRenderer(rendererOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
