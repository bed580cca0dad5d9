// SPDX-License-Identifier: MPL-2.0

// Package render presents discovered command hierarchies as styled text,
// JSON, and markdown reference documentation.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/invowk/nestcmd/internal/discovery"
	"github.com/invowk/nestcmd/pkg/command"
)

// Color palette, shared with the CLI.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorWarning   = lipgloss.Color("#F59E0B")
)

type (
	// Entry is the presentation view of one command.
	Entry struct {
		Key      string   `json:"key"`
		Type     string   `json:"type"`
		Command  string   `json:"command"`
		Abstract string   `json:"abstract,omitempty"`
		Aliases  []string `json:"aliases,omitempty"`
		Default  string   `json:"default,omitempty"`
		Hidden   bool     `json:"hidden,omitempty"`
		Runnable bool     `json:"runnable,omitempty"`
		// Discussion is only shown in docs.
		Discussion string   `json:"-"`
		Children   []*Entry `json:"children,omitempty"`
	}

	// Styles paints the parts of a text rendering.
	Styles struct {
		Command func(string) string
		Key     func(string) string
		Muted   func(string) string
		Tag     func(string) string
	}
)

// PlainStyles leaves text unstyled, for pipes and golden files.
func PlainStyles() Styles {
	identity := func(s string) string { return s }
	return Styles{Command: identity, Key: identity, Muted: identity, Tag: identity}
}

// DefaultStyles uses the lipgloss palette.
func DefaultStyles() Styles {
	return Styles{
		Command: lipgloss.NewStyle().Bold(true).Foreground(ColorHighlight).Render,
		Key:     lipgloss.NewStyle().Foreground(ColorPrimary).Render,
		Muted:   lipgloss.NewStyle().Foreground(ColorMuted).Render,
		Tag:     lipgloss.NewStyle().Foreground(ColorWarning).Render,
	}
}

// NewEntry describes a single discovered command.
func NewEntry(sub discovery.Subcommand[command.Command]) *Entry {
	cfg := sub.Command.Configuration()
	_, runnable := sub.Command.(command.Runner)
	return &Entry{
		Key:        sub.Key,
		Type:       sub.Name,
		Command:    cfg.ResolvedName(sub.Name),
		Abstract:   cfg.Abstract,
		Aliases:    cfg.Aliases,
		Default:    cfg.DefaultSubcommand,
		Hidden:     cfg.Hidden,
		Runnable:   runnable,
		Discussion: cfg.Discussion,
	}
}

// FromTree converts a discovered tree.
func FromTree(root *discovery.Node[command.Command]) *Entry {
	e := NewEntry(root.Subcommand)
	for _, child := range root.Children {
		e.Children = append(e.Children, FromTree(child))
	}
	return e
}

// Text writes root as an indented tree.
func Text(w io.Writer, root *Entry, s Styles) error {
	var sb strings.Builder
	sb.WriteString(line(root, s))
	sb.WriteByte('\n')
	writeChildren(&sb, root.Children, "", s)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeChildren(sb *strings.Builder, children []*Entry, prefix string, s Styles) {
	for i, child := range children {
		connector, indent := "├── ", "│   "
		if i == len(children)-1 {
			connector, indent = "└── ", "    "
		}
		sb.WriteString(s.Muted(prefix + connector))
		sb.WriteString(line(child, s))
		sb.WriteByte('\n')
		writeChildren(sb, child.Children, prefix+indent, s)
	}
}

func line(e *Entry, s Styles) string {
	out := s.Command(e.Command) + " " + s.Key("("+e.Key+")")
	if e.Abstract != "" {
		out += " " + e.Abstract
	}
	if tags := e.tags(); len(tags) > 0 {
		out += " " + s.Tag("["+strings.Join(tags, ", ")+"]")
	}
	return out
}

func (e *Entry) tags() []string {
	var tags []string
	if len(e.Aliases) > 0 {
		tags = append(tags, "aliases: "+strings.Join(e.Aliases, " "))
	}
	if e.Default != "" {
		tags = append(tags, "default: "+e.Default)
	}
	if e.Hidden {
		tags = append(tags, "hidden")
	}
	if e.Runnable {
		tags = append(tags, "runs")
	}
	return tags
}

// List writes one line per entry, without descendants.
func List(w io.Writer, entries []*Entry, s Styles) error {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(line(e, s))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// JSON writes v indented, followed by a newline.
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
