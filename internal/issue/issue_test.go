// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestValues_OrderedAndComplete(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != int(GenerateFailedId) {
		t.Fatalf("Values() has %d issues, want %d", len(values), GenerateFailedId)
	}
	for i, issue := range values {
		if want := Id(i + 1); issue.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), want)
		}
	}
}

func TestAllIssuesHaveContent(t *testing.T) {
	t.Parallel()

	for _, issue := range Values() {
		if strings.TrimSpace(string(issue.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no markdown", issue.Id())
		}
		if issue.Hint() == "" {
			t.Errorf("issue %d has no hint", issue.Id())
		}
		if len(issue.DocLinks()) == 0 {
			t.Errorf("issue %d has no doc links", issue.Id())
		}
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	if Get(0) != nil || Get(Id(999)) != nil {
		t.Error("Get() of an unknown id should return nil")
	}
}

func TestIssue_DocLinksAreCopies(t *testing.T) {
	t.Parallel()

	issue := Get(ManifestNotFoundId)
	links := issue.DocLinks()
	links[0] = "mutated"
	if issue.DocLinks()[0] == "mutated" {
		t.Error("DocLinks() exposes the internal slice")
	}
}

func TestIssue_RenderNotty(t *testing.T) {
	t.Parallel()

	out, err := Get(ManifestNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"No manifest found!", "nestcmd tree ./commands.yaml", "See also"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() output lacks %q:\n%s", want, out)
		}
	}
}

//nolint:paralleltest // swaps the package-level renderer
func TestIssue_RenderPassesMarkdown(t *testing.T) {
	orig := render
	t.Cleanup(func() { render = orig })

	var gotStyle, gotMd string
	render = func(in, stylePath string) (string, error) {
		gotMd, gotStyle = in, stylePath
		return "", errors.New("render failed")
	}

	if _, err := Get(TypeNotFoundId).Render("dark"); err == nil {
		t.Error("Render() should return the renderer's error")
	}
	if gotStyle != "dark" {
		t.Errorf("style = %q, want dark", gotStyle)
	}
	if !strings.Contains(gotMd, "# Type not found!") || !strings.Contains(gotMd, "discovery.md") {
		t.Errorf("markdown = %q", gotMd)
	}
}
