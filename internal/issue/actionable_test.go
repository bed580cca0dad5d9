// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "load manifest"},
			want: "failed to load manifest",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "load manifest", Resource: "./nestcmd.cue"},
			want: "failed to load manifest: ./nestcmd.cue",
		},
		{
			name: "with cause",
			err:  &ActionableError{Operation: "build registry", Cause: errors.New("parent cycle")},
			want: "failed to build registry: parent cycle",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "resolve type",
				Resource:  "git.Nope",
				Cause:     errors.New("not declared"),
			},
			want: "failed to resolve type: git.Nope: not declared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("open nestcmd.cue: %w", fs.ErrNotExist)
	err := NewErrorContext().WithOperation("load manifest").Wrap(cause).BuildError()

	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should reach the wrapped fs.ErrNotExist")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Operation != "load manifest" {
		t.Errorf("errors.As() = %v", ae)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("line 3: unexpected token")
	err := &ActionableError{
		Operation:   "load manifest",
		Resource:    "nestcmd.yaml",
		Suggestions: []string{"Check the YAML syntax", "Run 'nestcmd validate'"},
		Cause:       fmt.Errorf("decode: %w", inner),
	}

	t.Run("concise", func(t *testing.T) {
		t.Parallel()
		got := err.Format(false)
		want := "failed to load manifest: nestcmd.yaml: decode: line 3: unexpected token\n" +
			"\n  • Check the YAML syntax" +
			"\n  • Run 'nestcmd validate'"
		if got != want {
			t.Errorf("Format(false) =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("verbose", func(t *testing.T) {
		t.Parallel()
		got := err.Format(true)
		for _, want := range []string{
			"Error chain:",
			"\n  1. decode: line 3: unexpected token",
			"\n  2. line 3: unexpected token",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("Format(true) lacks %q:\n%s", want, got)
			}
		}
	})

	t.Run("no cause", func(t *testing.T) {
		t.Parallel()
		plain := &ActionableError{Operation: "render docs"}
		if got := plain.Format(true); got != "failed to render docs" {
			t.Errorf("Format(true) = %q", got)
		}
	})
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without an operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want a nil interface", err)
	}

	ae := NewErrorContext().
		WithOperation("generate code").
		WithResource("git").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		Build()
	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Resource != "git" || len(ae.Suggestions) != 3 || !ae.HasSuggestions() {
		t.Errorf("Build() = %+v", ae)
	}
}

func TestErrorContext_ReuseDoesNotAlias(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("load manifest").WithSuggestion("first")
	a := ctx.Build()
	ctx.WithSuggestion("second")
	b := ctx.Build()

	if len(a.Suggestions) != 1 {
		t.Errorf("earlier Build() saw later suggestion: %v", a.Suggestions)
	}
	if len(b.Suggestions) != 2 {
		t.Errorf("later Build() suggestions = %v", b.Suggestions)
	}
}

func TestErrorContext_WithIssue(t *testing.T) {
	t.Parallel()

	ae := NewErrorContext().WithOperation("resolve type").WithIssue(TypeNotFoundId).WithIssue(Id(999)).Build()
	if len(ae.Suggestions) != 1 || ae.Suggestions[0] != Get(TypeNotFoundId).Hint() {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Issue != TypeNotFoundId {
		t.Errorf("Issue = %d, want %d", ae.Issue, TypeNotFoundId)
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
	cause := errors.New("boom")
	ae := WrapWithOperation(cause, "write metrics")
	if ae.Operation != "write metrics" || !errors.Is(ae, cause) {
		t.Errorf("WrapWithOperation() = %+v", ae)
	}
}
