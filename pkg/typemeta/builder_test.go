// SPDX-License-Identifier: MPL-2.0

package typemeta

import (
	"errors"
	"strings"
	"testing"
)

func TestBuild_ForwardParentReferences(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	// Children first: the builder orders them after their parents.
	mustNoErr(t, b.AddType(TypeSpec{Key: "M.Root.Add", Parent: "M.Root", Accessor: prototype("Add")}))
	mustNoErr(t, b.AddType(TypeSpec{Key: "M.Root", Parent: "M", Accessor: prototype("Root")}))
	mustNoErr(t, b.AddModule("M"))
	mustNoErr(t, b.AddProtocol(testProtocol, ""))
	mustNoErr(t, b.AddConformance("M.Root.Add", testProtocol))

	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	add, _ := r.ResolveTypeMetadata(mustLookup(t, r, "M.Root.Add"))
	parent, ok := r.DescriptorParent(add.Descriptor)
	if !ok {
		t.Fatal("Add has no parent")
	}
	if info, _ := r.Describe(handleOf(parent)); info.Key != "M.Root" {
		t.Errorf("parent = %q, want M.Root", info.Key)
	}
	if add.Name != "Add" {
		t.Errorf("Name = %q, want Add", add.Name)
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		declare func(b *Builder)
		wantErr error
		wantKey string
	}{
		{
			name: "unknown parent",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddType(TypeSpec{Key: "M.Root", Parent: "M.Missing"})
			},
			wantErr: ErrUnknownReference,
			wantKey: "M.Root",
		},
		{
			name: "parent cycle",
			declare: func(b *Builder) {
				_ = b.AddType(TypeSpec{Key: "A", Parent: "B"})
				_ = b.AddType(TypeSpec{Key: "B", Parent: "A"})
			},
			wantErr: ErrParentCycle,
		},
		{
			name: "type without module",
			declare: func(b *Builder) {
				_ = b.AddType(TypeSpec{Key: "Floating"})
			},
			wantErr: ErrNoModule,
			wantKey: "Floating",
		},
		{
			name: "type nested in protocol",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddProtocol("M.P", "M")
				_ = b.AddType(TypeSpec{Key: "M.P.Inner", Parent: "M.P"})
			},
			wantErr: ErrInvalidParent,
			wantKey: "M.P.Inner",
		},
		{
			name: "extension of unknown type",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddExtension("M.ext", "M", "M.Nope")
			},
			wantErr: ErrUnknownReference,
			wantKey: "M.ext",
		},
		{
			name: "existential over a type",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddType(TypeSpec{Key: "M.T", Parent: "M"})
				_ = b.AddExistential("any M.T", "M.T")
			},
			wantErr: ErrNotProtocol,
		},
		{
			name: "conformance of a module",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddProtocol("M.P", "M")
				_ = b.AddConformance("M", "M.P")
			},
			wantErr: ErrNotNominal,
		},
		{
			name: "conformance without accessor",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddProtocol("M.P", "M")
				_ = b.AddType(TypeSpec{Key: "M.T", Parent: "M"})
				_ = b.AddConformance("M.T", "M.P")
			},
			wantErr: ErrMissingAccessor,
			wantKey: "M.T",
		},
		{
			name: "duplicate conformance",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddProtocol("M.P", "M")
				_ = b.AddType(TypeSpec{Key: "M.T", Parent: "M", Accessor: prototype("T")})
				_ = b.AddConformance("M.T", "M.P")
				_ = b.AddConformance("M.T", "M.P")
			},
			wantErr: ErrDuplicateConformance,
		},
		{
			name: "conformance to a type",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddType(TypeSpec{Key: "M.T", Parent: "M", Accessor: prototype("T")})
				_ = b.AddConformance("M.T", "M.T")
			},
			wantErr: ErrNotProtocol,
		},
		{
			name: "retroactive conformance in a type",
			declare: func(b *Builder) {
				_ = b.AddModule("M")
				_ = b.AddProtocol("M.P", "M")
				_ = b.AddType(TypeSpec{Key: "M.T", Parent: "M", Accessor: prototype("T")})
				_ = b.AddConformanceIn("M.T", "M.P", "M.T")
			},
			wantErr: ErrNotModule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewBuilder()
			tt.declare(b)
			_, err := b.Build()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantKey != "" {
				var declErr *DeclarationError
				if !errors.As(err, &declErr) {
					t.Fatalf("expected *DeclarationError, got %T", err)
				}
				if declErr.Key != tt.wantKey {
					t.Errorf("Key = %q, want %q", declErr.Key, tt.wantKey)
				}
			}
		})
	}
}

func TestBuild_ReportsEveryUnknownParent(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	mustNoErr(t, b.AddModule("M"))
	mustNoErr(t, b.AddType(TypeSpec{Key: "M.A", Parent: "M.X"}))
	mustNoErr(t, b.AddType(TypeSpec{Key: "M.B", Parent: "M.Y"}))

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"M.A", "M.X", "M.B", "M.Y"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestBuilder_AddErrors(t *testing.T) {
	t.Parallel()
	b := NewBuilder()

	if err := b.AddModule(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("empty key: got %v", err)
	}
	mustNoErr(t, b.AddModule("M"))
	if err := b.AddModule("M"); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate: got %v", err)
	}
	if err := b.AddType(TypeSpec{Key: "M.P", Kind: KindProtocol}); !errors.Is(err, ErrNotNominal) {
		t.Errorf("non-nominal kind: got %v", err)
	}
	if err := b.AddBridgedConformance("M.P", ""); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("bridged without module: got %v", err)
	}
	if !b.Has("M") || b.Has("M.P") {
		t.Error("Has reports wrong declarations")
	}

	if _, err := b.Build(); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if err := b.AddModule("N"); !errors.Is(err, ErrBuilt) {
		t.Errorf("add after build: got %v", err)
	}
	if _, err := b.Build(); !errors.Is(err, ErrBuilt) {
		t.Errorf("second build: got %v", err)
	}
}

func TestBuild_BridgedAndRetroactiveConformances(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	mustNoErr(t, b.AddModule("M"))
	mustNoErr(t, b.AddModule("N"))
	mustNoErr(t, b.AddProtocol("M.P", "M"))
	mustNoErr(t, b.AddType(TypeSpec{Key: "M.T", Parent: "M", Accessor: prototype("T")}))
	mustNoErr(t, b.AddBridgedConformance("M.P", "M"))
	mustNoErr(t, b.AddConformanceIn("M.T", "M.P", "N"))
	r := b.MustBuild()

	protocol := r.ExistentialProtocols(mustLookup(t, r, "M.P"))[0]
	m, _ := r.Lookup("M")
	n, _ := r.Lookup("N")

	inM := r.Conformances(protocol, DescriptorID(m-1))
	if len(inM) != 1 || !inM[0].IsBridged() {
		t.Errorf("module M records = %+v, want one bridged record", inM)
	}
	inN := r.Conformances(protocol, DescriptorID(n-1))
	if len(inN) != 1 || inN[0].IsBridged() {
		t.Errorf("module N records = %+v, want the retroactive conformance", inN)
	}
}

func TestKind(t *testing.T) {
	t.Parallel()
	for _, k := range []Kind{KindStruct, KindEnum, KindClass} {
		if !k.IsNominal() {
			t.Errorf("%s should be nominal", k)
		}
		parsed, ok := ParseNominalKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseNominalKind(%q) = %v, %v", k, parsed, ok)
		}
	}
	for _, k := range []Kind{KindModule, KindExtension, KindProtocol, KindExistential, KindFunction} {
		if k.IsNominal() {
			t.Errorf("%s should not be nominal", k)
		}
	}
	if _, ok := ParseNominalKind("protocol"); ok {
		t.Error("protocol is not a nominal kind")
	}
	if got := Kind(99).String(); got != "kind(99)" {
		t.Errorf("unknown kind String() = %q", got)
	}
}
