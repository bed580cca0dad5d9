// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

// randomTree is a generated hierarchy of types in module M, plus types in
// module N that nest under M types through extensions.
type randomTree struct {
	keys     []string
	parents  []int // -1 for the module
	generic  []bool
	conforms []bool
	foreign  []int // index of the M type each N type extends
}

func drawTree(t *rapid.T) randomTree {
	n := rapid.IntRange(1, 24).Draw(t, "types")
	tree := randomTree{}
	for i := range n {
		tree.keys = append(tree.keys, fmt.Sprintf("M.T%d", i))
		tree.parents = append(tree.parents, rapid.IntRange(-1, i-1).Draw(t, fmt.Sprintf("parent%d", i)))
		tree.generic = append(tree.generic, rapid.Bool().Draw(t, fmt.Sprintf("generic%d", i)))
		tree.conforms = append(tree.conforms, rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("conforms%d", i)) > 0)
	}
	foreign := rapid.IntRange(0, 4).Draw(t, "foreign")
	for i := range foreign {
		tree.foreign = append(tree.foreign, rapid.IntRange(0, n-1).Draw(t, fmt.Sprintf("extends%d", i)))
	}
	return tree
}

func (tree randomTree) build(t *rapid.T) *typemeta.Registry {
	b := typemeta.NewBuilder()
	must := func(err error) {
		if err != nil {
			t.Fatalf("declaration failed: %v", err)
		}
	}
	must(b.AddModule("nestcmd"))
	must(b.AddProtocol(command.ProtocolKey, "nestcmd"))
	must(b.AddExistential(command.ExistentialKey, command.ProtocolKey))
	must(b.AddModule("M"))
	must(b.AddModule("N"))

	for i, key := range tree.keys {
		parent := "M"
		if tree.parents[i] >= 0 {
			parent = tree.keys[tree.parents[i]]
		}
		name := key
		must(b.AddType(typemeta.TypeSpec{
			Key:      key,
			Parent:   parent,
			Generic:  tree.generic[i],
			Accessor: func(typemeta.RequestMode) any { return testCommand{name: name} },
		}))
		if tree.conforms[i] {
			must(b.AddConformance(key, command.ProtocolKey))
		}
	}
	for i, extended := range tree.foreign {
		ext := fmt.Sprintf("N.ext%d", i)
		key := fmt.Sprintf("N.F%d", i)
		must(b.AddExtension(ext, "N", tree.keys[extended]))
		must(b.AddType(typemeta.TypeSpec{
			Key:      key,
			Parent:   ext,
			Accessor: func(typemeta.RequestMode) any { return testCommand{name: key} },
		}))
		must(b.AddConformance(key, command.ProtocolKey))
	}

	reg, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return reg
}

// expected computes the direct, conforming, non-generic children of the
// parent at index p in declaration order.
func (tree randomTree) expected(p int) []string {
	var out []string
	for i := range tree.keys {
		if tree.parents[i] == p && tree.conforms[i] && !tree.generic[i] {
			out = append(out, tree.keys[i])
		}
	}
	return out
}

func TestFindSubcommands_Properties(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		tree := drawTree(t)
		reg := tree.build(t)
		contract, _ := reg.Lookup(command.ExistentialKey)
		finder := New[command.Command](reg, contract)

		for p, key := range tree.keys {
			h, _ := reg.Lookup(key)
			got := keys(finder.FindSubcommands(h))

			if want := tree.expected(p); !equalKeys(got, want) {
				t.Fatalf("FindSubcommands(%s) = %v, want %v", key, got, want)
			}
			if again := keys(finder.FindSubcommands(h)); !equalKeys(got, again) {
				t.Fatalf("FindSubcommands(%s) not deterministic: %v then %v", key, got, again)
			}
			for _, sub := range got {
				info, _ := reg.Describe(mustHandle(t, reg, sub))
				if info.Generic || info.ModuleKey != "M" || info.ParentKey != key {
					t.Fatalf("FindSubcommands(%s) returned %+v", key, info)
				}
			}
		}

		for _, key := range []string{command.ProtocolKey, command.ExistentialKey, "M", "N"} {
			h, _ := reg.Lookup(key)
			if got := finder.FindSubcommands(h); len(got) != 0 {
				t.Fatalf("FindSubcommands(%s) = %v, want empty", key, keys(got))
			}
		}
	})
}

func mustHandle(t *rapid.T, reg *typemeta.Registry, key string) typemeta.Handle {
	h, ok := reg.Lookup(key)
	if !ok {
		t.Fatalf("Lookup(%q) found nothing", key)
	}
	return h
}
