// SPDX-License-Identifier: MPL-2.0

package typemeta

import (
	"errors"
	"sync"
	"testing"
)

const (
	testProtocol    = "M.Command"
	testExistential = "any M.Command"
)

func prototype(name string) Accessor {
	return func(RequestMode) any { return name }
}

// newScenario declares module M with Root{Add, Remove{RemoveAll}} plus a
// function type, all conforming to M.Command.
func newScenario(t *testing.T) *Registry {
	t.Helper()
	b := NewBuilder()
	mustNoErr(t, b.AddModule("M"))
	mustNoErr(t, b.AddProtocol(testProtocol, "M"))
	mustNoErr(t, b.AddExistential(testExistential, testProtocol))
	mustNoErr(t, b.AddFunction("func()"))
	for _, spec := range []TypeSpec{
		{Key: "M.Root", Parent: "M", Accessor: prototype("Root")},
		{Key: "M.Root.Add", Parent: "M.Root", Accessor: prototype("Add")},
		{Key: "M.Root.Remove", Parent: "M.Root", Accessor: prototype("Remove")},
		{Key: "M.Root.Remove.RemoveAll", Parent: "M.Root.Remove", Accessor: prototype("RemoveAll")},
	} {
		mustNoErr(t, b.AddType(spec))
		mustNoErr(t, b.AddConformance(spec.Key, testProtocol))
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return r
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustLookup(t *testing.T, r *Registry, key string) Handle {
	t.Helper()
	h, ok := r.Lookup(key)
	if !ok {
		t.Fatalf("Lookup(%q) found nothing", key)
	}
	return h
}

func TestResolveTypeMetadata(t *testing.T) {
	t.Parallel()
	r := newScenario(t)

	tests := []struct {
		key         string
		wantNominal bool
	}{
		{"M.Root", true},
		{"M.Root.Remove.RemoveAll", true},
		{"M", false},
		{testProtocol, false},
		{testExistential, false},
		{"func()", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			md, ok := r.ResolveTypeMetadata(mustLookup(t, r, tt.key))
			if ok != tt.wantNominal {
				t.Fatalf("nominal = %v, want %v", ok, tt.wantNominal)
			}
			if ok && md.Key != tt.key {
				t.Errorf("Key = %q, want %q", md.Key, tt.key)
			}
		})
	}

	if _, ok := r.ResolveTypeMetadata(0); ok {
		t.Error("zero handle must not resolve")
	}
	if _, ok := r.ResolveTypeMetadata(Handle(r.Len() + 1)); ok {
		t.Error("out of range handle must not resolve")
	}
}

func TestDescriptorParentChain(t *testing.T) {
	t.Parallel()
	r := newScenario(t)

	md, _ := r.ResolveTypeMetadata(mustLookup(t, r, "M.Root.Remove.RemoveAll"))
	var keys []string
	for id, ok := md.Descriptor, true; ok; id, ok = r.DescriptorParent(id) {
		info, _ := r.Describe(handleOf(id))
		keys = append(keys, info.Key)
	}
	want := []string{"M.Root.Remove.RemoveAll", "M.Root.Remove", "M.Root", "M"}
	if len(keys) != len(want) {
		t.Fatalf("chain = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("chain[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	if _, ok := r.DescriptorParent(NoDescriptor); ok {
		t.Error("NoDescriptor must have no parent")
	}
}

func TestDescriptorAccessor(t *testing.T) {
	t.Parallel()
	r := newScenario(t)
	md, _ := r.ResolveTypeMetadata(mustLookup(t, r, "M.Root.Add"))

	resp := r.DescriptorAccessor(md.Descriptor, Complete)
	if resp.Value != "Add" {
		t.Errorf("Value = %v, want Add", resp.Value)
	}
	if resp.Metadata.Handle != md.Handle {
		t.Errorf("Handle = %v, want %v", resp.Metadata.Handle, md.Handle)
	}
	if resp.Mode != Complete {
		t.Errorf("Mode = %v, want complete", resp.Mode)
	}

	if got := r.DescriptorAccessor(DescriptorID(999), Complete); got.Value != nil {
		t.Errorf("unknown descriptor produced %v", got.Value)
	}
}

func TestExistentialProtocols(t *testing.T) {
	t.Parallel()
	r := newScenario(t)

	fromExistential := r.ExistentialProtocols(mustLookup(t, r, testExistential))
	fromProtocol := r.ExistentialProtocols(mustLookup(t, r, testProtocol))
	if len(fromExistential) != 1 || len(fromProtocol) != 1 || fromExistential[0] != fromProtocol[0] {
		t.Fatalf("existential %v and protocol %v should name the same single protocol", fromExistential, fromProtocol)
	}
	if got := r.ExistentialProtocols(mustLookup(t, r, "M.Root")); got != nil {
		t.Errorf("nominal type has protocols %v", got)
	}
}

func TestConformances_RegistrationOrderAndCopy(t *testing.T) {
	t.Parallel()
	r := newScenario(t)
	protocol := r.ExistentialProtocols(mustLookup(t, r, testExistential))[0]
	module, _ := r.ResolveTypeMetadata(mustLookup(t, r, "M.Root"))
	moduleID, _ := r.DescriptorParent(module.Descriptor)

	records := r.Conformances(protocol, moduleID)
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	wantOrder := []string{"M.Root", "M.Root.Add", "M.Root.Remove", "M.Root.Remove.RemoveAll"}
	for i, rec := range records {
		info, _ := r.Describe(handleOf(rec.Descriptor))
		if info.Key != wantOrder[i] {
			t.Errorf("records[%d] = %q, want %q", i, info.Key, wantOrder[i])
		}
		if rec.Module != moduleID {
			t.Errorf("records[%d].Module = %d, want %d", i, rec.Module, moduleID)
		}
	}

	records[0].Descriptor = NoDescriptor
	if again := r.Conformances(protocol, moduleID); again[0].Descriptor == NoDescriptor {
		t.Error("Conformances must return a copy")
	}

	if got := r.Conformances(ProtocolID(42), moduleID); len(got) != 0 {
		t.Errorf("unknown protocol returned %v", got)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	mustNoErr(t, b.AddModule("M"))
	mustNoErr(t, b.AddModule("N"))
	mustNoErr(t, b.AddType(TypeSpec{Key: "M.Root", Parent: "M"}))
	mustNoErr(t, b.AddExtension("N.ext(M.Root)", "N", "M.Root"))
	mustNoErr(t, b.AddType(TypeSpec{Key: "N.Plugin", Name: "Plugin", Parent: "N.ext(M.Root)", Kind: KindEnum, Generic: true}))
	r := b.MustBuild()

	info, ok := r.Describe(mustLookup(t, r, "N.Plugin"))
	if !ok {
		t.Fatal("Describe failed")
	}
	want := Info{
		Handle:    info.Handle,
		Key:       "N.Plugin",
		Name:      "Plugin",
		Kind:      KindEnum,
		Generic:   true,
		ParentKey: "N.ext(M.Root)",
		ModuleKey: "N",
	}
	if info != want {
		t.Errorf("Describe = %+v, want %+v", info, want)
	}

	ext, _ := r.Describe(mustLookup(t, r, "N.ext(M.Root)"))
	if ext.ExtendsKey != "M.Root" || ext.Kind != KindExtension {
		t.Errorf("extension info = %+v", ext)
	}

	if got := len(r.Handles(KindModule)); got != 2 {
		t.Errorf("Handles(KindModule) returned %d handles, want 2", got)
	}
	if !r.DescriptorIsGeneric(DescriptorID(info.Handle - 1)) {
		t.Error("expected generic descriptor")
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	t.Parallel()
	r := newScenario(t)
	protocol := r.ExistentialProtocols(mustLookup(t, r, testExistential))[0]
	root, _ := r.ResolveTypeMetadata(mustLookup(t, r, "M.Root"))
	module, _ := r.DescriptorParent(root.Descriptor)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if n := len(r.Conformances(protocol, module)); n != 4 {
					errs <- errors.New("unexpected record count")
					return
				}
				if _, ok := r.ResolveTypeMetadata(root.Handle); !ok {
					errs <- errors.New("root stopped resolving")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
