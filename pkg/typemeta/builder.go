// SPDX-License-Identifier: MPL-2.0

package typemeta

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invowk/nestcmd/internal/dag"
)

type (
	// TypeSpec declares a nominal type.
	TypeSpec struct {
		// Key is the registry-unique identity, e.g. "example.com/cli.Remove".
		Key string
		// Name is the declared name; it defaults to the last segment of Key.
		Name string
		// Kind must be nominal. Zero means KindStruct.
		Kind Kind
		// Parent is the key of the enclosing module, extension, or type.
		Parent string
		// Generic marks types declared with unbound type parameters.
		Generic bool
		// Accessor materializes the type. Required for conforming types.
		Accessor Accessor
	}

	// Builder collects declarations and produces an immutable Registry.
	// Declarations may reference keys that are declared later; references
	// are resolved by Build. A Builder is safe for concurrent use.
	Builder struct {
		mu           sync.Mutex
		decls        []declaration
		byKey        map[string]int
		conformances []conformanceDecl
		built        bool
	}

	declaration struct {
		key       string
		name      string
		kind      Kind
		parent    string
		generic   bool
		accessor  Accessor
		extends   string
		protocols []string
	}

	conformanceDecl struct {
		typeKey     string
		protocolKey string
		moduleKey   string
	}
)

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byKey: make(map[string]int)}
}

// AddModule declares a module.
func (b *Builder) AddModule(key string) error {
	return b.add(declaration{key: key, name: key, kind: KindModule})
}

// AddExtension declares an extension of the type extends, declared in module.
func (b *Builder) AddExtension(key, module, extends string) error {
	if extends == "" {
		return &DeclarationError{Key: key, Err: ErrUnknownReference, Detail: "extension needs an extended type"}
	}
	return b.add(declaration{key: key, name: key, kind: KindExtension, parent: module, extends: extends})
}

// AddType declares a nominal type.
func (b *Builder) AddType(spec TypeSpec) error {
	kind := spec.Kind
	if kind == 0 {
		kind = KindStruct
	}
	if !kind.IsNominal() {
		return declErr(spec.Key, ErrNotNominal, "kind %s", kind)
	}
	name := spec.Name
	if name == "" {
		name = lastSegment(spec.Key)
	}
	return b.add(declaration{
		key:      spec.Key,
		name:     name,
		kind:     kind,
		parent:   spec.Parent,
		generic:  spec.Generic,
		accessor: spec.Accessor,
	})
}

// AddProtocol declares a protocol, optionally owned by a module.
func (b *Builder) AddProtocol(key, module string) error {
	return b.add(declaration{key: key, name: lastSegment(key), kind: KindProtocol, parent: module})
}

// AddExistential declares the existential type composed of the given
// protocols. Discovery only supports single-protocol existentials, but the
// registry can describe compositions.
func (b *Builder) AddExistential(key string, protocols ...string) error {
	return b.add(declaration{key: key, name: key, kind: KindExistential, protocols: protocols})
}

// AddFunction declares a structural function type.
func (b *Builder) AddFunction(key string) error {
	return b.add(declaration{key: key, name: key, kind: KindFunction})
}

// AddConformance records that typeKey conforms to protocolKey. The record is
// filed under the module that owns the type.
func (b *Builder) AddConformance(typeKey, protocolKey string) error {
	return b.addConformance(conformanceDecl{typeKey: typeKey, protocolKey: protocolKey})
}

// AddConformanceIn records a conformance declared by moduleKey, which may
// differ from the module owning the type (a retroactive conformance).
func (b *Builder) AddConformanceIn(typeKey, protocolKey, moduleKey string) error {
	return b.addConformance(conformanceDecl{typeKey: typeKey, protocolKey: protocolKey, moduleKey: moduleKey})
}

// AddBridgedConformance records a conformance of a foreign type that has no
// context descriptor.
func (b *Builder) AddBridgedConformance(protocolKey, moduleKey string) error {
	if moduleKey == "" {
		return &DeclarationError{Key: protocolKey, Err: ErrUnknownReference, Detail: "bridged conformance needs a module"}
	}
	return b.addConformance(conformanceDecl{protocolKey: protocolKey, moduleKey: moduleKey})
}

// Has reports whether key has been declared.
func (b *Builder) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.byKey[key]
	return ok
}

func (b *Builder) add(d declaration) error {
	if d.key == "" {
		return ErrEmptyKey
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilt
	}
	if _, ok := b.byKey[d.key]; ok {
		return &DeclarationError{Key: d.key, Err: ErrDuplicateKey}
	}
	b.byKey[d.key] = len(b.decls)
	b.decls = append(b.decls, d)
	return nil
}

func (b *Builder) addConformance(c conformanceDecl) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilt
	}
	b.conformances = append(b.conformances, c)
	return nil
}

// Build resolves every reference and returns the immutable Registry. All
// problems found are returned together. The Builder cannot be reused.
func (b *Builder) Build() (*Registry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true

	order, err := b.declarationOrder()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		descriptors: make([]descriptor, len(order)),
		byKey:       make(map[string]DescriptorID, len(order)),
		index:       make(map[ProtocolID]map[DescriptorID][]ConformanceRecord),
	}
	for i, key := range order {
		d := b.decls[b.byKey[key]]
		r.descriptors[i] = descriptor{
			key:      d.key,
			name:     d.name,
			kind:     d.kind,
			parent:   NoDescriptor,
			extends:  NoDescriptor,
			generic:  d.generic,
			accessor: d.accessor,
		}
		r.byKey[key] = DescriptorID(i)
		if d.kind == KindProtocol {
			r.protocols = append(r.protocols, DescriptorID(i))
			r.descriptors[i].protocols = []ProtocolID{ProtocolID(len(r.protocols))}
		}
	}

	var errs []error
	for i, key := range order {
		d := b.decls[b.byKey[key]]
		errs = append(errs, r.link(DescriptorID(i), d)...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for i := range r.descriptors {
		if err := r.checkModuleChain(DescriptorID(i)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	seen := make(map[[2]DescriptorID]bool)
	for _, c := range b.conformances {
		record, err := r.resolveConformance(c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !record.IsBridged() {
			pair := [2]DescriptorID{record.Descriptor, DescriptorID(record.Protocol)}
			if seen[pair] {
				errs = append(errs, &DeclarationError{Key: c.typeKey, Err: ErrDuplicateConformance, Detail: c.protocolKey})
				continue
			}
			seen[pair] = true
		}
		byModule := r.index[record.Protocol]
		if byModule == nil {
			byModule = make(map[DescriptorID][]ConformanceRecord)
			r.index[record.Protocol] = byModule
		}
		byModule[record.Module] = append(byModule[record.Module], record)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return r, nil
}

// declarationOrder sorts declarations parent-first, keeping declaration order
// wherever the hierarchy allows it.
func (b *Builder) declarationOrder() ([]string, error) {
	g := dag.New()
	for _, d := range b.decls {
		g.AddNode(d.key)
	}

	var errs []error
	for _, d := range b.decls {
		if d.parent == "" {
			continue
		}
		if _, ok := b.byKey[d.parent]; !ok {
			errs = append(errs, declErr(d.key, ErrUnknownReference, "parent %q", d.parent))
			continue
		}
		g.AddEdge(d.parent, d.key)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	order, err := g.TopologicalSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, declErr(cycleErr.Cycle[0], ErrParentCycle, "%s", strings.Join(cycleErr.Cycle, " -> "))
		}
		return nil, err
	}
	return order, nil
}

// link sets parent, extends, and protocol references of one descriptor.
func (r *Registry) link(id DescriptorID, d declaration) []error {
	var errs []error
	desc := &r.descriptors[id]

	if d.parent != "" {
		parent := r.byKey[d.parent]
		if !canContain(r.descriptors[parent].kind, d.kind) {
			errs = append(errs, declErr(d.key, ErrInvalidParent, "%s %q cannot contain a %s",
				r.descriptors[parent].kind, d.parent, d.kind))
		}
		desc.parent = parent
	}

	switch d.kind {
	case KindExtension:
		extended, ok := r.byKey[d.extends]
		switch {
		case !ok:
			errs = append(errs, declErr(d.key, ErrUnknownReference, "extends %q", d.extends))
		case !r.descriptors[extended].kind.IsNominal():
			errs = append(errs, declErr(d.key, ErrNotNominal, "extends %q", d.extends))
		default:
			desc.extends = extended
		}
	case KindExistential:
		for _, p := range d.protocols {
			pid, ok := r.byKey[p]
			switch {
			case !ok:
				errs = append(errs, declErr(d.key, ErrUnknownReference, "protocol %q", p))
			case r.descriptors[pid].kind != KindProtocol:
				errs = append(errs, declErr(d.key, ErrNotProtocol, "%q", p))
			default:
				desc.protocols = append(desc.protocols, r.descriptors[pid].protocols[0])
			}
		}
	}
	return errs
}

// checkModuleChain verifies that contexts which must live in a module do.
func (r *Registry) checkModuleChain(id DescriptorID) error {
	d := r.descriptors[id]
	switch {
	case d.kind.IsNominal(), d.kind == KindExtension:
	default:
		return nil
	}
	root := id
	for r.descriptors[root].parent != NoDescriptor {
		root = r.descriptors[root].parent
	}
	if r.descriptors[root].kind != KindModule {
		return &DeclarationError{Key: d.key, Err: ErrNoModule}
	}
	return nil
}

func (r *Registry) resolveConformance(c conformanceDecl) (ConformanceRecord, error) {
	record := ConformanceRecord{Descriptor: NoDescriptor, Module: NoDescriptor}
	subject := c.typeKey
	if subject == "" {
		subject = c.protocolKey
	}

	pid, ok := r.byKey[c.protocolKey]
	if !ok {
		return record, declErr(subject, ErrUnknownReference, "protocol %q", c.protocolKey)
	}
	if r.descriptors[pid].kind != KindProtocol {
		return record, declErr(subject, ErrNotProtocol, "%q", c.protocolKey)
	}
	record.Protocol = r.descriptors[pid].protocols[0]

	if c.typeKey != "" {
		tid, ok := r.byKey[c.typeKey]
		if !ok {
			return record, declErr(c.typeKey, ErrUnknownReference, "conforming type")
		}
		if !r.descriptors[tid].kind.IsNominal() {
			return record, &DeclarationError{Key: c.typeKey, Err: ErrNotNominal}
		}
		if r.descriptors[tid].accessor == nil {
			return record, &DeclarationError{Key: c.typeKey, Err: ErrMissingAccessor}
		}
		record.Descriptor = tid
		record.Module = r.rootOf(tid)
	}

	if c.moduleKey != "" {
		mid, ok := r.byKey[c.moduleKey]
		if !ok {
			return record, declErr(subject, ErrUnknownReference, "module %q", c.moduleKey)
		}
		if r.descriptors[mid].kind != KindModule {
			return record, declErr(subject, ErrNotModule, "%q", c.moduleKey)
		}
		record.Module = mid
	}
	return record, nil
}

// canContain reports whether a context of kind parent may directly contain
// a declaration of kind child.
func canContain(parent, child Kind) bool {
	switch child {
	case KindExtension, KindProtocol:
		return parent == KindModule
	case KindStruct, KindEnum, KindClass:
		return parent == KindModule || parent == KindExtension || parent.IsNominal()
	default:
		return false
	}
}

func lastSegment(key string) string {
	if i := strings.LastIndexAny(key, "./"); i >= 0 && i < len(key)-1 {
		return key[i+1:]
	}
	return key
}

// MustBuild is like Build but panics on error. Intended for tests and
// package-level fixtures.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("typemeta: build failed: %v", err))
	}
	return r
}
