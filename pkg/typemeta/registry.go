// SPDX-License-Identifier: MPL-2.0

package typemeta

import "slices"

type (
	// Registry is the immutable result of Builder.Build. All methods are safe
	// for concurrent use.
	Registry struct {
		descriptors []descriptor
		byKey       map[string]DescriptorID
		// protocols maps ProtocolID-1 to the protocol's descriptor.
		protocols []DescriptorID
		index     map[ProtocolID]map[DescriptorID][]ConformanceRecord
	}

	descriptor struct {
		key      string
		name     string
		kind     Kind
		parent   DescriptorID
		extends  DescriptorID
		generic  bool
		accessor Accessor
		// protocols holds the protocol's own identity for KindProtocol and
		// the composed identities for KindExistential.
		protocols []ProtocolID
	}
)

// Lookup returns the handle declared under key.
func (r *Registry) Lookup(key string) (Handle, bool) {
	id, ok := r.byKey[key]
	if !ok {
		return 0, false
	}
	return handleOf(id), true
}

// ResolveTypeMetadata returns the metadata of a nominal type. Any other
// handle (module, protocol, existential, function, unknown) reports false.
func (r *Registry) ResolveTypeMetadata(h Handle) (Metadata, bool) {
	id, ok := r.descriptorOf(h)
	if !ok || !r.descriptors[id].kind.IsNominal() {
		return Metadata{}, false
	}
	return r.metadata(id), true
}

// DescriptorParent returns the parent context, or false for roots.
func (r *Registry) DescriptorParent(id DescriptorID) (DescriptorID, bool) {
	if !r.valid(id) {
		return NoDescriptor, false
	}
	p := r.descriptors[id].parent
	return p, p != NoDescriptor
}

// DescriptorKind returns the kind of a descriptor, or zero when unknown.
func (r *Registry) DescriptorKind(id DescriptorID) Kind {
	if !r.valid(id) {
		return 0
	}
	return r.descriptors[id].kind
}

// DescriptorIsGeneric reports whether the descriptor has unbound type
// parameters.
func (r *Registry) DescriptorIsGeneric(id DescriptorID) bool {
	return r.valid(id) && r.descriptors[id].generic
}

// DescriptorAccessor runs the descriptor's accessor. Value is nil when the
// descriptor has none.
func (r *Registry) DescriptorAccessor(id DescriptorID, mode RequestMode) Response {
	if !r.valid(id) {
		return Response{Mode: mode}
	}
	resp := Response{Metadata: r.metadata(id), Mode: mode}
	if acc := r.descriptors[id].accessor; acc != nil {
		resp.Value = acc(mode)
	}
	return resp
}

// ExistentialProtocols lists the protocol identities behind an existential
// handle. A protocol handle is treated as its own single-protocol existential.
// Anything else yields nil.
func (r *Registry) ExistentialProtocols(h Handle) []ProtocolID {
	id, ok := r.descriptorOf(h)
	if !ok {
		return nil
	}
	switch r.descriptors[id].kind {
	case KindExistential, KindProtocol:
		return slices.Clone(r.descriptors[id].protocols)
	default:
		return nil
	}
}

// Conformances returns the records for protocol declared in module, in
// registration order. The slice is a copy.
func (r *Registry) Conformances(protocol ProtocolID, module DescriptorID) []ConformanceRecord {
	return slices.Clone(r.index[protocol][module])
}

// Describe summarizes any declared handle.
func (r *Registry) Describe(h Handle) (Info, bool) {
	id, ok := r.descriptorOf(h)
	if !ok {
		return Info{}, false
	}
	d := r.descriptors[id]
	info := Info{
		Handle:  h,
		Key:     d.key,
		Name:    d.name,
		Kind:    d.kind,
		Generic: d.generic,
	}
	if d.parent != NoDescriptor {
		info.ParentKey = r.descriptors[d.parent].key
	}
	if d.extends != NoDescriptor {
		info.ExtendsKey = r.descriptors[d.extends].key
	}
	if root := r.rootOf(id); r.descriptors[root].kind == KindModule {
		info.ModuleKey = r.descriptors[root].key
	}
	return info, true
}

// Handles lists every handle of the given kinds in arena order (parents
// before children). With no kinds, every handle is listed.
func (r *Registry) Handles(kinds ...Kind) []Handle {
	var out []Handle
	for i, d := range r.descriptors {
		if len(kinds) == 0 || slices.Contains(kinds, d.kind) {
			out = append(out, handleOf(DescriptorID(i)))
		}
	}
	return out
}

// HandleOfDescriptor converts a descriptor back to its handle.
func (r *Registry) HandleOfDescriptor(id DescriptorID) (Handle, bool) {
	if !r.valid(id) {
		return 0, false
	}
	return handleOf(id), true
}

// Len returns the number of declared descriptors.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

func (r *Registry) metadata(id DescriptorID) Metadata {
	d := r.descriptors[id]
	return Metadata{
		Handle:     handleOf(id),
		Descriptor: id,
		Kind:       d.kind,
		Key:        d.key,
		Name:       d.name,
	}
}

func (r *Registry) rootOf(id DescriptorID) DescriptorID {
	for r.descriptors[id].parent != NoDescriptor {
		id = r.descriptors[id].parent
	}
	return id
}

func (r *Registry) descriptorOf(h Handle) (DescriptorID, bool) {
	if !h.IsValid() || int(h) > len(r.descriptors) {
		return NoDescriptor, false
	}
	return DescriptorID(h - 1), true
}

func (r *Registry) valid(id DescriptorID) bool {
	return id >= 0 && int(id) < len(r.descriptors)
}

func handleOf(id DescriptorID) Handle {
	return Handle(id + 1)
}
