// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"

	"github.com/invowk/nestcmd/pkg/typemeta"
)

const (
	// ReasonBridged drops conformances of foreign types with no descriptor.
	ReasonBridged Reason = iota + 1
	// ReasonNotDirectChild drops types whose parent is not the parent command.
	ReasonNotDirectChild
	// ReasonGeneric drops types with unbound type parameters.
	ReasonGeneric
)

// Reason says why a conformance record was not offered as a subcommand.
type Reason uint8

// Reasons lists every Reason in a stable order.
func Reasons() []Reason {
	return []Reason{ReasonBridged, ReasonNotDirectChild, ReasonGeneric}
}

// String returns the metric label of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonBridged:
		return "bridged"
	case ReasonNotDirectChild:
		return "not_direct_child"
	case ReasonGeneric:
		return "generic"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// moduleOf follows parent links to the root of the chain, which must be a
// module. The hierarchy is a finite tree, so the walk terminates.
func (f *Finder[C]) moduleOf(id typemeta.DescriptorID) typemeta.DescriptorID {
	for {
		parent, ok := f.meta.DescriptorParent(id)
		if !ok {
			break
		}
		id = parent
	}
	if kind := f.meta.DescriptorKind(id); kind != typemeta.KindModule {
		panic(&InvariantError{Err: ErrNotModule, Detail: fmt.Sprintf("descriptor %d is a %s", id, kind)})
	}
	return id
}

// filter reports whether record must be dropped, and why. Checks run in a
// fixed order: bridged, then direct parent, then generic.
func (f *Finder[C]) filter(record typemeta.ConformanceRecord, parent typemeta.DescriptorID) (Reason, bool) {
	if record.IsBridged() {
		return ReasonBridged, true
	}
	// Modules never conform to protocols, so a conforming descriptor always
	// has a parent.
	recordParent, ok := f.meta.DescriptorParent(record.Descriptor)
	if !ok {
		panic(&InvariantError{Err: ErrOrphanConformance, Detail: fmt.Sprintf("descriptor %d", record.Descriptor)})
	}
	if recordParent != parent {
		return ReasonNotDirectChild, true
	}
	if f.meta.DescriptorIsGeneric(record.Descriptor) {
		return ReasonGeneric, true
	}
	return 0, false
}

// materialize runs the accessor of a kept record. The conformance index
// promised the value satisfies C; anything else is corrupt metadata.
func (f *Finder[C]) materialize(record typemeta.ConformanceRecord) Subcommand[C] {
	resp := f.meta.DescriptorAccessor(record.Descriptor, typemeta.Complete)
	cmd, ok := resp.Value.(C)
	if !ok {
		panic(&InvariantError{
			Err:    ErrNotConforming,
			Key:    resp.Metadata.Key,
			Detail: fmt.Sprintf("accessor produced %T", resp.Value),
		})
	}
	return Subcommand[C]{
		Handle:  resp.Metadata.Handle,
		Key:     resp.Metadata.Key,
		Name:    resp.Metadata.Name,
		Command: cmd,
	}
}
