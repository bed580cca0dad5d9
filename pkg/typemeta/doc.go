// SPDX-License-Identifier: MPL-2.0

// Package typemeta is an explicit, build-once type metadata service.
//
// It stands in for compiler-emitted runtime metadata: every type the program
// wants to reason about is declared to a Builder (by hand, from a manifest,
// or by self-registration at init time), and Build produces an immutable
// Registry. The Registry exposes the small capability surface that command
// discovery consumes:
//
//   - ResolveTypeMetadata: handle -> nominal metadata, or not nominal
//   - DescriptorParent / DescriptorKind / DescriptorIsGeneric
//   - DescriptorAccessor: materialize the value backing a descriptor
//   - ExistentialProtocols: protocol identities behind an existential handle
//   - Conformances: the conformance index, keyed by protocol then module
//
// Context descriptors live in an arena and refer to their parent by index.
// The hierarchy is a finite tree whose roots are module descriptors; Build
// rejects anything else, so walking parent links always terminates.
//
// A Registry is never mutated after Build and is safe for concurrent use
// without locking.
package typemeta
