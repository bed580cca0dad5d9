// SPDX-License-Identifier: MPL-2.0

package typemeta

import "fmt"

const (
	// KindModule is the terminal context of every hierarchy.
	KindModule Kind = iota + 1
	// KindExtension is a context that adds declarations to a type owned by
	// another context. Its parent is the module declaring the extension.
	KindExtension
	// KindStruct is a nominal value type.
	KindStruct
	// KindEnum is a nominal value type with a closed set of cases.
	KindEnum
	// KindClass is a nominal reference type.
	KindClass
	// KindProtocol is an interface contract. Each protocol owns a ProtocolID.
	KindProtocol
	// KindExistential is the type-erased "any P" form of one or more protocols.
	KindExistential
	// KindFunction is a structural function type.
	KindFunction
)

const (
	// Complete asks an accessor for a fully realized value.
	Complete RequestMode = iota
	// Abstract allows an accessor to return a partially realized value.
	Abstract
)

// NoDescriptor is the absent descriptor: no parent, or a bridged conformance.
const NoDescriptor DescriptorID = -1

type (
	// Kind classifies a descriptor.
	Kind uint8

	// Handle is an opaque reference to a declared type. The zero Handle refers
	// to nothing.
	Handle uint32

	// DescriptorID indexes the context descriptor arena of one Registry.
	DescriptorID int32

	// ProtocolID identifies a protocol contract. The zero ProtocolID refers
	// to nothing.
	ProtocolID uint32

	// RequestMode tells an accessor how much work it must do.
	RequestMode uint8

	// Accessor produces the value that backs a nominal type, typically a
	// prototype instance the caller can inspect or copy.
	Accessor func(mode RequestMode) any

	// Metadata describes a resolved nominal type.
	Metadata struct {
		Handle     Handle
		Descriptor DescriptorID
		Kind       Kind
		// Key is the registry-unique identity of the type.
		Key string
		// Name is the unqualified declared name.
		Name string
	}

	// Response is what DescriptorAccessor returns: the metadata of the
	// accessed type and the value its accessor produced.
	Response struct {
		Metadata Metadata
		Mode     RequestMode
		Value    any
	}

	// ConformanceRecord states that a type satisfies a protocol.
	ConformanceRecord struct {
		// Descriptor is the conforming type, or NoDescriptor for conformances
		// of bridged types that have no native lexical position.
		Descriptor DescriptorID
		Protocol   ProtocolID
		// Module is the module that declared the conformance.
		Module DescriptorID
	}

	// Info is a read-only summary of a descriptor, meant for tooling.
	Info struct {
		Handle  Handle
		Key     string
		Name    string
		Kind    Kind
		Generic bool
		// ParentKey is empty for descriptors without a parent.
		ParentKey string
		// ModuleKey is the key of the terminal module, empty when the
		// descriptor has no module ancestry.
		ModuleKey string
		// ExtendsKey is set for extensions only.
		ExtendsKey string
	}
)

// IsNominal reports whether the kind is a struct, enum, or class.
func (k Kind) IsNominal() bool {
	return k == KindStruct || k == KindEnum || k == KindClass
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindExtension:
		return "extension"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindClass:
		return "class"
	case KindProtocol:
		return "protocol"
	case KindExistential:
		return "existential"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseNominalKind maps "struct", "enum", or "class" to its Kind.
func ParseNominalKind(s string) (Kind, bool) {
	switch s {
	case "struct":
		return KindStruct, true
	case "enum":
		return KindEnum, true
	case "class":
		return KindClass, true
	default:
		return 0, false
	}
}

// IsValid reports whether the handle refers to anything.
func (h Handle) IsValid() bool {
	return h != 0
}

// String returns the request mode name.
func (m RequestMode) String() string {
	if m == Complete {
		return "complete"
	}
	return "abstract"
}

// IsBridged reports whether the record has no native descriptor.
func (r ConformanceRecord) IsBridged() bool {
	return r.Descriptor == NoDescriptor
}
