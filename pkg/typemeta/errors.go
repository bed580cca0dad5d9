// SPDX-License-Identifier: MPL-2.0

package typemeta

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned when a declaration has no key.
	ErrEmptyKey = errors.New("empty key")
	// ErrDuplicateKey is returned when two declarations share a key.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnknownReference is returned when a declaration names a key that was
	// never declared.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrParentCycle is returned when parent links loop.
	ErrParentCycle = errors.New("parent cycle")
	// ErrInvalidParent is returned when a parent has a kind that cannot
	// contain the child (for example a type nested in a protocol).
	ErrInvalidParent = errors.New("invalid parent")
	// ErrNoModule is returned when a parent chain does not end at a module.
	ErrNoModule = errors.New("context chain does not end at a module")
	// ErrNotProtocol is returned when a protocol reference names something else.
	ErrNotProtocol = errors.New("not a protocol")
	// ErrNotNominal is returned when a conformance names a non-nominal type.
	ErrNotNominal = errors.New("not a nominal type")
	// ErrNotModule is returned when a module reference names something else.
	ErrNotModule = errors.New("not a module")
	// ErrMissingAccessor is returned when a conforming type cannot be
	// materialized because it has no accessor.
	ErrMissingAccessor = errors.New("conforming type has no accessor")
	// ErrDuplicateConformance is returned when a type conforms to the same
	// protocol twice.
	ErrDuplicateConformance = errors.New("duplicate conformance")
	// ErrBuilt is returned when a Builder is used after Build.
	ErrBuilt = errors.New("builder already built")
)

// DeclarationError ties a build failure to the declaration that caused it.
// It wraps one of the Err* sentinels for errors.Is() checks.
type DeclarationError struct {
	Key    string
	Err    error
	Detail string
}

// Error implements the error interface.
func (e *DeclarationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.Key, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

// Unwrap returns the sentinel error.
func (e *DeclarationError) Unwrap() error { return e.Err }

func declErr(key string, err error, format string, args ...any) *DeclarationError {
	return &DeclarationError{Key: key, Err: err, Detail: fmt.Sprintf(format, args...)}
}
