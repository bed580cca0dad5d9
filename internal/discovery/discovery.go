// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/nestcmd/pkg/typemeta"
)

var (
	// ErrNotModule means a context chain ended at something other than a module.
	ErrNotModule = errors.New("context chain does not end at a module")
	// ErrNotConforming means an accessor produced a value that does not
	// satisfy the command contract even though the conformance index says so.
	ErrNotConforming = errors.New("conforming type does not satisfy the contract")
	// ErrExistentialShape means the contract handle is not a single-protocol
	// existential.
	ErrExistentialShape = errors.New("contract is not a single-protocol existential")
	// ErrOrphanConformance means a native conformance record has a
	// descriptor without a parent.
	ErrOrphanConformance = errors.New("conforming descriptor has no parent")
)

type (
	// MetadataService is the read-only metadata the finder consumes.
	// *typemeta.Registry implements it.
	MetadataService interface {
		ResolveTypeMetadata(h typemeta.Handle) (typemeta.Metadata, bool)
		DescriptorParent(id typemeta.DescriptorID) (typemeta.DescriptorID, bool)
		DescriptorKind(id typemeta.DescriptorID) typemeta.Kind
		DescriptorIsGeneric(id typemeta.DescriptorID) bool
		DescriptorAccessor(id typemeta.DescriptorID, mode typemeta.RequestMode) typemeta.Response
		ExistentialProtocols(h typemeta.Handle) []typemeta.ProtocolID
		Conformances(protocol typemeta.ProtocolID, module typemeta.DescriptorID) []typemeta.ConformanceRecord
	}

	// Subcommand is one discovered command type.
	Subcommand[C any] struct {
		Handle typemeta.Handle
		Key    string
		Name   string
		// Command is the value produced by the type's accessor.
		Command C
	}

	// Finder discovers nested command types that satisfy the contract C.
	// A Finder holds no mutable state; it is safe for concurrent use when the
	// metadata service is.
	Finder[C any] struct {
		meta     MetadataService
		protocol typemeta.ProtocolID
		logger   *log.Logger
		observer Observer
	}

	// Option configures a Finder.
	Option func(*options)

	options struct {
		logger   *log.Logger
		observer Observer
	}

	// InvariantError reports metadata that broke its own contract. It is
	// only ever raised with panic.
	InvariantError struct {
		Err    error
		Key    string
		Detail string
	}
)

// WithLogger traces every filter decision at debug level.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver receives a Report after every FindSubcommands call.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// New creates a Finder for the contract whose existential type is contract.
// It panics with *InvariantError unless the contract resolves to exactly one
// protocol.
func New[C any](meta MetadataService, contract typemeta.Handle, opts ...Option) *Finder[C] {
	protocols := meta.ExistentialProtocols(contract)
	if len(protocols) != 1 {
		panic(&InvariantError{
			Err:    ErrExistentialShape,
			Detail: fmt.Sprintf("handle %d resolves to %d protocols", contract, len(protocols)),
		})
	}

	o := options{
		logger:   log.New(io.Discard),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Finder[C]{
		meta:     meta,
		protocol: protocols[0],
		logger:   o.logger,
		observer: o.observer,
	}
}

// FindSubcommands returns the direct, natively declared, non-generic nested
// types of parent that satisfy the contract and live in parent's module, in
// registration order. A non-nominal parent has no subcommands.
func (f *Finder[C]) FindSubcommands(parent typemeta.Handle) []Subcommand[C] {
	self, ok := f.meta.ResolveTypeMetadata(parent)
	if !ok {
		f.logger.Debug("parent is not nominal", "handle", parent)
		f.observer.Observe(Report{})
		return nil
	}

	module := f.moduleOf(self.Descriptor)
	records := f.meta.Conformances(f.protocol, module)

	report := Report{
		Parent:     self.Key,
		Nominal:    true,
		Candidates: len(records),
		Filtered:   make(map[Reason]int),
	}
	subcommands := make([]Subcommand[C], 0, len(records))
	for _, record := range records {
		if reason, drop := f.filter(record, self.Descriptor); drop {
			report.Filtered[reason]++
			f.logger.Debug("conformance skipped", "parent", self.Key, "descriptor", record.Descriptor, "reason", reason)
			continue
		}
		sub := f.materialize(record)
		f.logger.Debug("subcommand found", "parent", self.Key, "subcommand", sub.Key)
		subcommands = append(subcommands, sub)
	}
	report.Kept = len(subcommands)
	f.observer.Observe(report)

	if len(subcommands) == 0 {
		return nil
	}
	return subcommands
}

// Materialize produces the command value of any handle, typically a root
// command chosen by the user. Unlike discovered subcommands, a handle that
// is not nominal or whose value does not satisfy C reports false.
func (f *Finder[C]) Materialize(h typemeta.Handle) (Subcommand[C], bool) {
	md, ok := f.meta.ResolveTypeMetadata(h)
	if !ok {
		return Subcommand[C]{}, false
	}
	resp := f.meta.DescriptorAccessor(md.Descriptor, typemeta.Complete)
	cmd, ok := resp.Value.(C)
	if !ok {
		return Subcommand[C]{}, false
	}
	return Subcommand[C]{Handle: md.Handle, Key: md.Key, Name: md.Name, Command: cmd}, true
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	msg := "discovery invariant violated"
	if e.Key != "" {
		msg += ": " + e.Key
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *InvariantError) Unwrap() error { return e.Err }
