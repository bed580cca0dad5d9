// SPDX-License-Identifier: MPL-2.0

// Package discovery finds the default subcommands of a command type and the
// manifest files that declare command types.
//
// Subcommand discovery reads a metadata service (see pkg/typemeta): it
// resolves the parent type, walks its context chain to the owning module,
// looks up the module's conformances to the command protocol, keeps the
// direct, native, non-generic children of the parent and materializes them
// in registration order. Broken metadata is not an error the caller can
// handle; it panics with *InvariantError.
//
// File organization:
//   - discovery.go: Finder, FindSubcommands and Materialize
//   - discovery_filter.go: module walk, filter and materializer steps
//   - discovery_tree.go: recursive walk used by tooling
//   - observer.go: per-call reports for metrics
//   - discovery_files.go, diagnostic.go: manifest file discovery
package discovery
