// SPDX-License-Identifier: MPL-2.0

// Package manifest provides types and parsing for nestcmd manifests, the
// declarative build-step input from which a command registry is produced.
//
// A manifest lists modules and the command types they declare, each nested
// in a parent command, at module level, or in an extension of another
// module's command. Manifests are written in CUE (validated against an
// embedded schema), YAML or TOML; all three decode into Manifest and go
// through the same validation.
//
// Manifest.Registry turns a manifest into a typemeta.Registry whose types
// materialize as *Prototype values. GenerateGo emits equivalent cmdreg
// self-registration code and GenerateCUE writes the manifest back as CUE.
package manifest
