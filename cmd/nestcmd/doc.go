// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the nestcmd command-line interface.
//
// Every subcommand works on a manifest: the path given on the command line,
// or the first manifest found in the working directory or the configured
// manifest_paths.
package cmd
