// SPDX-License-Identifier: MPL-2.0

// Package command defines the contract shared by nestcmd commands.
//
// A command is any Go type implementing Command. Its Configuration either
// lists subcommands explicitly or leaves Subcommands nil, in which case the
// nested command types registered under it (see pkg/cmdreg and
// pkg/discovery) become its default subcommands.
package command
