// SPDX-License-Identifier: MPL-2.0

// Package config loads nestcmd settings with viper, using CUE as the file
// format.
//
// The file is config.cue in the platform config directory
// ($XDG_CONFIG_HOME/nestcmd on Linux), else ./config.cue, unless --config
// names one explicitly. It is validated against the embedded #Config schema.
// NESTCMD_* environment variables override file values.
package config
