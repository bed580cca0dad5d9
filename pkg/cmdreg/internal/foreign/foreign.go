// SPDX-License-Identifier: MPL-2.0

// Package foreign declares command types in a package of their own, for
// tests that nest commands across package boundaries.
package foreign

import "github.com/invowk/nestcmd/pkg/command"

// Plugin is a command meant to be attached to a parent from another package.
type Plugin struct{}

// Configuration implements command.Command.
func (Plugin) Configuration() command.Configuration {
	return command.Configuration{Abstract: "Plugin from another package"}
}
