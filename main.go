// SPDX-License-Identifier: MPL-2.0

// nestcmd discovers nested subcommand hierarchies from type metadata
// manifests.
package main

import cmd "github.com/invowk/nestcmd/cmd/nestcmd"

func main() {
	cmd.Execute()
}
