// SPDX-License-Identifier: MPL-2.0

// Package cmdreg registers Go command types so their default subcommands can
// be discovered without listing them by hand.
//
// Each command type registers itself once, usually from init:
//
//	func init() {
//		cmdreg.Register[Root]()
//		cmdreg.Register[Add](cmdreg.Parent[Root]())
//		cmdreg.Register[Remove](cmdreg.Parent[Root]())
//	}
//
// The type parameter is constrained to command.Command, so a type that does
// not satisfy the contract fails to compile instead of failing at discovery.
// A Set seals on its first read; registering afterwards is an error.
package cmdreg
