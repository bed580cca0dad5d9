// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for the nestcmd CLI.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds longer markdown help pages,
// rendered with glamour, keyed by Id.
package issue
