// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// ExitCodeFailure reports a failed operation.
	ExitCodeFailure = 1
	// ExitCodeUsage reports invalid flags or arguments.
	ExitCodeUsage = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers. Message, when set, is the complete user-facing text.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error returns Message, else the wrapped error, else the exit status.
func (e *ExitError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("exit status %d", e.Code)
	}
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
