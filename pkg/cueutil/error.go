// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

type (
	// ValidationError represents a CUE validation error with context.
	ValidationError struct {
		// FilePath is the file being validated.
		FilePath string

		// CUEPath is the JSON path to the invalid value (e.g., "commands[0].parent").
		CUEPath CUEPath

		// Message is the validation error message.
		Message string

		// Suggestion is an optional hint for fixing the error.
		Suggestion string
	}

	// ValidationErrors groups the errors of one file.
	ValidationErrors struct {
		FilePath string
		Errors   []*ValidationError
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.CUEPath != "" {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.CUEPath, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns nil (ValidationError is a leaf error).
func (e *ValidationError) Unwrap() error {
	return nil
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		if ve.CUEPath != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", ve.CUEPath, ve.Message))
		} else {
			lines = append(lines, ve.Message)
		}
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// Unwrap exposes every ValidationError to errors.As.
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, ve := range e.Errors {
		errs = append(errs, ve)
	}
	return errs
}

// FormatError formats a CUE error with JSON path prefixes for clear error messages.
//
// Error format: <file-path>: <json-path>: <message>
//
// Examples:
//   - nestcmd.cue: commands[2].parent: conflicting values "Root" and 3
//   - config.cue: ui.color_scheme: 3 errors in empty disjunction
//
// A single CUE error becomes a *ValidationError, several become a
// *ValidationErrors. Non-CUE errors are wrapped with the file path.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	var out []*ValidationError
	for _, e := range cueErrors {
		path := formatPath(errors.Path(e))
		msg := e.Error()

		// CUE sometimes includes the path in the message itself
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimPrefix(msg, path)
			msg = strings.TrimPrefix(msg, ":")
			msg = strings.TrimSpace(msg)
		}

		out = append(out, &ValidationError{
			FilePath: filePath,
			CUEPath:  CUEPath(path),
			Message:  msg,
		})
	}

	if len(out) == 1 {
		return out[0]
	}
	return &ValidationErrors{FilePath: filePath, Errors: out}
}

// formatPath converts a CUE error path to JSON-path notation for user-facing messages.
// CUE provides error paths as flat string slices (e.g., ["commands", "0", "parent"])
// where numeric elements represent array indices; the result is "commands[0].parent".
func formatPath(path []string) string {
	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize verifies that data does not exceed the specified maximum size.
// Returns an error if the size limit is exceeded.
//
// This is exposed for use cases where the caller needs to check size before
// reading the full file (e.g., when streaming).
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
