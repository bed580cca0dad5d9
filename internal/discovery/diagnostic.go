// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

const (
	// CodeWorkingDirUnavailable means the working directory could not be read.
	CodeWorkingDirUnavailable DiagnosticCode = "working_dir_unavailable"
	// CodeManifestPathInvalid means a configured path could not be resolved.
	CodeManifestPathInvalid DiagnosticCode = "manifest_path_invalid"
	// CodeManifestPathMissing means a configured path does not exist.
	CodeManifestPathMissing DiagnosticCode = "manifest_path_missing"
	// CodeManifestPathUnsupported means a configured file has an unknown extension.
	CodeManifestPathUnsupported DiagnosticCode = "manifest_path_unsupported"
	// CodeManifestNotFound means a configured directory holds no manifest.
	CodeManifestNotFound DiagnosticCode = "manifest_not_found"
	// CodeManifestAmbiguous means a directory holds more than one manifest;
	// the first by extension precedence is used.
	CodeManifestAmbiguous DiagnosticCode = "manifest_ambiguous"
)

var (
	// ErrInvalidSeverity is returned when a Severity is not recognized.
	ErrInvalidSeverity = errors.New("invalid diagnostic severity")
	// ErrInvalidDiagnosticCode is returned when a DiagnosticCode is not recognized.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "manifest_path_missing").
		Code DiagnosticCode
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)

// IsValid returns whether the Severity is one of the defined levels.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidSeverity, s)}
	}
}

// IsValid returns whether the DiagnosticCode is one of the defined codes.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeWorkingDirUnavailable, CodeManifestPathInvalid, CodeManifestPathMissing,
		CodeManifestPathUnsupported, CodeManifestNotFound, CodeManifestAmbiguous:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidDiagnosticCode, c)}
	}
}

// String returns a one-line rendering of the diagnostic.
func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("%s [%s] %s (%s)", d.Severity, d.Code, d.Message, d.Path)
	}
	return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
}
