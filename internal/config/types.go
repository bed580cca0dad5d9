// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// FormatText renders human-readable output.
	FormatText OutputFormat = "text"
	// FormatJSON renders machine-readable output.
	FormatJSON OutputFormat = "json"

	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"
	// ColorSchemeNone disables styling.
	ColorSchemeNone ColorScheme = "none"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidManifestPath is returned for an empty or whitespace-only path.
	ErrInvalidManifestPath = errors.New("invalid manifest path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how commands print their results.
	OutputFormat string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// ManifestPath is a manifest file, or a directory holding one.
	ManifestPath string

	// InvalidOutputFormatError wraps ErrInvalidOutputFormat.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidColorSchemeError wraps ErrInvalidColorScheme.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidLogLevelError wraps ErrInvalidLogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidManifestPathError wraps ErrInvalidManifestPath.
	InvalidManifestPathError struct {
		Value ManifestPath
	}

	// InvalidConfigError collects every field error of a Config. errors.Is
	// matches ErrInvalidConfig and each field's sentinel.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ManifestPaths are searched, in order, after the working directory.
		ManifestPaths []ManifestPath `json:"manifest_paths" mapstructure:"manifest_paths"`
		// DefaultFormat applies when --format is not given.
		DefaultFormat OutputFormat `json:"default_format" mapstructure:"default_format"`
		UI            UIConfig      `json:"ui" mapstructure:"ui"`
		Log           LogConfig     `json:"log" mapstructure:"log"`
		Metrics       MetricsConfig `json:"metrics" mapstructure:"metrics"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose raises the log level to debug and adds error chains.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// LogConfig configures the stderr logger.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// MetricsConfig controls the discovery metrics dump.
	MetricsConfig struct {
		// Enabled prints Prometheus text metrics to stderr after each run.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ManifestPaths: []ManifestPath{},
		DefaultFormat: FormatText,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Log: LogConfig{
			Level: LogLevelWarn,
		},
	}
}

// IsValid checks every field and reports all problems at once.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, p := range c.ManifestPaths {
		if ok, fieldErrs := p.IsValid(); !ok {
			errs = append(errs, fieldErrs...)
		}
	}
	if ok, fieldErrs := c.DefaultFormat.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.Log.Level.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func (f OutputFormat) String() string { return string(f) }

// IsValid reports whether f is text or json.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatText, FormatJSON:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json)", e.Value)
}

func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

func (cs ColorScheme) String() string { return string(cs) }

// IsValid reports whether cs is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight, ColorSchemeNone:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light, none)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (l LogLevel) String() string { return string(l) }

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (p ManifestPath) String() string { return string(p) }

// IsValid rejects empty and whitespace-only paths.
func (p ManifestPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidManifestPathError{Value: p}}
	}
	return true, nil
}

func (e *InvalidManifestPathError) Error() string {
	return fmt.Sprintf("invalid manifest path %q: must not be empty", e.Value)
}

func (e *InvalidManifestPathError) Unwrap() error { return ErrInvalidManifestPath }

// Paths returns the manifest paths as plain strings.
func (c Config) Paths() []string {
	out := make([]string, len(c.ManifestPaths))
	for i, p := range c.ManifestPaths {
		out[i] = string(p)
	}
	return out
}
