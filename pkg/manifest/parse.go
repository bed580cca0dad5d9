// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/invowk/nestcmd/pkg/cueutil"
)

const (
	// FormatCUE is the schema-checked CUE format.
	FormatCUE Format = "cue"
	// FormatYAML is YAML with unknown fields rejected.
	FormatYAML Format = "yaml"
	// FormatTOML is TOML with unknown fields rejected.
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for files whose extension names no format.
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

//go:embed manifest_schema.cue
var manifestSchema string

// Format is a manifest serialization.
type Format string

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Schema returns the embedded CUE schema.
func Schema() string {
	return manifestSchema
}

// Parse reads and parses a manifest from the given path.
func Parse(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest at %s: %w", path, err)
	}
	return ParseBytes(data, path, format)
}

// ParseBytes decodes manifest content and validates it. CUE input is
// checked against the embedded schema first; every format then goes
// through the same validation.
func ParseBytes(data []byte, path string, format Format) (*Manifest, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	var (
		m   *Manifest
		err error
	)
	switch format {
	case FormatCUE:
		m, err = decodeCUE(data, path)
	case FormatYAML:
		m, err = decodeYAML(data, path)
	case FormatTOML:
		m, err = decodeTOML(data, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	m.FilePath = path
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeCUE(data []byte, path string) (*Manifest, error) {
	result, err := cueutil.ParseAndDecodeString[Manifest](
		manifestSchema,
		data,
		"#Manifest",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

func decodeYAML(data []byte, path string) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	return &m, nil
}

func decodeTOML(data []byte, path string) (*Manifest, error) {
	var m Manifest
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%s: unknown fields:\n%s", path, strict.String())
		}
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return &m, nil
}
