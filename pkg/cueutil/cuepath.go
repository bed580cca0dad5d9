// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCUEPath is returned when a CUEPath is empty or blank.
var ErrInvalidCUEPath = errors.New("invalid CUE path")

// CUEPath is a JSON-path style location inside a CUE document, such as
// "commands[0].parent".
type CUEPath string

// Validate returns an error wrapping ErrInvalidCUEPath for blank paths.
func (p CUEPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidCUEPath, string(p))
	}
	return nil
}

// String returns the path text.
func (p CUEPath) String() string { return string(p) }
