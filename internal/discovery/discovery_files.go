// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// SourceCurrentDir indicates the manifest was found in the current directory
	SourceCurrentDir Source = iota
	// SourceConfigPath indicates the manifest came from a configured manifest path
	SourceConfigPath
)

// ManifestBaseName is the file name, without extension, of a manifest found
// by directory scan.
const ManifestBaseName = "nestcmd"

type (
	// Source represents where a manifest was found
	Source int

	// DiscoveredFile represents a found manifest with its source
	DiscoveredFile struct {
		// Path is the absolute path to the manifest
		Path string
		// Source indicates where the file was found
		Source Source
	}

	// Files locates manifest files. The zero value is not usable; call NewFiles.
	Files struct {
		baseDir         string
		manifestPaths   []string
		initDiagnostics []Diagnostic
	}

	// FilesOption configures Files.
	FilesOption func(*Files)
)

// ManifestExtensions lists the recognized manifest extensions in precedence
// order.
func ManifestExtensions() []string {
	return []string{".cue", ".yaml", ".yml", ".toml"}
}

// String returns a human-readable source name
func (s Source) String() string {
	switch s {
	case SourceCurrentDir:
		return "current directory"
	case SourceConfigPath:
		return "configured path"
	default:
		return "unknown"
	}
}

// WithBaseDir replaces the working directory scanned first.
func WithBaseDir(dir string) FilesOption {
	return func(f *Files) {
		f.baseDir = dir
		f.initDiagnostics = nil
	}
}

// WithManifestPaths adds configured manifest files or directories.
func WithManifestPaths(paths ...string) FilesOption {
	return func(f *Files) {
		f.manifestPaths = append(f.manifestPaths, paths...)
	}
}

// NewFiles creates a manifest locator rooted at the working directory.
func NewFiles(opts ...FilesOption) *Files {
	f := &Files{}
	wd, err := os.Getwd()
	if err != nil {
		f.initDiagnostics = append(f.initDiagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeWorkingDirUnavailable,
			Message:  fmt.Sprintf("failed to determine working directory: %v", err),
			Cause:    err,
		})
	} else {
		f.baseDir = wd
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Discover finds manifests in precedence order:
//  1. Current directory (nestcmd.cue, nestcmd.yaml, nestcmd.yml, nestcmd.toml)
//  2. Configured manifest paths, in configuration order (files or directories)
//
// A file reachable from more than one source is reported once, under the
// earliest source. Problems with individual entries become diagnostics.
func (f *Files) Discover() ([]DiscoveredFile, []Diagnostic) {
	var files []DiscoveredFile
	diagnostics := make([]Diagnostic, 0, len(f.initDiagnostics))
	diagnostics = append(diagnostics, f.initDiagnostics...)

	add := func(path string, source Source) {
		if slices.ContainsFunc(files, func(df DiscoveredFile) bool { return df.Path == path }) {
			return
		}
		files = append(files, DiscoveredFile{Path: path, Source: source})
	}

	// Skip current-dir discovery when baseDir is empty so filepath.Abs("")
	// does not silently resolve to a working directory that may not exist.
	if f.baseDir != "" {
		if path, diags := f.discoverInDir(f.baseDir); path != "" {
			add(path, SourceCurrentDir)
			diagnostics = append(diagnostics, diags...)
		}
	}

	for _, entry := range f.manifestPaths {
		path, diags := f.discoverConfigured(entry)
		diagnostics = append(diagnostics, diags...)
		if path != "" {
			add(path, SourceConfigPath)
		}
	}

	return files, diagnostics
}

// discoverInDir returns the highest-precedence manifest in dir, or "" when
// there is none.
func (f *Files) discoverInDir(dir string) (string, []Diagnostic) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", []Diagnostic{{
			Severity: SeverityWarning,
			Code:     CodeManifestPathInvalid,
			Message:  fmt.Sprintf("failed to resolve manifest directory %q: %v", dir, err),
			Path:     dir,
			Cause:    err,
		}}
	}

	var found []string
	for _, ext := range ManifestExtensions() {
		path := filepath.Join(absDir, ManifestBaseName+ext)
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			found = append(found, path)
		}
	}
	if len(found) == 0 {
		return "", nil
	}

	var diagnostics []Diagnostic
	if len(found) > 1 {
		diagnostics = append(diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeManifestAmbiguous,
			Message:  fmt.Sprintf("%d manifests in %s, using %s", len(found), absDir, filepath.Base(found[0])),
			Path:     absDir,
		})
	}
	return found[0], diagnostics
}

// discoverConfigured resolves one manifest_paths entry, which may name a
// manifest file or a directory to scan.
func (f *Files) discoverConfigured(entry string) (string, []Diagnostic) {
	absPath, err := filepath.Abs(entry)
	if err != nil {
		return "", []Diagnostic{{
			Severity: SeverityWarning,
			Code:     CodeManifestPathInvalid,
			Message:  fmt.Sprintf("failed to resolve manifest path %q: %v", entry, err),
			Path:     entry,
			Cause:    err,
		}}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", []Diagnostic{{
			Severity: SeverityWarning,
			Code:     CodeManifestPathMissing,
			Message:  fmt.Sprintf("configured manifest path does not exist, skipping: %s", absPath),
			Path:     absPath,
			Cause:    err,
		}}
	}

	if !info.IsDir() {
		if !slices.Contains(ManifestExtensions(), strings.ToLower(filepath.Ext(absPath))) {
			return "", []Diagnostic{{
				Severity: SeverityWarning,
				Code:     CodeManifestPathUnsupported,
				Message:  fmt.Sprintf("configured manifest has an unsupported extension, skipping: %s", absPath),
				Path:     absPath,
			}}
		}
		return absPath, nil
	}

	path, diagnostics := f.discoverInDir(absPath)
	if path == "" {
		diagnostics = append(diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeManifestNotFound,
			Message:  fmt.Sprintf("no %s manifest in configured directory %s", ManifestBaseName, absPath),
			Path:     absPath,
		})
	}
	return path, diagnostics
}
