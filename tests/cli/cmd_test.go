// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// The nestcmd command runs in-process through testscript.Main, so each
// script sees the same binary the unit tests compile.
package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	cmd "github.com/invowk/nestcmd/cmd/nestcmd"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"nestcmd": func() { os.Exit(cmd.Main()) },
	})
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			// Keep the user's configuration out of the scripts.
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, ".config"))
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("NESTCMD_UI_COLOR_SCHEME", "none")
			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
