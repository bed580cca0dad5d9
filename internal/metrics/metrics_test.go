// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/invowk/nestcmd/internal/discovery"
	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/manifest"
)

const scenario = `
modules:
  - name: m
    bridged: 2
    commands:
      - {name: Root}
      - {name: Add, parent: Root}
      - {name: Remove, parent: Root}
      - {name: RemoveAll, parent: Remove}
      - {name: Stash, parent: Root, generic: true}
`

func TestCollector_ObservesDiscovery(t *testing.T) {
	t.Parallel()

	m, err := manifest.ParseBytes([]byte(scenario), "nestcmd.yaml", manifest.FormatYAML)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	reg, err := m.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	c := New()
	contract, _ := reg.Lookup(command.ExistentialKey)
	finder := discovery.New[command.Command](reg, contract, discovery.WithObserver(c))

	root, _ := reg.Lookup("m.Root")
	if got := len(finder.FindSubcommands(root)); got != 2 {
		t.Fatalf("FindSubcommands(Root) returned %d subcommands, want 2", got)
	}
	module, _ := reg.Lookup("m")
	finder.FindSubcommands(module)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"nominal calls", testutil.ToFloat64(c.calls.WithLabelValues("true")), 1},
		{"non-nominal calls", testutil.ToFloat64(c.calls.WithLabelValues("false")), 1},
		{"subcommands", testutil.ToFloat64(c.kept), 2},
		// Root, RemoveAll
		{"not direct child", testutil.ToFloat64(c.filtered.WithLabelValues("not_direct_child")), 2},
		{"generic", testutil.ToFloat64(c.filtered.WithLabelValues("generic")), 1},
		{"bridged", testutil.ToFloat64(c.filtered.WithLabelValues("bridged")), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_ReasonsStartAtZero(t *testing.T) {
	t.Parallel()

	c := New()
	if got := testutil.CollectAndCount(c.filtered); got != len(discovery.Reasons()) {
		t.Errorf("filtered series = %d, want %d", got, len(discovery.Reasons()))
	}
}

func TestCollector_Write(t *testing.T) {
	t.Parallel()

	c := New()
	c.Observe(discovery.Report{
		Parent:     "m.Root",
		Nominal:    true,
		Candidates: 5,
		Kept:       2,
		Filtered:   map[discovery.Reason]int{discovery.ReasonGeneric: 3},
	})

	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`nestcmd_discovery_calls_total{nominal="true"} 1`,
		"nestcmd_discovery_subcommands_total 2",
		`nestcmd_discovery_filtered_total{reason="generic"} 3`,
		"nestcmd_discovery_candidates_count 1",
		"# TYPE nestcmd_discovery_candidates histogram",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Write() output lacks %q:\n%s", want, out)
		}
	}
}
