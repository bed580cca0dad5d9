// SPDX-License-Identifier: MPL-2.0

// Package metrics counts subcommand discovery work with Prometheus
// collectors. A Collector is a discovery.Observer.
package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/invowk/nestcmd/internal/discovery"
)

const namespace = "nestcmd"

// Collector records discovery reports in its own Prometheus registry.
type Collector struct {
	registry   *prometheus.Registry
	calls      *prometheus.CounterVec
	candidates prometheus.Histogram
	kept       prometheus.Counter
	filtered   *prometheus.CounterVec
}

// New creates a Collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "calls_total",
				Help:      "Subcommand lookups, by whether the parent was a nominal type.",
			},
			[]string{"nominal"},
		),
		candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "candidates",
				Help:      "Conformance records scanned per lookup.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
			},
		),
		kept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "subcommands_total",
				Help:      "Subcommands returned.",
			},
		),
		filtered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "filtered_total",
				Help:      "Conformance records dropped, by reason.",
			},
			[]string{"reason"},
		),
	}
	c.registry.MustRegister(c.calls, c.candidates, c.kept, c.filtered)

	for _, reason := range discovery.Reasons() {
		c.filtered.WithLabelValues(reason.String())
	}
	return c
}

// Observe implements discovery.Observer.
func (c *Collector) Observe(r discovery.Report) {
	c.calls.WithLabelValues(strconv.FormatBool(r.Nominal)).Inc()
	if !r.Nominal {
		return
	}
	c.candidates.Observe(float64(r.Candidates))
	c.kept.Add(float64(r.Kept))
	for reason, n := range r.Filtered {
		c.filtered.WithLabelValues(reason.String()).Add(float64(n))
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Write dumps every metric in the Prometheus text exposition format.
func (c *Collector) Write(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
