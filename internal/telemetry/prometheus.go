package telemetry

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "citadel").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// --- Envelope Metrics ---
	e.writeHelp(w, "seals_total", "Total number of envelope seal operations")
	e.writeType(w, "seals_total", "counter")
	e.writeMetric(w, "seals_total", labels, float64(snap.SealsTotal))

	e.writeHelp(w, "seal_errors_total", "Total number of failed seal operations")
	e.writeType(w, "seal_errors_total", "counter")
	e.writeMetric(w, "seal_errors_total", labels, float64(snap.SealErrors))

	e.writeHelp(w, "opens_total", "Total number of envelope open operations")
	e.writeType(w, "opens_total", "counter")
	e.writeMetric(w, "opens_total", labels, float64(snap.OpensTotal))

	e.writeHelp(w, "open_failures_total", "Total number of failed open operations")
	e.writeType(w, "open_failures_total", "counter")
	e.writeMetric(w, "open_failures_total", labels, float64(snap.OpenFailures))

	// --- Keystore Metrics ---
	e.writeHelp(w, "keys_generated_total", "Total number of keys generated")
	e.writeType(w, "keys_generated_total", "counter")
	e.writeMetric(w, "keys_generated_total", labels, float64(snap.KeysGenerated))

	e.writeHelp(w, "key_state_transitions_total", "Total number of key lifecycle state transitions")
	e.writeType(w, "key_state_transitions_total", "counter")
	e.writeMetric(w, "key_state_transitions_total", labels, float64(snap.KeyStateTransitions))

	e.writeHelp(w, "policy_denials_total", "Total number of operations denied by policy")
	e.writeType(w, "policy_denials_total", "counter")
	e.writeMetric(w, "policy_denials_total", labels, float64(snap.PolicyDenials))

	e.writeHelp(w, "usage_increments_total", "Total number of key usage-counter increments")
	e.writeType(w, "usage_increments_total", "counter")
	e.writeMetric(w, "usage_increments_total", labels, float64(snap.UsageIncrements))

	// --- Audit Metrics ---
	e.writeHelp(w, "audit_appends_total", "Total number of audit log appends")
	e.writeType(w, "audit_appends_total", "counter")
	e.writeMetric(w, "audit_appends_total", labels, float64(snap.AuditAppends))

	e.writeHelp(w, "audit_chain_breaks_total", "Total number of audit hash-chain breaks detected")
	e.writeType(w, "audit_chain_breaks_total", "counter")
	e.writeMetric(w, "audit_chain_breaks_total", labels, float64(snap.ChainBreaks))

	// --- Threat Engine Metrics ---
	e.writeHelp(w, "threat_events_total", "Total number of threat events ingested")
	e.writeType(w, "threat_events_total", "counter")
	e.writeMetric(w, "threat_events_total", labels, float64(snap.ThreatEvents))

	e.writeHelp(w, "threat_level", "Current threat level")
	e.writeType(w, "threat_level", "gauge")
	e.writeMetric(w, "threat_level", labels, float64(snap.ThreatLevel))

	// --- Uptime ---
	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	// --- Histograms ---
	e.writeHistogram(w, "seal_duration_microseconds", "Seal duration in microseconds", labels, snap.SealLatency)
	e.writeHistogram(w, "open_duration_microseconds", "Open duration in microseconds", labels, snap.OpenLatency)
	e.writeHistogram(w, "audit_append_duration_microseconds", "Audit append duration in microseconds", labels, snap.AuditAppendLatency)
}

// writeHelp writes a HELP line.
func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

// writeType writes a TYPE line.
func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

// writeMetric writes a single metric line.
func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	// Write bucket counts
	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	// Write sum and count
	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label format.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		// Escape label values
		v := escapePromValue(labels[k])
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, v))
	}

	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// --- Convenience Functions ---

// ServePrometheus starts an HTTP server serving Prometheus metrics.
// This is a convenience function for simple use cases.
func ServePrometheus(addr string, c *Collector, namespace string) error {
	exp := NewPrometheusExporter(c, namespace)
	http.Handle("/metrics", exp.Handler())
	return http.ListenAndServe(addr, nil)
}
