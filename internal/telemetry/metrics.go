// Package telemetry provides observability primitives for the Citadel
// envelope and keystore: structured logging, counters/histograms, a
// Prometheus-text exporter, and optional OpenTelemetry tracing.
package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from envelope seal/open calls and the
// keystore's lifecycle and threat-engine activity.
type Collector struct {
	// Envelope metrics
	sealsTotal   atomic.Uint64
	sealErrors   atomic.Uint64
	opensTotal   atomic.Uint64
	openFailures atomic.Uint64
	sealLatency  *Histogram
	openLatency  *Histogram

	// Keystore metrics
	keysGenerated       atomic.Uint64
	keyStateTransitions atomic.Uint64
	policyDenials       atomic.Uint64
	usageIncrements     atomic.Uint64

	// Audit metrics
	auditAppends       atomic.Uint64
	auditAppendLatency *Histogram
	chainBreaks        atomic.Uint64

	// Threat-engine metrics
	threatEvents atomic.Uint64
	threatLevel  atomic.Int64 // current level, stored as int64 for atomic access

	createdAt time.Time
	labels    Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		sealLatency:        NewHistogram(CryptoLatencyBuckets),
		openLatency:        NewHistogram(CryptoLatencyBuckets),
		auditAppendLatency: NewHistogram(CryptoLatencyBuckets),
		createdAt:          time.Now(),
		labels:             labels,
	}
}

// CryptoLatencyBuckets bucket boundaries for seal/open/audit-append latency (microseconds).
var CryptoLatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// --- Envelope metrics ---

// RecordSeal records a completed seal operation and its latency.
func (c *Collector) RecordSeal(d time.Duration, err error) {
	c.sealsTotal.Add(1)
	if err != nil {
		c.sealErrors.Add(1)
	}
	c.sealLatency.ObserveDuration(d)
}

// RecordOpen records a completed open operation and its latency.
func (c *Collector) RecordOpen(d time.Duration, err error) {
	c.opensTotal.Add(1)
	if err != nil {
		c.openFailures.Add(1)
	}
	c.openLatency.ObserveDuration(d)
}

// --- Keystore metrics ---

// RecordKeyGenerated increments the key-generation counter.
func (c *Collector) RecordKeyGenerated() {
	c.keysGenerated.Add(1)
}

// RecordStateTransition increments the lifecycle state-transition counter.
func (c *Collector) RecordStateTransition() {
	c.keyStateTransitions.Add(1)
}

// RecordPolicyDenial increments the policy-denial counter.
func (c *Collector) RecordPolicyDenial() {
	c.policyDenials.Add(1)
}

// RecordUsageIncrement increments the usage-counter-increment counter.
func (c *Collector) RecordUsageIncrement() {
	c.usageIncrements.Add(1)
}

// --- Audit metrics ---

// RecordAuditAppend records a completed audit-log append and its latency.
func (c *Collector) RecordAuditAppend(d time.Duration) {
	c.auditAppends.Add(1)
	c.auditAppendLatency.ObserveDuration(d)
}

// RecordChainBreak increments the audit chain-break counter.
func (c *Collector) RecordChainBreak() {
	c.chainBreaks.Add(1)
}

// --- Threat-engine metrics ---

// RecordThreatEvent increments the threat-event counter and records the
// current level.
func (c *Collector) RecordThreatEvent(level int) {
	c.threatEvents.Add(1)
	c.threatLevel.Store(int64(level))
}

// SetThreatLevel records the current threat level without an event.
func (c *Collector) SetThreatLevel(level int) {
	c.threatLevel.Store(int64(level))
}

// --- Snapshot ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	SealsTotal   uint64
	SealErrors   uint64
	OpensTotal   uint64
	OpenFailures uint64

	KeysGenerated       uint64
	KeyStateTransitions uint64
	PolicyDenials       uint64
	UsageIncrements     uint64

	AuditAppends uint64
	ChainBreaks  uint64

	ThreatEvents uint64
	ThreatLevel  int64

	SealLatency        HistogramSummary
	OpenLatency        HistogramSummary
	AuditAppendLatency HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(c.createdAt),
		SealsTotal:          c.sealsTotal.Load(),
		SealErrors:          c.sealErrors.Load(),
		OpensTotal:          c.opensTotal.Load(),
		OpenFailures:        c.openFailures.Load(),
		KeysGenerated:       c.keysGenerated.Load(),
		KeyStateTransitions: c.keyStateTransitions.Load(),
		PolicyDenials:       c.policyDenials.Load(),
		UsageIncrements:     c.usageIncrements.Load(),
		AuditAppends:        c.auditAppends.Load(),
		ChainBreaks:         c.chainBreaks.Load(),
		ThreatEvents:        c.threatEvents.Load(),
		ThreatLevel:         c.threatLevel.Load(),
		SealLatency:         c.sealLatency.Summary(),
		OpenLatency:         c.openLatency.Summary(),
		AuditAppendLatency:  c.auditAppendLatency.Summary(),
		Labels:              c.labels,
	}
}

// Reset clears all metrics. Useful for testing.
func (c *Collector) Reset() {
	c.sealsTotal.Store(0)
	c.sealErrors.Store(0)
	c.opensTotal.Store(0)
	c.openFailures.Store(0)
	c.keysGenerated.Store(0)
	c.keyStateTransitions.Store(0)
	c.policyDenials.Store(0)
	c.usageIncrements.Store(0)
	c.auditAppends.Store(0)
	c.chainBreaks.Store(0)
	c.threatEvents.Store(0)
	c.threatLevel.Store(0)
	c.sealLatency.Reset()
	c.openLatency.Reset()
	c.auditAppendLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector, creating one with default
// settings on first use.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector. Call before any metrics are
// recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
