// Package metrics exposes Prometheus instrumentation for the lease
// manager, the consensus group, and the hybrid logical clock.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label names shared across the metric families below.
const (
	LabelScope     = "scope"
	LabelStatus    = "status"
	LabelReason    = "reason"
	LabelRole      = "role"
	LabelOutcome   = "outcome"
)

// Lease acquire/renew/fence outcomes.
const (
	StatusGranted  = "granted"
	StatusDenied   = "denied"
	StatusExpired  = "expired"
)

// Lease release reasons.
const (
	ReasonExplicit    = "explicit"
	ReasonExpired     = "expired"
	ReasonMigrated    = "migrated"
	ReasonFenced      = "fenced"
)

// Consensus round outcomes.
const (
	OutcomeCommitted   = "committed"
	OutcomeTimedOut    = "timed_out"
	OutcomeEquivocated = "equivocated"
)

// Metrics holds every counter, gauge and histogram the coordination
// core reports. A nil *Metrics is never constructed directly; use New.
type Metrics struct {
	leaseAcquireTotal *prometheus.CounterVec
	leaseReleaseTotal *prometheus.CounterVec
	leaseActiveGauge  *prometheus.GaugeVec
	leaseHoldDuration *prometheus.HistogramVec
	leaseMigrateTotal *prometheus.CounterVec

	consensusRoundTotal    *prometheus.CounterVec
	consensusRoundDuration *prometheus.HistogramVec
	consensusSharesGauge   *prometheus.GaugeVec
	viewChangeTotal        prometheus.Counter
	equivocationTotal      prometheus.Counter

	clockDriftRejectedTotal prometheus.Counter
	clockLogicalGauge       prometheus.Gauge

	registered bool
}

// New creates lease/consensus/clock metrics. If registry is nil the
// metrics are created but not registered, which is useful in tests.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		leaseAcquireTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rhc",
				Subsystem: "leases",
				Name:      "acquire_total",
				Help:      "Total number of lease acquire attempts.",
			},
			[]string{LabelScope, LabelStatus},
		),
		leaseReleaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rhc",
				Subsystem: "leases",
				Name:      "release_total",
				Help:      "Total number of lease releases.",
			},
			[]string{LabelScope, LabelReason},
		),
		leaseActiveGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "rhc",
				Subsystem: "leases",
				Name:      "active",
				Help:      "Number of currently active leases.",
			},
			[]string{LabelScope},
		),
		leaseHoldDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "rhc",
				Subsystem: "leases",
				Name:      "hold_duration_seconds",
				Help:      "Time a lease was held before release or expiry.",
				Buckets:   []float64{0.1, 1, 5, 10, 30, 60, 300, 600, 1800},
			},
			[]string{LabelScope},
		),
		leaseMigrateTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rhc",
				Subsystem: "leases",
				Name:      "migrate_total",
				Help:      "Total number of latency-driven lease migrations.",
			},
			[]string{LabelScope},
		),

		consensusRoundTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rhc",
				Subsystem: "consensus",
				Name:      "rounds_total",
				Help:      "Total number of consensus rounds by outcome.",
			},
			[]string{LabelOutcome},
		),
		consensusRoundDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "rhc",
				Subsystem: "consensus",
				Name:      "round_duration_seconds",
				Help:      "Time from proposal to finalized commit.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{LabelRole},
		),
		consensusSharesGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "rhc",
				Subsystem: "consensus",
				Name:      "shares_collected",
				Help:      "Threshold shares collected for the in-flight round.",
			},
			[]string{LabelScope},
		),
		viewChangeTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rhc",
				Subsystem: "consensus",
				Name:      "view_changes_total",
				Help:      "Total number of adopted view changes.",
			},
		),
		equivocationTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rhc",
				Subsystem: "consensus",
				Name:      "equivocations_total",
				Help:      "Total number of detected equivocating signature shares.",
			},
		),

		clockDriftRejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rhc",
				Subsystem: "clock",
				Name:      "drift_rejected_total",
				Help:      "Total number of remote timestamps rejected for exceeding the max clock drift.",
			},
		),
		clockLogicalGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rhc",
				Subsystem: "clock",
				Name:      "logical_counter",
				Help:      "Current logical counter of this node's hybrid logical clock.",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.leaseAcquireTotal,
			m.leaseReleaseTotal,
			m.leaseActiveGauge,
			m.leaseHoldDuration,
			m.leaseMigrateTotal,
			m.consensusRoundTotal,
			m.consensusRoundDuration,
			m.consensusSharesGauge,
			m.viewChangeTotal,
			m.equivocationTotal,
			m.clockDriftRejectedTotal,
			m.clockLogicalGauge,
		)
		m.registered = true
	}

	return m
}

// LeaseAcquired records a lease acquire attempt's outcome.
func (m *Metrics) LeaseAcquired(scopeKind, status string) {
	m.leaseAcquireTotal.WithLabelValues(scopeKind, status).Inc()
	if status == StatusGranted {
		m.leaseActiveGauge.WithLabelValues(scopeKind).Inc()
	}
}

// LeaseReleased records a lease release and the duration it was held for.
func (m *Metrics) LeaseReleased(scopeKind, reason string, held time.Duration) {
	m.leaseReleaseTotal.WithLabelValues(scopeKind, reason).Inc()
	m.leaseActiveGauge.WithLabelValues(scopeKind).Dec()
	m.leaseHoldDuration.WithLabelValues(scopeKind).Observe(held.Seconds())
}

// LeaseMigrated records a latency-driven migration for scopeKind.
func (m *Metrics) LeaseMigrated(scopeKind string) {
	m.leaseMigrateTotal.WithLabelValues(scopeKind).Inc()
}

// ConsensusRoundFinished records a completed round's outcome and duration.
func (m *Metrics) ConsensusRoundFinished(outcome, role string, d time.Duration) {
	m.consensusRoundTotal.WithLabelValues(outcome).Inc()
	m.consensusRoundDuration.WithLabelValues(role).Observe(d.Seconds())
}

// ConsensusSharesCollected sets the current share count for scope.
func (m *Metrics) ConsensusSharesCollected(scope string, n int) {
	m.consensusSharesGauge.WithLabelValues(scope).Set(float64(n))
}

// ViewChanged increments the adopted view-change counter.
func (m *Metrics) ViewChanged() {
	m.viewChangeTotal.Inc()
}

// EquivocationDetected increments the equivocation counter.
func (m *Metrics) EquivocationDetected() {
	m.equivocationTotal.Inc()
}

// ClockDriftRejected increments the clock drift rejection counter.
func (m *Metrics) ClockDriftRejected() {
	m.clockDriftRejectedTotal.Inc()
}

// SetClockLogical reports this node's current logical counter.
func (m *Metrics) SetClockLogical(v uint32) {
	m.clockLogicalGauge.Set(float64(v))
}
