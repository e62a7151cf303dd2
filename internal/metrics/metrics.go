// Package metrics exposes Prometheus metrics for scans, duty sweeps and incident classification.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PatrolMetrics holds the service's collectors. A nil *PatrolMetrics is valid
// and records nothing, so components can run without a registry in tests.
type PatrolMetrics struct {
	registry *prometheus.Registry

	scansTotal           *prometheus.CounterVec
	scanDistance         prometheus.Histogram
	assignmentsTotal     *prometheus.CounterVec
	expiredTotal         prometheus.Counter
	dutyGuards           *prometheus.GaugeVec
	classificationsTotal *prometheus.CounterVec
	classifyDuration     *prometheus.HistogramVec
	incidentsTotal       *prometheus.CounterVec
}

// NewPatrolMetrics creates the collectors and registers them on registry.
func NewPatrolMetrics(registry *prometheus.Registry) (*PatrolMetrics, error) {
	m := &PatrolMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PatrolMetrics) initMetrics() {
	m.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrol_scans_total",
			Help: "Total number of checkpoint scans",
		},
		[]string{"verified"}, // true, false
	)

	m.scanDistance = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "patrol_scan_distance_meters",
			Help:    "Distance between reported position and checkpoint",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)

	m.assignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrol_assignment_operations_total",
			Help: "Total number of assignment lifecycle operations",
		},
		[]string{"operation"}, // assign, deactivate
	)

	m.expiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "patrol_assignments_expired_total",
			Help: "Total number of assignments deactivated by the expiry sweep",
		},
	)

	m.dutyGuards = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patrol_guards_by_duty_status",
			Help: "Guards per duty status at the last dashboard read",
		},
		[]string{"status"},
	)

	m.classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_classifications_total",
			Help: "Total number of incident classification attempts per strategy",
		},
		[]string{"strategy", "status"}, // status: success, unavailable
	)

	m.classifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "incident_classification_duration_seconds",
			Help:    "Time taken by each classification strategy",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"strategy"},
	)

	m.incidentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incidents_reported_total",
			Help: "Total number of incidents reported per severity",
		},
		[]string{"severity"},
	)
}

// Describe implements prometheus.Collector.
func (m *PatrolMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.scansTotal.Describe(ch)
	m.scanDistance.Describe(ch)
	m.assignmentsTotal.Describe(ch)
	m.expiredTotal.Describe(ch)
	m.dutyGuards.Describe(ch)
	m.classificationsTotal.Describe(ch)
	m.classifyDuration.Describe(ch)
	m.incidentsTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *PatrolMetrics) Collect(ch chan<- prometheus.Metric) {
	m.scansTotal.Collect(ch)
	m.scanDistance.Collect(ch)
	m.assignmentsTotal.Collect(ch)
	m.expiredTotal.Collect(ch)
	m.dutyGuards.Collect(ch)
	m.classificationsTotal.Collect(ch)
	m.classifyDuration.Collect(ch)
	m.incidentsTotal.Collect(ch)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PatrolMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *PatrolMetrics) RecordScan(verified bool, distanceMeters float64) {
	if m == nil {
		return
	}
	label := "false"
	if verified {
		label = "true"
	}
	m.scansTotal.WithLabelValues(label).Inc()
	m.scanDistance.Observe(distanceMeters)
}

func (m *PatrolMetrics) RecordAssignment(operation string) {
	if m == nil {
		return
	}
	m.assignmentsTotal.WithLabelValues(operation).Inc()
}

func (m *PatrolMetrics) RecordExpired(n int) {
	if m == nil {
		return
	}
	m.expiredTotal.Add(float64(n))
}

// SetDutyCounts replaces the per-status guard gauge.
func (m *PatrolMetrics) SetDutyCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.dutyGuards.Reset()
	for status, n := range counts {
		m.dutyGuards.WithLabelValues(status).Set(float64(n))
	}
}

func (m *PatrolMetrics) RecordClassification(strategy, status string, seconds float64) {
	if m == nil {
		return
	}
	m.classificationsTotal.WithLabelValues(strategy, status).Inc()
	m.classifyDuration.WithLabelValues(strategy).Observe(seconds)
}

func (m *PatrolMetrics) RecordIncident(severity string) {
	if m == nil {
		return
	}
	m.incidentsTotal.WithLabelValues(severity).Inc()
}
