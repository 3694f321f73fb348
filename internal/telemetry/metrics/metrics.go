// Package metrics provides Prometheus metrics for the editor engine:
// operational transforms, batching effectiveness, and websocket traffic.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds the Prometheus collectors this module exports.
type Metrics struct {
	TransformsTotal   *prometheus.CounterVec
	TransformDuration prometheus.Histogram

	DeltasAppliedTotal *prometheus.CounterVec
	DocumentVersion    *prometheus.GaugeVec

	BatchesFlushedTotal   prometheus.Counter
	BatchBytesSavedTotal  prometheus.Counter
	BatchReductionPercent prometheus.Gauge

	WebSocketConnections   prometheus.Gauge
	WebSocketMessagesTotal *prometheus.CounterVec

	PresenceActiveUsers *prometheus.GaugeVec
}

// Get returns the process-wide Metrics singleton, registering collectors on
// first use.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.TransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "ot",
			Name:      "transforms_total",
			Help:      "Total number of pairwise operation transforms performed, by tie-break side",
		},
		[]string{"tie_break"},
	)

	m.TransformDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "inkwell",
			Subsystem: "ot",
			Name:      "transform_duration_seconds",
			Help:      "Duration of a single Transform call",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		},
	)

	m.DeltasAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "document",
			Name:      "deltas_applied_total",
			Help:      "Total number of deltas applied to a document, by origin",
		},
		[]string{"origin"},
	)

	m.DocumentVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inkwell",
			Subsystem: "document",
			Name:      "version",
			Help:      "Current version of a document, keyed by doc_id",
		},
		[]string{"doc_id"},
	)

	m.BatchesFlushedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "batching",
			Name:      "batches_flushed_total",
			Help:      "Total number of coalesced batches flushed to the underlying transport",
		},
	)

	m.BatchBytesSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "batching",
			Name:      "bytes_saved_total",
			Help:      "Estimated bytes saved by coalescing operations into batches",
		},
	)

	m.BatchReductionPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inkwell",
			Subsystem: "batching",
			Name:      "reduction_percent",
			Help:      "Percentage reduction in outbound messages achieved by batching",
		},
	)

	m.WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inkwell",
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Current number of open websocket connections",
		},
	)

	m.WebSocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total number of websocket messages, by type and direction",
		},
		[]string{"type", "direction"},
	)

	m.PresenceActiveUsers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inkwell",
			Subsystem: "presence",
			Name:      "active_users",
			Help:      "Current number of present collaborators, keyed by doc_id",
		},
		[]string{"doc_id"},
	)

	return m
}

// RecordTransform records one Transform call's tie-break side and duration.
func (m *Metrics) RecordTransform(tieBreak string, seconds float64) {
	m.TransformsTotal.WithLabelValues(tieBreak).Inc()
	m.TransformDuration.Observe(seconds)
}

// RecordDeltaApplied records one delta being applied to a document.
func (m *Metrics) RecordDeltaApplied(origin string) {
	m.DeltasAppliedTotal.WithLabelValues(origin).Inc()
}

// SetDocumentVersion sets the current version gauge for docID.
func (m *Metrics) SetDocumentVersion(docID string, version int) {
	m.DocumentVersion.WithLabelValues(docID).Set(float64(version))
}

// RecordBatchFlush records one flushed batch's byte savings and updates the
// running reduction percentage.
func (m *Metrics) RecordBatchFlush(bytesSaved int64, reductionPercent float64) {
	m.BatchesFlushedTotal.Inc()
	if bytesSaved > 0 {
		m.BatchBytesSavedTotal.Add(float64(bytesSaved))
	}
	m.BatchReductionPercent.Set(reductionPercent)
}

// RecordWebSocketMessage records one websocket message of msgType flowing in
// the given direction ("in" or "out").
func (m *Metrics) RecordWebSocketMessage(msgType, direction string) {
	m.WebSocketMessagesTotal.WithLabelValues(msgType, direction).Inc()
}

// SetWebSocketConnections sets the current open-connection gauge.
func (m *Metrics) SetWebSocketConnections(n int) {
	m.WebSocketConnections.Set(float64(n))
}

// SetPresenceActiveUsers sets the current collaborator count for docID.
func (m *Metrics) SetPresenceActiveUsers(docID string, n int) {
	m.PresenceActiveUsers.WithLabelValues(docID).Set(float64(n))
}
