// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/normalize"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/tagging"
)

const metricsNamespace = "trionorm"

// Metrics records pipeline activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	documents        *prometheus.CounterVec
	points           *prometheus.CounterVec
	equipment        *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	confidence       prometheus.Histogram
	complianceScores prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_processed_total",
			Help:      "Total documents processed by outcome.",
		}, []string{"status"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_normalized_total",
			Help:      "Total points normalized by confidence level.",
		}, []string{"level"}),
		equipment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "equipment_classified_total",
			Help:      "Total equipment classified by type.",
		}, []string{"type"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "classifier_cache_hits_total",
			Help:      "Classifier lookups served from the prefix cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "classifier_cache_misses_total",
			Help:      "Classifier lookups not found in the prefix cache, whatever tier then matched.",
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "normalization_confidence",
			Help:      "Histogram of point normalization confidence scores.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		complianceScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "compliance_score",
			Help:      "Histogram of marker set compliance scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}

	reg.MustRegister(
		m.documents,
		m.points,
		m.equipment,
		m.cacheHits,
		m.cacheMisses,
		m.confidence,
		m.complianceScores,
	)
	return m
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) observeDocument(r DocumentResult) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(string(r.Status)).Inc()
	if r.Status != StatusSkipped {
		m.equipment.WithLabelValues(r.Equipment.EquipmentType).Inc()
	}
}

func (m *Metrics) observePoint(n normalize.Point, report tagging.Report) {
	if m == nil {
		return
	}
	m.points.WithLabelValues(string(n.ConfidenceLevel)).Inc()
	m.confidence.Observe(n.ConfidenceScore)
	m.complianceScores.Observe(float64(report.Score))
}
