// Package metrics exposes inventory and cleanup counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "cachescope"

type PrometheusMetrics struct {
	registry          prometheus.Registerer
	locationsScanned  *prometheus.CounterVec
	inventoryDuration prometheus.Histogram
	inventoryBytes    prometheus.Gauge
	inventoryItems    prometheus.Gauge
	cleanItems        *prometheus.CounterVec
	bytesFreed        prometheus.Counter
}

// InitPrometheusMetrics creates and registers the collectors. A nil
// registerer means the default one.
func InitPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &PrometheusMetrics{
		registry: reg,
		locationsScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "locations_scanned_total",
				Help:      "Locations scanned by result: ok, partial, failed, absent, invalid",
			},
			[]string{"result"},
		),
		inventoryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inventory_duration_seconds",
				Help:      "Wall time of a full inventory build",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
		),
		inventoryBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inventory_bytes",
				Help:      "Total bytes held by inventoried locations at the last build",
			},
		),
		inventoryItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inventory_items",
				Help:      "Locations present at the last build",
			},
		),
		cleanItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clean_items_total",
				Help:      "Items processed by the cleaner by outcome",
			},
			[]string{"outcome"},
		),
		bytesFreed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clean_bytes_freed_total",
				Help:      "Bytes released by deletions, dry runs excluded",
			},
		),
	}

	reg.MustRegister(
		m.locationsScanned,
		m.inventoryDuration,
		m.inventoryBytes,
		m.inventoryItems,
		m.cleanItems,
		m.bytesFreed,
	)

	return m
}

func (m *PrometheusMetrics) RecordLocation(result string) {
	m.locationsScanned.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) RecordInventory(duration time.Duration, totalBytes int64, items int) {
	m.inventoryDuration.Observe(duration.Seconds())
	m.inventoryBytes.Set(float64(totalBytes))
	m.inventoryItems.Set(float64(items))
}

func (m *PrometheusMetrics) RecordOutcome(outcome string, freed int64) {
	m.cleanItems.WithLabelValues(outcome).Inc()
	if freed > 0 {
		m.bytesFreed.Add(float64(freed))
	}
}

// Handler serves the collectors of g, or the default gatherer when g is nil
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
