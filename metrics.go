package jwtmanager

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names recorded by the manager and MetricsListener.
const (
	MetricVerifyTotal    = "jwt_verify_total"
	MetricVerifyDuration = "jwt_verify_duration_seconds"
	MetricCacheEvents    = "jwt_cache_events_total"
	MetricCacheEntries   = "jwt_cache_entries"
)

// Metrics is a generic metrics interface for the manager.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
}

// NoopMetrics is a default metrics implementation that does nothing.
type NoopMetrics struct{}

func (m *NoopMetrics) IncCounter(name string, tags map[string]string)                      {}
func (m *NoopMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {}
func (m *NoopMetrics) SetGauge(name string, value float64, tags map[string]string)         {}

// PrometheusMetrics implements the Metrics interface using Prometheus.
// Collectors are created and registered on first use; a metric name must
// always be used with the same tag keys.
type PrometheusMetrics struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusMetrics returns a Metrics implementation backed by the
// default Prometheus registry.
func NewPrometheusMetrics() Metrics {
	return NewPrometheusMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWithRegisterer registers collectors with reg.
func NewPrometheusMetricsWithRegisterer(reg prometheus.Registerer) Metrics {
	return &PrometheusMetrics{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (m *PrometheusMetrics) IncCounter(name string, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: name + " counter"}, keys(tags))
		m.registerer.MustRegister(vec)
		m.counters[name] = vec
	}
	m.mu.Unlock()
	vec.With(tags).Inc()
}

func (m *PrometheusMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: name + " histogram"}, keys(tags))
		m.registerer.MustRegister(vec)
		m.histograms[name] = vec
	}
	m.mu.Unlock()
	vec.With(tags).Observe(value)
}

func (m *PrometheusMetrics) SetGauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: name + " gauge"}, keys(tags))
		m.registerer.MustRegister(vec)
		m.gauges[name] = vec
	}
	m.mu.Unlock()
	vec.With(tags).Set(value)
}

func keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// MetricsListener is a Listener that counts verification cache events and
// tracks the number of cached tokens.
type MetricsListener struct {
	metrics Metrics
	entries atomic.Int64
}

// NewMetricsListener returns a listener that reports to metrics.
func NewMetricsListener(metrics Metrics) *MetricsListener {
	return &MetricsListener{metrics: metrics}
}

func (l *MetricsListener) OnAdd(Claims) {
	l.metrics.IncCounter(MetricCacheEvents, map[string]string{"event": "add"})
	l.metrics.SetGauge(MetricCacheEntries, float64(l.entries.Add(1)), nil)
}

func (l *MetricsListener) OnExpire(Claims) {
	l.metrics.IncCounter(MetricCacheEvents, map[string]string{"event": "expire"})
	l.metrics.SetGauge(MetricCacheEntries, float64(l.entries.Add(-1)), nil)
}
