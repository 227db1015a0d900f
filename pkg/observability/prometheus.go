package observability

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics on a Prometheus registry. Collectors
// are created on first use of a name; the label set of a name is fixed by
// that first call, so callers must always pass the same tag keys for a name.
type PrometheusMetrics struct {
	namespace  string
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	mismatched map[string]bool

	logger *slog.Logger
}

// NewPrometheusMetrics creates a collector registering on reg.
func NewPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	return &PrometheusMetrics{
		namespace:  namespace,
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		mismatched: make(map[string]bool),
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used to report dropped samples.
func (m *PrometheusMetrics) WithLogger(logger *slog.Logger) *PrometheusMetrics {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	keys, values := splitTags(tags)
	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      name,
		}, keys)
		vec = registerOrExisting(m.registerer, vec)
		m.counters[name] = vec
	}
	m.mu.Unlock()

	c, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		m.dropped(name, keys, err)
		return
	}
	c.Add(float64(value))
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	keys, values := splitTags(tags)
	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      name,
		}, keys)
		vec = registerOrExisting(m.registerer, vec)
		m.gauges[name] = vec
	}
	m.mu.Unlock()

	g, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		m.dropped(name, keys, err)
		return
	}
	g.Set(value)
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	keys, values := splitTags(tags)
	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      name,
			Buckets:   prometheus.DefBuckets,
		}, keys)
		vec = registerOrExisting(m.registerer, vec)
		m.histograms[name] = vec
	}
	m.mu.Unlock()

	h, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		m.dropped(name, keys, err)
		return
	}
	h.Observe(value)
}

// dropped logs, once per metric name, a sample whose tag keys differ from
// the ones the collector was created with.
func (m *PrometheusMetrics) dropped(name string, keys []string, err error) {
	m.mu.Lock()
	seen := m.mismatched[name]
	m.mismatched[name] = true
	m.mu.Unlock()
	if seen {
		return
	}
	m.logger.Debug("metric sample dropped", "metric", name, "tags", keys, "error", err)
}

// Timing records the duration in seconds on a histogram.
func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.Histogram(name, duration.Seconds(), tags...)
}

func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func splitTags(tags []Tag) ([]string, []string) {
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	keys := make([]string, len(sorted))
	values := make([]string, len(sorted))
	for i, t := range sorted {
		keys[i] = t.Key
		values[i] = t.Value
	}
	return keys, values
}
