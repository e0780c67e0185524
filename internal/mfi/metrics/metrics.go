package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup outcomes.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
	CacheError  = "error"
)

// Metrics provides observability for the MFI catalog.
// Tracks MFI creation, cache effectiveness and lookup latency.
type Metrics struct {
	MFICreated     prometheus.Counter
	CacheLookups   *prometheus.CounterVec
	CacheOpen      prometheus.Gauge
	LookupDuration prometheus.Histogram
}

// New registers the catalog metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MFICreated: f.NewCounter(prometheus.CounterOpts{
			Name: "grameengo_mfis_created_total",
			Help: "Total number of MFIs created through the API",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grameengo_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by outcome (hit, miss, bypass, error)",
		}, []string{"result"}),
		CacheOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "grameengo_catalog_cache_circuit_open",
			Help: "1 while the catalog cache circuit is open and redis is bypassed",
		}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "grameengo_catalog_lookup_duration_seconds",
			Help:    "Duration of MFI lookups including cache round trips",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// IncrementMFICreated records a successful MFI creation.
func (m *Metrics) IncrementMFICreated() {
	if m == nil {
		return
	}
	m.MFICreated.Inc()
}

// IncrementCacheLookup records one cache outcome.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// SetCacheOpen mirrors the cache circuit state.
func (m *Metrics) SetCacheOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CacheOpen.Set(1)
		return
	}
	m.CacheOpen.Set(0)
}

// ObserveLookup records the duration of a lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLookup(start time.Time) {
	if m == nil {
		return
	}
	m.LookupDuration.Observe(time.Since(start).Seconds())
}
