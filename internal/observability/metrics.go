package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wildfire_geo"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	AddressLookups   *prometheus.CounterVec // labels: result={hit,miss}
	AddressesCreated prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,unresolvable,unavailable,configuration}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Wildfire metrics.
	WildfireRequests    *prometheus.CounterVec   // labels: window={5,2}, outcome={success,error}
	WildfireAPIDuration *prometheus.HistogramVec // labels: window
	EnrichmentFailures  *prometheus.CounterVec   // labels: stage={create,refresh}

	// Refresh batch metrics.
	RefreshRuns      *prometheus.CounterVec // labels: outcome={success,error}
	RefreshUpdated   prometheus.Counter
	RefreshFailures  prometheus.Counter
	RefreshDuration  prometheus.Histogram
	SchedulerRunning prometheus.Gauge

	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AddressLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_lookups_total",
			Help:      "Address create requests by normalized-text cache result.",
		}, []string{"result"}),
		AddressesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "addresses_created_total",
			Help:      "Total address records created.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "In-process geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Google Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WildfireRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wildfire_requests_total",
			Help:      "FIRMS area API requests by day window and outcome.",
		}, []string{"window", "outcome"}),
		WildfireAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wildfire_api_duration_seconds",
			Help:      "FIRMS area API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"window"}),
		EnrichmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Wildfire enrichment failures by stage.",
		}, []string{"stage"}),
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Staleness refresh batch runs by outcome.",
		}, []string{"outcome"}),
		RefreshUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_updated_total",
			Help:      "Addresses whose wildfire data was refreshed.",
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_failures_total",
			Help:      "Addresses that failed to refresh within a batch.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete staleness refresh batch.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_scheduler_running",
			Help:      "1 when the refresh scheduler is active, 0 when stopped.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Enrichment events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Enrichment events that failed to publish.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.AddressLookups,
		m.AddressesCreated,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.WildfireRequests,
		m.WildfireAPIDuration,
		m.EnrichmentFailures,
		m.RefreshRuns,
		m.RefreshUpdated,
		m.RefreshFailures,
		m.RefreshDuration,
		m.SchedulerRunning,
		m.EventsPublished,
		m.PublishErrors,
	}
}
