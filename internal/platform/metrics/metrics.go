package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector holds the Prometheus instruments for the tracking subsystem.
type Collector struct {
	reg *prometheus.Registry

	ActiveSessions prometheus.Gauge

	LocationPublished   prometheus.Counter
	LocationPublishErrs prometheus.Counter
	LocationCleared     prometheus.Counter

	WatcherRefreshes  prometheus.Counter
	WatcherRefreshErr prometheus.Counter

	PublishDuration prometheus.Histogram
}

// NewCollector builds and registers all instruments on a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_tracking_active_sessions",
			Help: "Number of active location broadcast sessions.",
		}),
		LocationPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_tracking_locations_published_total",
			Help: "Total successful bus location writes.",
		}),
		LocationPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_tracking_location_publish_errors_total",
			Help: "Total failed bus location writes.",
		}),
		LocationCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_tracking_locations_cleared_total",
			Help: "Total bus location retractions on session stop.",
		}),
		WatcherRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_tracking_watcher_refreshes_total",
			Help: "Total successful route bus view refreshes.",
		}),
		WatcherRefreshErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_tracking_watcher_refresh_errors_total",
			Help: "Total failed route bus view refreshes.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transit_tracking_publish_duration_seconds",
			Help:    "Duration of a single location publish cycle.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.ActiveSessions,
		c.LocationPublished,
		c.LocationPublishErrs,
		c.LocationCleared,
		c.WatcherRefreshes,
		c.WatcherRefreshErr,
		c.PublishDuration,
	)
	return c
}

// Serve exposes /metrics on the given address. Blocks; run in a goroutine.
func (c *Collector) Serve(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	log.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", zap.Error(err))
	}
}
