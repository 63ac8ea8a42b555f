package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	RequestLatency   *prometheus.HistogramVec
	SearchResults    prometheus.Histogram
	FavoriteToggles  prometheus.Counter
	CatalogRefreshes *prometheus.CounterVec
	HostSubmissions  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of listings matching a search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		FavoriteToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favorite_toggles_total",
			Help:      "Favorite toggles.",
		}),
		CatalogRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      "Catalog refreshes by result.",
		}, []string{"result"}),
		HostSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_submissions_total",
			Help:      "Host listing submissions by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestLatency,
		m.SearchResults,
		m.FavoriteToggles,
		m.CatalogRefreshes,
		m.HostSubmissions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRefresh records the outcome of a catalog refresh.
func (m *Metrics) ObserveRefresh(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CatalogRefreshes.WithLabelValues(result).Inc()
}

// RegisterGauge adds a gauge whose value is read from fn at scrape time.
func (m *Metrics) RegisterGauge(namespace, name, help string, fn func() float64) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
