// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// CatalogLoads counts catalog store loads by result: ok only once the
	// document has parsed, error for fetch or parse failures.
	CatalogLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidcat",
		Name:      "catalog_loads_total",
		Help:      "Catalog loads by result.",
	}, []string{"result"})

	// ChannelLookups counts metadata API channel lookups by outcome
	// (no_key, no_query, miss, error, ok).
	ChannelLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidcat",
		Name:      "channel_lookups_total",
		Help:      "Channel resolver lookups by outcome.",
	}, []string{"outcome"})

	// Merges counts merge tool runs by action (url_match, title_match, appended, none).
	Merges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidcat",
		Name:      "merges_total",
		Help:      "Catalog merges by action.",
	}, []string{"action"})

	// Requests counts served HTTP requests by route.
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidcat",
		Name:      "http_requests_total",
		Help:      "Served HTTP requests by route.",
	}, []string{"route"})
)

func init() {
	registry.MustRegister(
		CatalogLoads,
		ChannelLookups,
		Merges,
		Requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Wrap counts requests to next under route.
func Wrap(route string, next http.Handler) http.Handler {
	c := Requests.WithLabelValues(route)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Inc()
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
