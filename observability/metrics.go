package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DialogueTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "relay", Name: "dialogue_turns_total", Help: "Processed dialogue turns by outcome."},
		[]string{"outcome"}, // followup|duplicate|search_ok|search_failed|extract_failed
	)
	Searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "relay", Name: "searches_total", Help: "Restaurant searches by result."},
		[]string{"result"}, // ok|empty|transport_error
	)
	ActiveCalls = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "relay", Name: "active_calls", Help: "Currently connected calls."},
	)
	GoogleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "relay", Name: "google_requests_total", Help: "Outbound Google API requests."},
		[]string{"endpoint", "status"},
	)
	GoogleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relay", Name: "google_request_duration_seconds",
			Help:    "Outbound Google API request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(DialogueTurns, Searches, ActiveCalls, GoogleRequests, GoogleLatency)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveGoogle(endpoint string, status int, dur time.Duration) {
	GoogleRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	GoogleLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

func ObserveTurn(outcome string) {
	DialogueTurns.WithLabelValues(outcome).Inc()
}

func ObserveSearch(result string) {
	Searches.WithLabelValues(result).Inc()
}
