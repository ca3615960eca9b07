// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/mission-control/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_control_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mission_control_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_control_events_published_total",
			Help: "Total number of change events published on the bus",
		},
		[]string{"type"},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mission_control_live_connections",
			Help: "Number of open live-query websocket connections",
		},
	)

	LiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mission_control_live_subscriptions",
			Help: "Number of active live-query subscriptions",
		},
	)

	LiveQueryRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_control_live_query_runs_total",
			Help: "Total number of live query executions",
		},
		[]string{"query", "result"},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mission_control_sse_clients",
			Help: "Number of connected event stream clients",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// CountEvents subscribes to bus and counts every published event by type.
func CountEvents(bus *events.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(e *events.Event) {
		EventsPublished.WithLabelValues(string(e.Type)).Inc()
	})
}
