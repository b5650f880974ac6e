// Package metrics exposes Prometheus collectors for upstream weather fetches
// and forecast rendering.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dashboard_upstream_requests_total",
			Help: "Upstream weather API calls by provider, endpoint and outcome",
		},
		[]string{"provider", "endpoint", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_dashboard_upstream_request_duration_seconds",
			Help:    "Upstream weather API call duration in seconds, retries included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "endpoint"},
	)

	StaleForecastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_dashboard_stale_forecasts_total",
			Help: "Forecast requests answered from the last good forecast after a failed fetch",
		},
	)

	ForecastViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dashboard_forecast_views_total",
			Help: "Aggregated forecast views served by granularity",
		},
		[]string{"granularity"},
	)

	ActiveOverlays = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather_dashboard_active_overlays",
			Help: "Number of map overlay layers currently holding a tile handle",
		},
	)
)

// ObserveUpstream records one upstream call.
func ObserveUpstream(provider, endpoint, outcome string, started time.Time) {
	UpstreamRequestsTotal.WithLabelValues(provider, endpoint, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(provider, endpoint).Observe(time.Since(started).Seconds())
}
