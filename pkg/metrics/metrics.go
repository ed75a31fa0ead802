package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboger_push_total",
			Help: "Total number of push requests by result (count)",
		},
		[]string{"result"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboger_deliveries_total",
			Help: "Total number of delivery attempts by plugin and status (count)",
		},
		[]string{"plugin", "status"},
	)

	SendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roboger_send_duration_ms",
			Help:    "Plugin send duration in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"plugin", "status"},
	)

	DedupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboger_dedup_total",
			Help: "Duplicate filter decisions by status (count)",
		},
		[]string{"status"},
	)

	LimiterTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboger_limiter_total",
			Help: "Rate limiter admission decisions by status (count)",
		},
		[]string{"status"},
	)

	DispatchQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roboger_dispatch_queue_depth",
			Help: "Number of send units waiting in the dispatch queue (count)",
		},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboger_fallback_usage_total",
			Help: "Fail-open fallback activations by component (count)",
		},
		[]string{"component", "action"},
	)

	AdminRateLimitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roboger_admin_rate_limit_total",
			Help: "Admin API per-client rate limit decisions (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roboger_circuit_breaker_state",
			Help: "Circuit breaker state per plugin (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(
		PushTotal,
		DeliveriesTotal,
		SendDuration,
		DedupTotal,
		LimiterTotal,
		DispatchQueueDepth,
		FallbackUsageTotal,
		AdminRateLimitTotal,
		CircuitBreakerState,
	)
}

// ObserveSendDuration records a plugin send duration in milliseconds.
func ObserveSendDuration(plugin, status string, d time.Duration) {
	SendDuration.WithLabelValues(plugin, status).Observe(float64(d.Milliseconds()))
}
