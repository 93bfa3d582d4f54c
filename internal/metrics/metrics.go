package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "socialgraph"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// GraphMutations counts follow/unfollow outcomes by result code.
	GraphMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Follow and unfollow attempts by outcome",
		},
		[]string{"op", "result"},
	)
	ActionToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_toggles_total",
			Help:      "Perform and reverse calls per action kind and outcome",
		},
		[]string{"action", "op", "result"},
	)

	FanoutDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fanout_deliveries_total",
		Help:      "Timeline deliveries written to followers",
	})
	FanoutSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fanout_suppressed_total",
		Help:      "Followers skipped because of a negative keyword match",
	})
	FanoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fanout_duration_seconds",
		Help:      "Wall time of one post fan-out",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	ReconcileQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconcile_queue_length",
		Help:      "Sampled length of the counter reconciliation queue",
	})
	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_latency_seconds",
		Help:      "Time between enqueue and counter recomputation",
		Buckets:   prometheus.DefBuckets,
	})
	CounterDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "counter_drift_corrections_total",
		Help:      "Counters rewritten because they disagreed with set cardinality",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})
)
