package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the publisher engine
type Metrics struct {
	// Dispatch metrics
	PublicationsTotal  *prometheus.CounterVec
	PublicationErrors  *prometheus.CounterVec
	DuplicatesBlocked  prometheus.Counter
	RateLimitDeferrals prometheus.Counter
	DispatchDuration   prometheus.Histogram

	// Flood control metrics
	FloodWaitsTotal *prometheus.CounterVec

	// Reclaimer metrics
	TasksReclaimed prometheus.Counter
	TasksTimedOut  prometheus.Counter

	// Queue metrics
	PendingTasks prometheus.Gauge

	// Chat subscription metrics
	ChatJoinsTotal      prometheus.Counter
	ChatJoinErrors      prometheus.Counter
	SubscriptionsPaused prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		PublicationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_publications_total",
			Help: "Total number of successful publications",
		}, []string{"kind", "mode"}),
		PublicationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_publication_errors_total",
			Help: "Total number of failed publications",
		}, []string{"kind", "reason"}),
		DuplicatesBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "publisher_duplicates_blocked_total",
			Help: "Publications blocked by the duplicate policy",
		}),
		RateLimitDeferrals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "publisher_rate_limit_deferrals_total",
			Help: "Account sends deferred by the rate limiter",
		}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "publisher_dispatch_duration_seconds",
			Help:    "Duration of single task dispatch",
			Buckets: prometheus.DefBuckets,
		}),
		FloodWaitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "publisher_flood_waits_total",
			Help: "Flood-control signals received from Telegram",
		}, []string{"path"}),
		TasksReclaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "publisher_tasks_reclaimed_total",
			Help: "Stuck tasks returned to pending by the reclaimer",
		}),
		TasksTimedOut: promauto.NewCounter(prometheus.CounterOpts{
			Name: "publisher_tasks_timed_out_total",
			Help: "Stuck tasks failed after reaching the attempt ceiling",
		}),
		PendingTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "publisher_pending_tasks",
			Help: "Publication tasks currently waiting for dispatch",
		}),
		ChatJoinsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "publisher_chat_joins_total",
			Help: "Successful chat subscriptions",
		}),
		ChatJoinErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "publisher_chat_join_errors_total",
			Help: "Failed chat subscription attempts",
		}),
		SubscriptionsPaused: promauto.NewCounter(prometheus.CounterOpts{
			Name: "publisher_subscriptions_paused_total",
			Help: "Subscription tasks paused after repeated flood errors",
		}),
	}
}
