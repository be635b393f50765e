package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	TickCount         prometheus.Counter
	RemindersSent     prometheus.Counter
	RemindersFailed   prometheus.Counter
	RemindersSkipped  prometheus.Counter
	AnalyzeCount      prometheus.Counter
	DeadlinesDetected prometheus.Counter
	TickDuration      prometheus.Histogram
	ActiveReminders   prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		TickCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docroute_scheduler_tick_count",
			Help: "Total number of reminder scheduler ticks",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docroute_reminders_sent",
			Help: "Total number of reminder notifications dispatched successfully",
		}),
		RemindersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docroute_reminders_failed",
			Help: "Total number of reminder notification dispatch failures",
		}),
		RemindersSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docroute_reminders_skipped",
			Help: "Total number of pending reminders skipped by user action",
		}),
		AnalyzeCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docroute_analyze_count",
			Help: "Total number of AI analysis runs",
		}),
		DeadlinesDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docroute_deadlines_detected",
			Help: "Total number of deadline candidates extracted from documents",
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docroute_scheduler_tick_duration_seconds",
			Help:    "Time spent processing one reminder scheduler tick",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveReminders: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docroute_active_reminders",
			Help: "Number of currently active reminder rules",
		}),
	}
}
