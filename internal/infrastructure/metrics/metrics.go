// Package metrics owns the Prometheus registry. Every method is safe on a nil
// *Collector so services can run without metrics in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Alarm events
const (
	AlarmScheduled = "scheduled"
	AlarmCancelled = "cancelled"
	AlarmFired     = "fired"
	AlarmDiscarded = "discarded"
	AlarmDropped   = "dropped"
)

type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	tasksCreated        prometheus.Counter
	templatesApplied    prometheus.Counter
	alarms              *prometheus.CounterVec
	notificationsFailed prometheus.Counter
	backups             *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routine_tasks_created_total",
			Help: "Tasks created, directly or by template expansion",
		}),
		templatesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routine_templates_applied_total",
			Help: "Day templates expanded into tasks",
		}),
		alarms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routine_alarms_total",
				Help: "Reminder alarm events by kind",
			},
			[]string{"event"},
		),
		notificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routine_notifications_failed_total",
			Help: "Notifications the notifier could not deliver",
		}),
		backups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routine_backups_total",
				Help: "Backup and restore operations by result",
			},
			[]string{"op", "result"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.tasksCreated,
		c.templatesApplied,
		c.alarms,
		c.notificationsFailed,
		c.backups,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) TasksCreated(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.tasksCreated.Add(float64(n))
}

func (c *Collector) TemplateApplied() {
	if c == nil {
		return
	}
	c.templatesApplied.Inc()
}

func (c *Collector) Alarm(event string) {
	if c == nil {
		return
	}
	c.alarms.WithLabelValues(event).Inc()
}

func (c *Collector) NotificationFailed() {
	if c == nil {
		return
	}
	c.notificationsFailed.Inc()
}

func (c *Collector) Backup(op string, ok bool) {
	if c == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	c.backups.WithLabelValues(op, result).Inc()
}
