// Package observability registers the service's Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rosterChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signup_service",
		Subsystem: "directory",
		Name:      "roster_changes_total",
		Help:      "Number of successful enrollments and withdrawals, labeled by activity and action.",
	}, []string{"activity", "action"})

	rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signup_service",
		Subsystem: "directory",
		Name:      "rejections_total",
		Help:      "Number of enrollments and withdrawals rejected, labeled by action and reason.",
	}, []string{"action", "reason"})

	rosterSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "signup_service",
		Subsystem: "directory",
		Name:      "roster_size",
		Help:      "Current number of participants per activity.",
	}, []string{"activity"})

	droppedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "signup_service",
		Subsystem: "directory",
		Name:      "dropped_events_total",
		Help:      "Number of roster events dropped because the publish queue was full.",
	})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "signup_service",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(rosterChanges, rejections, rosterSize, droppedEvents, requestDuration)
}

// RecordRosterChange counts a successful mutation and updates the roster gauge.
func RecordRosterChange(activity, action string, size int) {
	rosterChanges.WithLabelValues(activity, action).Inc()
	rosterSize.WithLabelValues(activity).Set(float64(size))
}

// RecordRosterSize sets the roster gauge without counting a change.
func RecordRosterSize(activity string, size int) {
	rosterSize.WithLabelValues(activity).Set(float64(size))
}

// RecordRejection counts a rejected mutation.
func RecordRejection(action, reason string) {
	rejections.WithLabelValues(action, reason).Inc()
}

// RecordEventDropped counts a roster event that never reached the publisher.
func RecordEventDropped() {
	droppedEvents.Inc()
}

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(method, route, status string, seconds float64) {
	requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
