package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shotgun",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	admissionAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shotgun",
			Name:      "admission_attempts_total",
			Help:      "Reservation admission attempts.",
		},
	)

	admissionRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shotgun",
			Name:      "admission_rejections_total",
			Help:      "Reservation admissions rejected, by gate.",
		},
		[]string{"reason"},
	)

	// NotificationsEnqueued counts tasks accepted into the notify queue.
	NotificationsEnqueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shotgun",
			Name:      "notifications_enqueued_total",
			Help:      "Notification tasks enqueued.",
		},
	)

	// NotificationsSent counts successfully delivered notifications.
	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shotgun",
			Name:      "notifications_sent_total",
			Help:      "Notifications delivered.",
		},
	)

	// NotificationsFailed counts notifications that exhausted retries.
	NotificationsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shotgun",
			Name:      "notifications_failed_total",
			Help:      "Notifications that exhausted retries.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			admissionAttempts,
			admissionRejections,
			NotificationsEnqueued,
			NotificationsSent,
			NotificationsFailed,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAdmissionAttempt records a reservation admission attempt.
func IncAdmissionAttempt() {
	admissionAttempts.Inc()
}

// IncAdmissionRejection records a rejected admission with the gate that
// refused it (event_full, outbound_bus_full, return_bus_full, duplicate,
// not_open).
func IncAdmissionRejection(reason string) {
	admissionRejections.WithLabelValues(reason).Inc()
}
