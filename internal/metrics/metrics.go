package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeStoreError  = "store_error"
	OutcomeFailed      = "failed"
	OutcomeQueued      = "queued"
	OutcomeQueueFailed = "queue_failed"
)

// Metrics tracks registration submissions, status changes and confirmation emails.
type Metrics struct {
	Registrations  *prometheus.CounterVec
	StatusUpdates  *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them on /metrics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nryli_registrations_submitted_total",
			Help: "Registration submissions by outcome",
		}, []string{"outcome"}),
		StatusUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nryli_status_updates_total",
			Help: "Registration status updates by new status",
		}, []string{"status"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nryli_confirmation_emails_total",
			Help: "Confirmation email attempts by outcome",
		}, []string{"outcome"}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nryli_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "code"}),
	}
}

func (m *Metrics) IncRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncStatusUpdate(status string) {
	m.StatusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) IncNotification(outcome string) {
	m.Notifications.WithLabelValues(outcome).Inc()
}

// Outcome maps a success flag onto OutcomeSuccess or OutcomeFailed.
func Outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailed
}
