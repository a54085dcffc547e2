package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector exported on /metrics. A nil *Metrics is valid
// and records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ThrottleRejected    *prometheus.CounterVec
	StripeEvents        *prometheus.CounterVec
	DrinkRequests       *prometheus.CounterVec
	LoginAttempts       *prometheus.CounterVec
	JobRuns             *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		ThrottleRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schikko_throttle_rejected_total",
				Help: "Attempts refused by the sliding-window throttle",
			},
			[]string{"scope"},
		),
		StripeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schikko_stripe_events_total",
				Help: "Stripe events appended or deleted",
			},
			[]string{"kind", "op"},
		),
		DrinkRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schikko_drink_requests_total",
				Help: "Drink requests by outcome",
			},
			[]string{"status"},
		),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schikko_login_attempts_total",
				Help: "Administrator login attempts by result",
			},
			[]string{"result"},
		),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schikko_lifecycle_job_runs_total",
				Help: "Lifecycle job runs by result",
			},
			[]string{"job", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.ThrottleRejected,
			m.StripeEvents,
			m.DrinkRequests,
			m.LoginAttempts,
			m.JobRuns,
		)
	}
	return m
}

func (m *Metrics) ThrottleReject(scope string) {
	if m == nil {
		return
	}
	m.ThrottleRejected.WithLabelValues(scope).Inc()
}

func (m *Metrics) Stripes(kind, op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StripeEvents.WithLabelValues(kind, op).Add(float64(n))
}

func (m *Metrics) DrinkRequest(status string) {
	if m == nil {
		return
	}
	m.DrinkRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) Job(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.JobRuns.WithLabelValues(job, result).Inc()
}
