package verification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reactit/kycdesk/internal/kyc"
)

type metrics struct {
	outcomes *prometheus.CounterVec
	calls    *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kycdesk_verification_outcomes_total",
				Help: "Verification attempts by resulting status and reason.",
			},
			[]string{"status", "reason"},
		),
		calls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kycdesk_external_call_duration_seconds",
				Help:    "Duration of calls to external collaborators.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"collaborator"},
		),
	}
}

func (m *metrics) recordOutcome(status kyc.Status, reason string) {
	m.outcomes.WithLabelValues(string(status), reason).Inc()
}

func (m *metrics) observeCall(collaborator string, start time.Time) {
	m.calls.WithLabelValues(collaborator).Observe(time.Since(start).Seconds())
}
