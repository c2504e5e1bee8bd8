package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts auth outcomes. A nil *Metrics records nothing.
type Metrics struct {
	registrations   prometheus.Counter
	logins          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	sessionsRevoked *prometheus.CounterVec
	purposeTokens   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "hrcore_auth_registrations_total",
			Help: "Total number of successful registrations",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_auth_logins_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_auth_refreshes_total",
			Help: "Total number of refresh attempts by result",
		}, []string{"result"}),
		sessionsRevoked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_auth_sessions_revoked_total",
			Help: "Total number of sessions revoked by reason",
		}, []string{"reason"}),
		purposeTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_auth_purpose_tokens_total",
			Help: "Total number of verify and reset tokens by purpose and outcome",
		}, []string{"purpose", "outcome"}),
	}
}

func (m *Metrics) registered() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *Metrics) login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) refresh(result string) {
	if m != nil {
		m.refreshes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) revoked(reason string, n int64) {
	if m != nil && n > 0 {
		m.sessionsRevoked.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) purpose(purpose, outcome string) {
	if m != nil {
		m.purposeTokens.WithLabelValues(purpose, outcome).Inc()
	}
}
