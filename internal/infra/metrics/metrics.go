package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ResolveTotal              *prometheus.CounterVec
	ResolveDuration           prometheus.Histogram
	VerificationsTotal        *prometheus.CounterVec
	VerificationCycleDuration prometheus.Histogram
	PlatformSubdomainFailures prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ResolveTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "begrat_tenant_resolve_total",
			Help: "Host resolutions on the request path, by outcome",
		}, []string{"outcome"}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "begrat_tenant_resolve_duration_seconds",
			Help:    "Duration of request-path tenant resolution",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "begrat_domain_verifications_total",
			Help: "Finished domain verifications, by resulting status",
		}, []string{"status"}),
		VerificationCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "begrat_verification_cycle_duration_seconds",
			Help:    "Duration of one scheduled verification cycle",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		PlatformSubdomainFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "begrat_platform_subdomain_failures_total",
			Help: "Verification failures on platform-controlled subdomains",
		}),
	}
}

func (m *Metrics) ObserveResolve(outcome string, start time.Time) {
	m.ResolveTotal.WithLabelValues(outcome).Inc()
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveVerification(status string) {
	m.VerificationsTotal.WithLabelValues(status).Inc()
}
