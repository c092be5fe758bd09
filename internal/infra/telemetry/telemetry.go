package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics counts the security-relevant outcomes of the auth flows.
type AuthMetrics struct {
	LoginSuccesses  *prometheus.CounterVec
	LoginFailures   *prometheus.CounterVec
	Lockouts        *prometheus.CounterVec
	Unlocks         prometheus.Counter
	TokenRefreshes  prometheus.Counter
	RateLimited     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewAuthMetrics registers the auth counters on the given registerer.
func NewAuthMetrics(namespace string, reg prometheus.Registerer) *AuthMetrics {
	factory := promauto.With(reg)

	return &AuthMetrics{
		LoginSuccesses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_successes_total",
			Help:      "Successful logins by role.",
		}, []string{"role"}),
		LoginFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Failed logins by role and reason.",
		}, []string{"role", "reason"}),
		Lockouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lockouts_total",
			Help:      "Accounts locked after repeated failures, by role.",
		}, []string{"role"}),
		Unlocks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_unlocks_total",
			Help:      "Administrative unlock operations.",
		}),
		TokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Successful refresh token rotations.",
		}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter, by class.",
		}, []string{"class"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route, and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
