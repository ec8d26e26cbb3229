package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records commit outcomes for the checkout engine.
type CheckoutMetrics struct {
	commitDuration *prometheus.HistogramVec
	commits        *prometheus.CounterVec
	failures       *prometheus.CounterVec
	stockConflicts prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	commitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_commit_duration_seconds",
		Help:    "Duration of sale commit attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commits_total",
		Help: "Committed sales by payment method.",
	}, []string{"payment_method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commit_failures_total",
		Help: "Failed commit attempts by error code.",
	}, []string{"code"})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_stock_conflicts_total",
		Help: "Commit attempts blocked by the stock validator or the server-side stock check.",
	})
	reg.MustRegister(commitDuration, commits, failures, stockConflicts)
	return &CheckoutMetrics{
		commitDuration: commitDuration,
		commits:        commits,
		failures:       failures,
		stockConflicts: stockConflicts,
	}
}

// ObserveCommitDuration records how long a commit attempt took.
func (m *CheckoutMetrics) ObserveCommitDuration(outcome string, duration time.Duration) {
	if m == nil || m.commitDuration == nil {
		return
	}
	m.commitDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncCommit increments the committed-sales counter for the payment method.
func (m *CheckoutMetrics) IncCommit(paymentMethod string) {
	if m == nil || m.commits == nil {
		return
	}
	m.commits.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncFailure increments the failure counter for the given error code.
func (m *CheckoutMetrics) IncFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncStockConflict increments the stock conflict counter.
func (m *CheckoutMetrics) IncStockConflict() {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
