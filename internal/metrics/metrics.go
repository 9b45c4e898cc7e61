package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mensa",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route and status class.",
		},
		[]string{"route", "status"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mensa",
			Name:      "checkouts_total",
			Help:      "Count of checkout attempts by outcome.",
		},
		[]string{"outcome"},
	)

	checkoutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mensa",
			Name:      "checkout_duration_seconds",
			Help:      "Time to run the checkout orchestration.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2},
		},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mensa",
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by the rate limiter.",
		},
	)

	managerDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mensa",
			Name:      "manager_decision_total",
			Help:      "Count of manager decisions over student registrations.",
		},
		[]string{"decision"},
	)
)

// Register registers all collectors with the default registry. Safe to
// call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, checkouts, checkoutDuration, rateLimited, managerDecisions)
	})
}

// IncHTTP counts one handled request.
func IncHTTP(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}

// Checkout outcomes.
const (
	CheckoutOK          = "ok"
	CheckoutBadDate     = "bad_date"
	CheckoutWindow      = "window_exceeded"
	CheckoutCutoff      = "cutoff_passed"
	CheckoutUnavailable = "item_unavailable"
	CheckoutEmptyCart   = "empty_cart"
	CheckoutError       = "error"
)

// IncCheckout counts one checkout attempt by outcome.
func IncCheckout(outcome string) {
	checkouts.WithLabelValues(outcome).Inc()
}

// ObserveCheckout records checkout duration in seconds.
func ObserveCheckout(seconds float64) {
	checkoutDuration.Observe(seconds)
}

// IncRateLimited counts one rate-limited request.
func IncRateLimited() {
	rateLimited.Inc()
}

// IncManagerDecision counts one approve/reject decision.
func IncManagerDecision(decision string) {
	managerDecisions.WithLabelValues(decision).Inc()
}
