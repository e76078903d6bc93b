package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resort"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	stockOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_operations_total",
			Help:      "Reserve and release calls by item kind and result.",
		},
		[]string{"kind", "op", "result"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Order and booking status changes by target status.",
		},
		[]string{"entity", "status"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		},
		[]string{"outcome"},
	)

	eventsRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_relayed_total",
			Help:      "Lifecycle events forwarded to the broker by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, stockOperations, transitions, checkouts, eventsRelayed)
	})
}

func IncHTTP(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// IncStock counts a reserve or release. result is "ok", "insufficient",
// "not_found" or "error".
func IncStock(kind, op, result string) {
	stockOperations.WithLabelValues(kind, op, result).Inc()
}

func IncTransition(entity, status string) {
	transitions.WithLabelValues(entity, status).Inc()
}

func IncCheckout(outcome string) {
	checkouts.WithLabelValues(outcome).Inc()
}

func IncRelay(result string) {
	eventsRelayed.WithLabelValues(result).Inc()
}
