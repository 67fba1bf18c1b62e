package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsGranted,
		subscriptionsExpired,
		paymentsSweptStale,
	)
}

var (
	subscriptionsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_granted_total",
			Help: "Subscriptions created or extended after a successful payment.",
		},
		[]string{"kind"}, // created | extended
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "ACTIVE subscriptions swept to EXPIRED.",
		},
	)

	paymentsSweptStale = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_swept_stale_total",
			Help: "PENDING payments swept to FAILED after the stale window.",
		},
	)
)

func IncSubscriptionGranted(kind string) {
	subscriptionsGranted.WithLabelValues(norm(kind)).Inc()
}

func IncSubscriptionsExpired(n int) {
	subscriptionsExpired.Add(float64(n))
}

func IncPaymentsSweptStale(n int) {
	paymentsSweptStale.Add(float64(n))
}
