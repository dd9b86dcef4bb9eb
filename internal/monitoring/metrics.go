// Package monitoring exposes prometheus counters for the purchase and
// fulfillment flow. Collectors are registered via promauto at init time and
// served on /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_operations_total",
			Help: "Total purchase creation attempts by outcome",
		},
		[]string{"outcome"},
	)

	webhookOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_operations_total",
			Help: "Total payment webhook notifications by outcome",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets minted for paid orders",
		},
	)

	notificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_notification_failures_total",
			Help: "Total ticket delivery notifications that failed",
		},
	)

	reservationsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservations_swept_total",
			Help: "Total expired reservations released by the sweep",
		},
	)
)

// TrackPurchase records a purchase creation attempt
func TrackPurchase(outcome string) {
	purchaseOperations.WithLabelValues(outcome).Inc()
}

// TrackWebhook records a processed payment notification
func TrackWebhook(outcome string) {
	webhookOperations.WithLabelValues(outcome).Inc()
}

// TrackTicketsIssued records minted tickets
func TrackTicketsIssued(count int) {
	ticketsIssued.Add(float64(count))
}

// TrackNotificationFailure records a failed ticket delivery
func TrackNotificationFailure() {
	notificationFailures.Inc()
}

// TrackReservationsSwept records holds released by the expiry sweep
func TrackReservationsSwept(count int64) {
	reservationsSwept.Add(float64(count))
}
