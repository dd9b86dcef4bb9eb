package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/monitoring"
	"event-ticketing-core/internal/services"
)

// ExpirySweeper periodically releases expired reservation holds and fails
// pending orders whose payment never arrived.
type ExpirySweeper struct {
	inventory services.InventoryRepository
	orders    services.OrderRepository
	orderTTL  time.Duration
	interval  time.Duration
}

// NewExpirySweeper creates a new expiry sweeper
func NewExpirySweeper(inventory services.InventoryRepository, orders services.OrderRepository, orderTTL, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		inventory: inventory,
		orders:    orders,
		orderTTL:  orderTTL,
		interval:  interval,
	}
}

// Start runs the sweeper until the context is cancelled
func (w *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval).Info("Expiry sweeper started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single sweep pass. Exported so the sweep can also be
// invoked as a one-shot job.
func (w *ExpirySweeper) RunOnce() {
	released, err := w.inventory.ReleaseExpired()
	if err != nil {
		logrus.Errorf("Failed to release expired reservations: %v", err)
	} else if released > 0 {
		logrus.Infof("Released %d expired reservations", released)
		monitoring.TrackReservationsSwept(released)
	}

	expired, err := w.orders.GetExpired(w.orderTTL)
	if err != nil {
		logrus.Errorf("Failed to get expired orders: %v", err)
		return
	}

	if len(expired) == 0 {
		return
	}

	logrus.Infof("Found %d expired pending orders", len(expired))

	failedCount := 0
	for _, order := range expired {
		if err := w.orders.MarkFinal(order.ID, models.OrderFailed); err != nil {
			// A payment that landed mid-sweep settles the order first; skip it
			logrus.Warnf("Failed to expire order %s: %v", order.OrderNumber, err)
			failedCount++
			continue
		}
		if err := w.inventory.ReleaseByOrder(order.ID); err != nil {
			logrus.Errorf("Failed to release holds for expired order %s: %v", order.OrderNumber, err)
		}
	}

	logrus.Infof("Order expiry sweep completed: %d expired, %d skipped", len(expired)-failedCount, failedCount)
}
