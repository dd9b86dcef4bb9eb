package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/monitoring"
)

// ReconciliationService applies payment provider notifications to orders.
// Notifications carry only a payment id; the authoritative status is always
// re-fetched from the provider before any state change.
type ReconciliationService struct {
	orders      OrderRepository
	inventory   InventoryRepository
	gateway     PaymentGateway
	fulfillment *FulfillmentService
}

// NewReconciliationService creates a new payment reconciliation service
func NewReconciliationService(
	orders OrderRepository,
	inventory InventoryRepository,
	gateway PaymentGateway,
	fulfillment *FulfillmentService,
) *ReconciliationService {
	return &ReconciliationService{
		orders:      orders,
		inventory:   inventory,
		gateway:     gateway,
		fulfillment: fulfillment,
	}
}

// HandleNotification reconciles one payment notification. Duplicate and
// out-of-order notifications are safe: terminal orders are never moved, and
// re-delivery of the same status is a no-op.
func (s *ReconciliationService) HandleNotification(paymentID string) error {
	payment, err := s.gateway.GetPayment(paymentID)
	if err != nil {
		monitoring.TrackWebhook("gateway_error")
		return fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}

	order, err := s.orders.GetByOrderNumber(payment.ExternalReference)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			// Sandbox test payments and replays for purged orders land
			// here; acknowledge so the provider stops retrying.
			logrus.WithFields(logrus.Fields{
				"payment_id":         paymentID,
				"external_reference": payment.ExternalReference,
			}).Warn("Payment notification for unknown order")
			monitoring.TrackWebhook("unknown_order")
			return nil
		}
		monitoring.TrackWebhook("error")
		return err
	}

	log := logrus.WithFields(logrus.Fields{
		"order_number":   order.OrderNumber,
		"payment_id":     paymentID,
		"payment_status": payment.Status,
	})

	switch payment.Status {
	case PaymentApproved:
		if order.IsTerminal() {
			log.Info("Order already settled, ignoring notification")
			monitoring.TrackWebhook("duplicate")
			return nil
		}
		tickets, err := s.fulfillment.IssueTickets(order, paymentID)
		if err != nil {
			monitoring.TrackWebhook("error")
			return fmt.Errorf("failed to fulfill order %s: %w", order.OrderNumber, err)
		}
		log.WithField("tickets", len(tickets)).Info("Order paid and fulfilled")
		monitoring.TrackWebhook("approved")
		order.Status = models.OrderPaid
		s.fulfillment.NotifyBuyer(order, tickets)
		return nil

	case PaymentCancelled, PaymentRejected:
		if order.IsTerminal() {
			log.Info("Order already settled, ignoring notification")
			monitoring.TrackWebhook("duplicate")
			return nil
		}
		final := models.OrderFailed
		if payment.Status == PaymentCancelled {
			final = models.OrderRefunded
		}
		if err := s.orders.MarkFinal(order.ID, final); err != nil {
			if errors.Is(err, models.ErrOrderStateFinal) {
				log.Info("Order settled concurrently, ignoring notification")
				monitoring.TrackWebhook("duplicate")
				return nil
			}
			monitoring.TrackWebhook("error")
			return fmt.Errorf("failed to finalize order %s: %w", order.OrderNumber, err)
		}
		if err := s.inventory.ReleaseByOrder(order.ID); err != nil {
			log.WithError(err).Error("Failed to release reservations for settled order")
		}
		log.Info("Order settled without payment, holds released")
		monitoring.TrackWebhook(payment.Status)
		return nil

	case PaymentPending:
		log.Info("Payment still pending")
		monitoring.TrackWebhook("pending")
		return nil

	default:
		log.Warn("Unrecognized payment status")
		monitoring.TrackWebhook("unknown_status")
		return nil
	}
}
