package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/monitoring"
	"event-ticketing-core/internal/repositories"
)

// FulfillmentService mints tickets for paid orders and delivers them to the
// buyer. Ticket issuance is transactional and idempotent; delivery is
// best-effort and never reverts order state.
type FulfillmentService struct {
	orders   OrderRepository
	tickets  TicketRepository
	events   EventRepository
	buyers   BuyerRepository
	notifier TicketNotifier
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(
	orders OrderRepository,
	tickets TicketRepository,
	events EventRepository,
	buyers BuyerRepository,
	notifier TicketNotifier,
) *FulfillmentService {
	return &FulfillmentService{
		orders:   orders,
		tickets:  tickets,
		events:   events,
		buyers:   buyers,
		notifier: notifier,
	}
}

// IssueTickets transitions the order to paid and mints one ticket per
// purchased seat. Calling it again for an already fulfilled order returns the
// existing tickets without minting duplicates.
func (s *FulfillmentService) IssueTickets(order *models.Order, paymentID string) ([]*models.Ticket, error) {
	count, err := s.tickets.CountByOrder(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing tickets: %w", err)
	}
	if count > 0 {
		return s.tickets.GetByOrder(order.ID)
	}

	items, err := s.orders.GetItems(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("order %d has no line items: %w", order.ID, models.ErrInvalidLineItem)
	}

	// QR codes carry enough entropy that collisions are practically
	// impossible, but the column is unique so retry on violation anyway.
	for attempt := 0; attempt < 3; attempt++ {
		seeds := make([]repositories.TicketSeed, 0, len(items))
		for _, item := range items {
			for i := 0; i < item.Quantity; i++ {
				seeds = append(seeds, repositories.TicketSeed{
					CategoryID: item.CategoryID,
					QRCode:     generateQRCode(order.ID, item.CategoryID),
				})
			}
		}

		err = s.orders.MarkPaid(order.ID, paymentID, seeds)
		if err == nil {
			monitoring.TrackTicketsIssued(len(seeds))
			return s.tickets.GetByOrder(order.ID)
		}

		if errors.Is(err, models.ErrTicketsAlreadyIssued) {
			return s.tickets.GetByOrder(order.ID)
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			logrus.WithField("order_id", order.ID).Warn("QR code collision, regenerating")
			continue
		}

		return nil, err
	}

	return nil, fmt.Errorf("failed to mint tickets for order %d: %w", order.ID, err)
}

// NotifyBuyer emails the issued tickets to the order's buyer. Failures are
// logged and counted but never propagate; the order stays paid regardless.
func (s *FulfillmentService) NotifyBuyer(order *models.Order, tickets []*models.Ticket) {
	email, name, err := s.resolveBuyer(order)
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to resolve buyer for ticket delivery")
		monitoring.TrackNotificationFailure()
		return
	}

	event, err := s.events.GetByID(order.EventID)
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to load event for ticket delivery")
		monitoring.TrackNotificationFailure()
		return
	}

	delivery := &TicketDelivery{
		BuyerEmail:  email,
		BuyerName:   name,
		EventName:   event.Name,
		EventDate:   event.StartDatetime,
		OrderNumber: order.OrderNumber,
		Tickets:     tickets,
		TotalAmount: order.TotalAmount,
	}

	if err := s.notifier.SendTickets(delivery); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		}).Error("Failed to send ticket email")
		monitoring.TrackNotificationFailure()
		return
	}

	logrus.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"tickets":      len(tickets),
	}).Info("Ticket email sent")
}

// resolveBuyer returns the contact email and display name for the order's
// buyer, registered or not.
func (s *FulfillmentService) resolveBuyer(order *models.Order) (string, string, error) {
	if order.UserID != nil {
		user, err := s.buyers.GetUserByID(*order.UserID)
		if err != nil {
			return "", "", err
		}
		return user.Email, user.FullName, nil
	}

	if order.UnregisteredBuyerID != nil {
		buyer, err := s.buyers.GetUnregisteredByID(*order.UnregisteredBuyerID)
		if err != nil {
			return "", "", err
		}
		return buyer.Email, buyer.FullName, nil
	}

	return "", "", fmt.Errorf("order %d: %w", order.ID, models.ErrInvalidBuyer)
}

// generateQRCode creates a unique code for a ticket
func generateQRCode(orderID, categoryID int) string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("TKT-%d-%d-%d", orderID, categoryID, time.Now().UnixNano())
	}
	return fmt.Sprintf("TKT-%d-%d-%d-%s", orderID, categoryID, time.Now().Unix(), hex.EncodeToString(bytes))
}
