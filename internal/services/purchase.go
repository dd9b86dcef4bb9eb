package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/monitoring"
	"event-ticketing-core/internal/pricing"
	"event-ticketing-core/internal/repositories"
)

// PurchaseResult represents the outcome of a newly created purchase
type PurchaseResult struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirect_url"`
}

// PurchaseDetails represents a purchase with its line items and any issued
// tickets, for status lookups.
type PurchaseDetails struct {
	Order   *models.Order       `json:"order"`
	Items   []*models.OrderItem `json:"items"`
	Tickets []*models.Ticket    `json:"tickets,omitempty"`
}

// PurchaseService orchestrates the purchase flow: validation, inventory
// holds, pricing, order creation and checkout initiation. Each step either
// succeeds or unwinds everything the flow did before it.
type PurchaseService struct {
	events    EventRepository
	inventory InventoryRepository
	orders    OrderRepository
	tickets   TicketRepository
	buyers    BuyerRepository
	gateway   PaymentGateway
	engine    *pricing.Engine

	reservationTTL time.Duration
	maxTickets     int
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	events EventRepository,
	inventory InventoryRepository,
	orders OrderRepository,
	tickets TicketRepository,
	buyers BuyerRepository,
	gateway PaymentGateway,
	engine *pricing.Engine,
	reservationTTLMinutes int,
	maxTicketsPerPurchase int,
) *PurchaseService {
	return &PurchaseService{
		events:         events,
		inventory:      inventory,
		orders:         orders,
		tickets:        tickets,
		buyers:         buyers,
		gateway:        gateway,
		engine:         engine,
		reservationTTL: time.Duration(reservationTTLMinutes) * time.Minute,
		maxTickets:     maxTicketsPerPurchase,
	}
}

// CreatePurchase validates the request, places inventory holds, prices the
// cart, persists the order and initiates checkout with the payment gateway.
// The returned redirect URL sends the buyer to the provider's checkout page.
func (s *PurchaseService) CreatePurchase(req *models.PurchaseCreateRequest) (*PurchaseResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(req.EventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPurchasable() {
		return nil, fmt.Errorf("event %d is %s: %w", event.ID, event.Status, models.ErrEventNotPurchasable)
	}

	userID, buyerID, payerEmail, payerName, err := s.resolveBuyer(req)
	if err != nil {
		return nil, err
	}

	phase, err := s.events.GetActivePhase(event.ID, time.Now())
	if err != nil {
		return nil, err
	}

	categories, err := s.categoriesByID(phase.ID)
	if err != nil {
		return nil, err
	}

	lines, err := s.buildLines(req.Items, categories)
	if err != nil {
		return nil, err
	}

	tokens, err := s.reserveAll(lines)
	if err != nil {
		monitoring.TrackPurchase("insufficient_inventory")
		return nil, err
	}

	totals := s.engine.ComputeTotals(lines)

	itemInputs := make([]repositories.OrderItemInput, 0, len(lines))
	for _, line := range lines {
		itemInputs = append(itemInputs, repositories.OrderItemInput{
			CategoryID: line.Category.ID,
			Quantity:   line.Quantity,
			UnitPrice:  s.engine.UnitPrice(line.Category),
		})
	}

	order, err := s.orders.Create(event.ID, userID, buyerID, totals.Subtotal, totals.ServiceFee, totals.Total, itemInputs)
	if err != nil {
		s.releaseTokens(tokens)
		monitoring.TrackPurchase("error")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.inventory.AttachOrder(tokens, order.ID); err != nil {
		s.releaseTokens(tokens)
		monitoring.TrackPurchase("error")
		return nil, fmt.Errorf("failed to attach reservations to order: %w", err)
	}

	result, err := s.gateway.CreateTransaction(s.buildTransaction(order, event, lines, payerEmail, payerName))
	if err != nil {
		logrus.WithError(err).WithField("order_number", order.OrderNumber).Error("Checkout initiation failed")
		if ferr := s.orders.MarkFinal(order.ID, models.OrderFailed); ferr != nil {
			logrus.WithError(ferr).WithField("order_id", order.ID).Error("Failed to mark order failed")
		}
		if rerr := s.inventory.ReleaseByOrder(order.ID); rerr != nil {
			logrus.WithError(rerr).WithField("order_id", order.ID).Error("Failed to release order reservations")
		}
		monitoring.TrackPurchase("gateway_error")
		return nil, fmt.Errorf("checkout initiation: %w", models.ErrPaymentGateway)
	}

	if err := s.orders.SetPaymentID(order.ID, result.TransactionID); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to store transaction reference")
	}
	order.PaymentID = result.TransactionID

	logrus.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"event_id":     event.ID,
		"total":        totals.Total,
	}).Info("Purchase created")
	monitoring.TrackPurchase("created")

	return &PurchaseResult{Order: order, RedirectURL: result.RedirectURL}, nil
}

// GetPurchase returns a purchase with its line items and issued tickets
func (s *PurchaseService) GetPurchase(orderNumber string) (*PurchaseDetails, error) {
	order, err := s.orders.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	return s.purchaseDetails(order)
}

// GetPurchaseByID returns a purchase by its numeric identifier
func (s *PurchaseService) GetPurchaseByID(id int) (*PurchaseDetails, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.purchaseDetails(order)
}

func (s *PurchaseService) purchaseDetails(order *models.Order) (*PurchaseDetails, error) {
	items, err := s.orders.GetItems(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}

	var tickets []*models.Ticket
	if order.IsPaid() {
		tickets, err = s.tickets.GetByOrder(order.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get order tickets: %w", err)
		}
	}

	return &PurchaseDetails{Order: order, Items: items, Tickets: tickets}, nil
}

// resolveBuyer resolves the order's buyer reference from the request.
// Registered buyers must already exist; guest buyers are created on the fly.
func (s *PurchaseService) resolveBuyer(req *models.PurchaseCreateRequest) (*int, *int, string, string, error) {
	if req.UserID > 0 {
		user, err := s.buyers.GetUserByID(req.UserID)
		if err != nil {
			return nil, nil, "", "", err
		}
		return &user.ID, nil, user.Email, user.FullName, nil
	}

	buyer, err := s.buyers.CreateUnregistered(req.Buyer)
	if err != nil {
		return nil, nil, "", "", err
	}
	return nil, &buyer.ID, buyer.Email, buyer.FullName, nil
}

func (s *PurchaseService) categoriesByID(phaseID int) (map[int]*models.TicketCategory, error) {
	categories, err := s.events.GetCategoriesByPhase(phaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get phase categories: %w", err)
	}

	byID := make(map[int]*models.TicketCategory, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}
	return byID, nil
}

// buildLines maps requested line items onto the active phase's categories
func (s *PurchaseService) buildLines(items []models.LineItemRequest, categories map[int]*models.TicketCategory) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(items))
	totalQuantity := 0

	for _, item := range items {
		category, ok := categories[item.CategoryID]
		if !ok {
			return nil, fmt.Errorf("category %d is not in the active sale phase: %w", item.CategoryID, models.ErrInvalidLineItem)
		}
		totalQuantity += item.Quantity
		lines = append(lines, pricing.Line{Category: category, Quantity: item.Quantity})
	}

	if s.maxTickets > 0 && totalQuantity > s.maxTickets {
		return nil, fmt.Errorf("requested %d tickets, limit is %d: %w", totalQuantity, s.maxTickets, models.ErrInvalidLineItem)
	}

	return lines, nil
}

// reserveAll places a hold per line item. If any hold fails, the holds
// already placed are released before returning.
func (s *PurchaseService) reserveAll(lines []pricing.Line) ([]string, error) {
	tokens := make([]string, 0, len(lines))
	for _, line := range lines {
		token, err := s.inventory.Reserve(line.Category.ID, line.Quantity, s.reservationTTL)
		if err != nil {
			s.releaseTokens(tokens)
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (s *PurchaseService) releaseTokens(tokens []string) {
	for _, token := range tokens {
		if err := s.inventory.Release(token); err != nil {
			logrus.WithError(err).WithField("token", token).Error("Failed to release reservation")
		}
	}
}

// buildTransaction assembles the checkout request sent to the gateway. The
// service fee travels as its own line so the provider total matches ours.
func (s *PurchaseService) buildTransaction(order *models.Order, event *models.Event, lines []pricing.Line, payerEmail, payerName string) *TransactionRequest {
	items := make([]TransactionItem, 0, len(lines)+1)
	for _, line := range lines {
		items = append(items, TransactionItem{
			Title:     fmt.Sprintf("%s - %s", event.Name, line.Category.Name),
			Quantity:  line.Quantity,
			UnitPrice: s.engine.UnitPrice(line.Category),
		})
	}
	if order.ServiceFee > 0 {
		items = append(items, TransactionItem{
			Title:     "Service fee",
			Quantity:  1,
			UnitPrice: order.ServiceFee,
		})
	}

	return &TransactionRequest{
		ExternalReference: order.OrderNumber,
		Description:       fmt.Sprintf("Tickets for %s", event.Name),
		Items:             items,
		TotalAmount:       order.TotalAmount,
		PayerEmail:        payerEmail,
		PayerName:         payerName,
	}
}
