package services

import (
	"errors"
	"fmt"
	"time"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/repositories"
)

// Mock implementations for testing

type mockEventRepository struct {
	events        map[int]*models.Event
	phases        map[int]*models.SalePhase
	categories    map[int][]*models.TicketCategory
	shouldFailOps map[string]bool
}

func newMockEventRepository() *mockEventRepository {
	return &mockEventRepository{
		events:        make(map[int]*models.Event),
		phases:        make(map[int]*models.SalePhase),
		categories:    make(map[int][]*models.TicketCategory),
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockEventRepository) GetByID(id int) (*models.Event, error) {
	if m.shouldFailOps["GetByID"] {
		return nil, errors.New("mock error")
	}

	event, exists := m.events[id]
	if !exists {
		return nil, fmt.Errorf("event %d: %w", id, models.ErrEventNotFound)
	}
	return event, nil
}

func (m *mockEventRepository) GetBySlug(slug string) (*models.Event, error) {
	if m.shouldFailOps["GetBySlug"] {
		return nil, errors.New("mock error")
	}

	for _, event := range m.events {
		if event.Slug == slug {
			return event, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", slug, models.ErrEventNotFound)
}

func (m *mockEventRepository) List(limit, offset int) ([]*models.Event, error) {
	if m.shouldFailOps["List"] {
		return nil, errors.New("mock error")
	}

	var result []*models.Event
	for _, event := range m.events {
		result = append(result, event)
	}
	return result, nil
}

func (m *mockEventRepository) GetActivePhase(eventID int, at time.Time) (*models.SalePhase, error) {
	if m.shouldFailOps["GetActivePhase"] {
		return nil, errors.New("mock error")
	}

	phase, exists := m.phases[eventID]
	if !exists || !phase.IsActiveAt(at) {
		return nil, fmt.Errorf("event %d has no active sale phase: %w", eventID, models.ErrEventNotPurchasable)
	}
	return phase, nil
}

func (m *mockEventRepository) GetCategoriesByPhase(phaseID int) ([]*models.TicketCategory, error) {
	if m.shouldFailOps["GetCategoriesByPhase"] {
		return nil, errors.New("mock error")
	}
	return m.categories[phaseID], nil
}

func (m *mockEventRepository) GetCategoryByID(id int) (*models.TicketCategory, error) {
	if m.shouldFailOps["GetCategoryByID"] {
		return nil, errors.New("mock error")
	}

	for _, categories := range m.categories {
		for _, category := range categories {
			if category.ID == id {
				return category, nil
			}
		}
	}
	return nil, fmt.Errorf("category %d: %w", id, models.ErrCategoryNotFound)
}

type mockHold struct {
	categoryID int
	quantity   int
	orderID    int
	expiresAt  time.Time
}

type mockInventoryRepository struct {
	remaining     map[int]int
	holds         map[string]*mockHold
	nextToken     int
	shouldFailOps map[string]bool
}

func newMockInventoryRepository() *mockInventoryRepository {
	return &mockInventoryRepository{
		remaining:     make(map[int]int),
		holds:         make(map[string]*mockHold),
		nextToken:     1,
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockInventoryRepository) CheckAvailability(categoryID, quantity int) (*repositories.Availability, error) {
	if m.shouldFailOps["CheckAvailability"] {
		return nil, errors.New("mock error")
	}

	remaining := m.remaining[categoryID]
	return &repositories.Availability{
		Available: remaining >= quantity,
		Remaining: remaining,
	}, nil
}

func (m *mockInventoryRepository) Reserve(categoryID, quantity int, ttl time.Duration) (string, error) {
	if m.shouldFailOps["Reserve"] {
		return "", errors.New("mock error")
	}

	remaining := m.remaining[categoryID]
	if remaining < quantity {
		return "", fmt.Errorf("category %d: requested %d, remaining %d: %w",
			categoryID, quantity, remaining, models.ErrInsufficientInventory)
	}

	token := fmt.Sprintf("token-%d", m.nextToken)
	m.nextToken++
	m.remaining[categoryID] = remaining - quantity
	m.holds[token] = &mockHold{
		categoryID: categoryID,
		quantity:   quantity,
		expiresAt:  time.Now().Add(ttl),
	}
	return token, nil
}

func (m *mockInventoryRepository) Release(token string) error {
	if m.shouldFailOps["Release"] {
		return errors.New("mock error")
	}

	hold, exists := m.holds[token]
	if !exists {
		return fmt.Errorf("reservation %s: %w", token, models.ErrReservationNotFound)
	}
	m.remaining[hold.categoryID] += hold.quantity
	delete(m.holds, token)
	return nil
}

func (m *mockInventoryRepository) AttachOrder(tokens []string, orderID int) error {
	if m.shouldFailOps["AttachOrder"] {
		return errors.New("mock error")
	}

	for _, token := range tokens {
		if hold, exists := m.holds[token]; exists {
			hold.orderID = orderID
		}
	}
	return nil
}

func (m *mockInventoryRepository) ReleaseByOrder(orderID int) error {
	if m.shouldFailOps["ReleaseByOrder"] {
		return errors.New("mock error")
	}

	for token, hold := range m.holds {
		if hold.orderID == orderID {
			m.remaining[hold.categoryID] += hold.quantity
			delete(m.holds, token)
		}
	}
	return nil
}

func (m *mockInventoryRepository) ReleaseExpired() (int64, error) {
	if m.shouldFailOps["ReleaseExpired"] {
		return 0, errors.New("mock error")
	}

	var count int64
	now := time.Now()
	for token, hold := range m.holds {
		if hold.expiresAt.Before(now) {
			m.remaining[hold.categoryID] += hold.quantity
			delete(m.holds, token)
			count++
		}
	}
	return count, nil
}

func (m *mockInventoryRepository) heldCount() int {
	return len(m.holds)
}

type mockOrderRepository struct {
	orders        map[int]*models.Order
	items         map[int][]*models.OrderItem
	tickets       *mockTicketRepository
	nextID        int
	shouldFailOps map[string]bool
}

func newMockOrderRepository(tickets *mockTicketRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:        make(map[int]*models.Order),
		items:         make(map[int][]*models.OrderItem),
		tickets:       tickets,
		nextID:        1,
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockOrderRepository) Create(eventID int, userID, buyerID *int, subtotal, serviceFee, total int, items []repositories.OrderItemInput) (*models.Order, error) {
	if m.shouldFailOps["Create"] {
		return nil, errors.New("mock error")
	}

	order := &models.Order{
		ID:                  m.nextID,
		EventID:             eventID,
		UserID:              userID,
		UnregisteredBuyerID: buyerID,
		OrderNumber:         models.GenerateOrderNumber(),
		Subtotal:            subtotal,
		ServiceFee:          serviceFee,
		TotalAmount:         total,
		Status:              models.OrderPending,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}

	for i, item := range items {
		m.items[order.ID] = append(m.items[order.ID], &models.OrderItem{
			ID:         i + 1,
			OrderID:    order.ID,
			CategoryID: item.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}

	m.orders[order.ID] = order
	m.nextID++
	return order, nil
}

func (m *mockOrderRepository) GetByID(id int) (*models.Order, error) {
	if m.shouldFailOps["GetByID"] {
		return nil, errors.New("mock error")
	}

	order, exists := m.orders[id]
	if !exists {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrOrderNotFound)
	}
	return order, nil
}

func (m *mockOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	if m.shouldFailOps["GetByOrderNumber"] {
		return nil, errors.New("mock error")
	}

	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", orderNumber, models.ErrOrderNotFound)
}

func (m *mockOrderRepository) GetItems(orderID int) ([]*models.OrderItem, error) {
	if m.shouldFailOps["GetItems"] {
		return nil, errors.New("mock error")
	}
	return m.items[orderID], nil
}

func (m *mockOrderRepository) SetPaymentID(orderID int, paymentID string) error {
	if m.shouldFailOps["SetPaymentID"] {
		return errors.New("mock error")
	}

	order, exists := m.orders[orderID]
	if !exists {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderNotFound)
	}
	order.PaymentID = paymentID
	return nil
}

func (m *mockOrderRepository) MarkPaid(orderID int, paymentID string, seeds []repositories.TicketSeed) error {
	if m.shouldFailOps["MarkPaid"] {
		return errors.New("mock error")
	}

	order, exists := m.orders[orderID]
	if !exists {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderNotFound)
	}
	if order.Status != models.OrderPending {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderStateFinal)
	}

	count, _ := m.tickets.CountByOrder(orderID)
	if count > 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrTicketsAlreadyIssued)
	}

	for _, seed := range seeds {
		m.tickets.add(orderID, seed.CategoryID, seed.QRCode)
	}

	order.Status = models.OrderPaid
	order.PaymentID = paymentID
	order.UpdatedAt = time.Now()
	return nil
}

func (m *mockOrderRepository) MarkFinal(orderID int, status models.OrderStatus) error {
	if m.shouldFailOps["MarkFinal"] {
		return errors.New("mock error")
	}

	if status != models.OrderFailed && status != models.OrderRefunded {
		return fmt.Errorf("%w: %s is not a terminal non-paid status", models.ErrInvalidInput, status)
	}

	order, exists := m.orders[orderID]
	if !exists {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderNotFound)
	}
	if order.Status != models.OrderPending {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderStateFinal)
	}

	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

func (m *mockOrderRepository) GetExpired(ttl time.Duration) ([]*models.Order, error) {
	if m.shouldFailOps["GetExpired"] {
		return nil, errors.New("mock error")
	}

	var result []*models.Order
	for _, order := range m.orders {
		if order.IsPending() && order.IsExpired(ttl) {
			result = append(result, order)
		}
	}
	return result, nil
}

type mockTicketRepository struct {
	tickets       map[int]*models.Ticket
	nextID        int
	shouldFailOps map[string]bool
}

func newMockTicketRepository() *mockTicketRepository {
	return &mockTicketRepository{
		tickets:       make(map[int]*models.Ticket),
		nextID:        1,
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockTicketRepository) add(orderID, categoryID int, qrCode string) *models.Ticket {
	ticket := &models.Ticket{
		ID:         m.nextID,
		OrderID:    orderID,
		CategoryID: categoryID,
		QRCode:     qrCode,
		Status:     models.TicketActive,
		CreatedAt:  time.Now(),
	}
	m.tickets[m.nextID] = ticket
	m.nextID++
	return ticket
}

func (m *mockTicketRepository) GetByOrder(orderID int) ([]*models.Ticket, error) {
	if m.shouldFailOps["GetByOrder"] {
		return nil, errors.New("mock error")
	}

	var result []*models.Ticket
	for _, ticket := range m.tickets {
		if ticket.OrderID == orderID {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func (m *mockTicketRepository) GetByQRCode(qrCode string) (*models.Ticket, error) {
	if m.shouldFailOps["GetByQRCode"] {
		return nil, errors.New("mock error")
	}

	for _, ticket := range m.tickets {
		if ticket.QRCode == qrCode {
			return ticket, nil
		}
	}
	return nil, fmt.Errorf("ticket %s: %w", qrCode, models.ErrTicketNotFound)
}

func (m *mockTicketRepository) CountByOrder(orderID int) (int, error) {
	if m.shouldFailOps["CountByOrder"] {
		return 0, errors.New("mock error")
	}

	count := 0
	for _, ticket := range m.tickets {
		if ticket.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

type mockBuyerRepository struct {
	users         map[int]*models.User
	unregistered  map[int]*models.UnregisteredBuyer
	nextID        int
	shouldFailOps map[string]bool
}

func newMockBuyerRepository() *mockBuyerRepository {
	return &mockBuyerRepository{
		users:         make(map[int]*models.User),
		unregistered:  make(map[int]*models.UnregisteredBuyer),
		nextID:        1,
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockBuyerRepository) GetUserByID(id int) (*models.User, error) {
	if m.shouldFailOps["GetUserByID"] {
		return nil, errors.New("mock error")
	}

	user, exists := m.users[id]
	if !exists {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrBuyerNotFound)
	}
	return user, nil
}

func (m *mockBuyerRepository) CreateUnregistered(info *models.BuyerInfo) (*models.UnregisteredBuyer, error) {
	if m.shouldFailOps["CreateUnregistered"] {
		return nil, errors.New("mock error")
	}

	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidBuyer, err)
	}

	buyer := &models.UnregisteredBuyer{
		ID:        m.nextID,
		Email:     info.Email,
		FullName:  info.FullName,
		Document:  info.Document,
		CreatedAt: time.Now(),
	}
	m.unregistered[m.nextID] = buyer
	m.nextID++
	return buyer, nil
}

func (m *mockBuyerRepository) GetUnregisteredByID(id int) (*models.UnregisteredBuyer, error) {
	if m.shouldFailOps["GetUnregisteredByID"] {
		return nil, errors.New("mock error")
	}

	buyer, exists := m.unregistered[id]
	if !exists {
		return nil, fmt.Errorf("unregistered buyer %d: %w", id, models.ErrBuyerNotFound)
	}
	return buyer, nil
}

type mockPaymentGateway struct {
	payments      map[string]*PaymentDetails
	created       []*TransactionRequest
	nextID        int
	shouldFailOps map[string]bool
}

func newMockPaymentGateway() *mockPaymentGateway {
	return &mockPaymentGateway{
		payments:      make(map[string]*PaymentDetails),
		nextID:        1,
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockPaymentGateway) CreateTransaction(req *TransactionRequest) (*TransactionResult, error) {
	if m.shouldFailOps["CreateTransaction"] {
		return nil, errors.New("mock error")
	}

	id := fmt.Sprintf("pay-%d", m.nextID)
	m.nextID++
	m.created = append(m.created, req)
	m.payments[id] = &PaymentDetails{
		PaymentID:         id,
		Status:            PaymentPending,
		ExternalReference: req.ExternalReference,
		Amount:            req.TotalAmount,
	}
	return &TransactionResult{TransactionID: id, RedirectURL: "https://checkout.example.com/" + id}, nil
}

func (m *mockPaymentGateway) GetPayment(paymentID string) (*PaymentDetails, error) {
	if m.shouldFailOps["GetPayment"] {
		return nil, errors.New("mock error")
	}

	payment, exists := m.payments[paymentID]
	if !exists {
		return nil, errors.New("payment not found")
	}
	return payment, nil
}

func (m *mockPaymentGateway) setStatus(paymentID, status string) {
	if payment, exists := m.payments[paymentID]; exists {
		payment.Status = status
	}
}

type mockTicketNotifier struct {
	sent       []*TicketDelivery
	shouldFail bool
}

func (m *mockTicketNotifier) SendTickets(delivery *TicketDelivery) error {
	if m.shouldFail {
		return errors.New("mock error")
	}
	m.sent = append(m.sent, delivery)
	return nil
}
