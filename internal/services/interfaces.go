package services

import (
	"time"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/repositories"
)

// EventRepository interface for event catalog lookups
type EventRepository interface {
	GetByID(id int) (*models.Event, error)
	GetBySlug(slug string) (*models.Event, error)
	List(limit, offset int) ([]*models.Event, error)
	GetActivePhase(eventID int, at time.Time) (*models.SalePhase, error)
	GetCategoriesByPhase(phaseID int) ([]*models.TicketCategory, error)
	GetCategoryByID(id int) (*models.TicketCategory, error)
}

// InventoryRepository interface for the inventory ledger
type InventoryRepository interface {
	CheckAvailability(categoryID, quantity int) (*repositories.Availability, error)
	Reserve(categoryID, quantity int, ttl time.Duration) (string, error)
	Release(token string) error
	AttachOrder(tokens []string, orderID int) error
	ReleaseByOrder(orderID int) error
	ReleaseExpired() (int64, error)
}

// OrderRepository interface for order data operations
type OrderRepository interface {
	Create(eventID int, userID, buyerID *int, subtotal, serviceFee, total int, items []repositories.OrderItemInput) (*models.Order, error)
	GetByID(id int) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	GetItems(orderID int) ([]*models.OrderItem, error)
	SetPaymentID(orderID int, paymentID string) error
	MarkPaid(orderID int, paymentID string, seeds []repositories.TicketSeed) error
	MarkFinal(orderID int, status models.OrderStatus) error
	GetExpired(ttl time.Duration) ([]*models.Order, error)
}

// TicketRepository interface for issued ticket lookups
type TicketRepository interface {
	GetByOrder(orderID int) ([]*models.Ticket, error)
	GetByQRCode(qrCode string) (*models.Ticket, error)
	CountByOrder(orderID int) (int, error)
}

// BuyerRepository interface for buyer lookups and guest buyer creation
type BuyerRepository interface {
	GetUserByID(id int) (*models.User, error)
	CreateUnregistered(info *models.BuyerInfo) (*models.UnregisteredBuyer, error)
	GetUnregisteredByID(id int) (*models.UnregisteredBuyer, error)
}

// PurchaseServiceInterface defines the purchase operations handlers depend on
type PurchaseServiceInterface interface {
	CreatePurchase(req *models.PurchaseCreateRequest) (*PurchaseResult, error)
	GetPurchase(orderNumber string) (*PurchaseDetails, error)
	GetPurchaseByID(id int) (*PurchaseDetails, error)
}

// ReconciliationServiceInterface defines the webhook reconciliation operation
type ReconciliationServiceInterface interface {
	HandleNotification(paymentID string) error
}

// Provider payment status vocabulary
const (
	PaymentApproved  = "approved"
	PaymentPending   = "pending"
	PaymentCancelled = "cancelled"
	PaymentRejected  = "rejected"
)

// TransactionItem represents one line sent to the gateway checkout
type TransactionItem struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// TransactionRequest represents a checkout transaction to initiate
type TransactionRequest struct {
	ExternalReference string
	Description       string
	Items             []TransactionItem
	TotalAmount       int
	PayerEmail        string
	PayerName         string
}

// TransactionResult represents the gateway's handle on a new transaction
type TransactionResult struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
}

// PaymentDetails represents the provider's view of a payment. Status uses
// the provider vocabulary: approved, pending, cancelled, rejected.
type PaymentDetails struct {
	PaymentID         string `json:"payment_id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
	Amount            int    `json:"amount"`
}

// PaymentGateway interface for the external payment provider
type PaymentGateway interface {
	CreateTransaction(req *TransactionRequest) (*TransactionResult, error)
	GetPayment(paymentID string) (*PaymentDetails, error)
}

// TicketDelivery carries everything the notification collaborator needs to
// deliver issued tickets to the buyer.
type TicketDelivery struct {
	BuyerEmail  string
	BuyerName   string
	EventName   string
	EventDate   time.Time
	OrderNumber string
	Tickets     []*models.Ticket
	TotalAmount int
}

// TicketNotifier interface for the external notification collaborator
type TicketNotifier interface {
	SendTickets(delivery *TicketDelivery) error
}
