package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderFailed   OrderStatus = "failed"
	OrderRefunded OrderStatus = "refunded"
)

// Order represents one checkout attempt. Amounts are in minor currency
// units. Exactly one of UserID and UnregisteredBuyerID is set. OrderNumber
// doubles as the external reference sent to the payment gateway.
type Order struct {
	ID                  int         `json:"id" db:"id"`
	EventID             int         `json:"event_id" db:"event_id"`
	UserID              *int        `json:"user_id,omitempty" db:"user_id"`
	UnregisteredBuyerID *int        `json:"unregistered_buyer_id,omitempty" db:"unregistered_buyer_id"`
	OrderNumber         string      `json:"order_number" db:"order_number"`
	Subtotal            int         `json:"subtotal" db:"subtotal"`
	ServiceFee          int         `json:"service_fee" db:"service_fee"`
	TotalAmount         int         `json:"total_amount" db:"total_amount"`
	Status              OrderStatus `json:"status" db:"status"`
	PaymentID           string      `json:"payment_id" db:"payment_id"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem represents one line of an order, persisted at creation time with
// the unit price that was actually charged.
type OrderItem struct {
	ID         int `json:"id" db:"id"`
	OrderID    int `json:"order_id" db:"order_id"`
	CategoryID int `json:"category_id" db:"category_id"`
	Quantity   int `json:"quantity" db:"quantity"`
	UnitPrice  int `json:"unit_price" db:"unit_price"`
}

// Order number format: ORD-YYYYMMDD-XXXXXX (e.g., ORD-20240101-123456)
var orderNumberRegex = regexp.MustCompile(`^ORD-\d{8}-\d{6}$`)

// Validate validates the order data
func (o *Order) Validate() error {
	if o.OrderNumber == "" {
		return errors.New("order number is required")
	}

	if !orderNumberRegex.MatchString(o.OrderNumber) {
		return errors.New("order number format is invalid")
	}

	if err := validateOrderStatus(o.Status); err != nil {
		return err
	}

	if o.Subtotal < 0 || o.ServiceFee < 0 || o.TotalAmount < 0 {
		return errors.New("order amounts cannot be negative")
	}

	if o.TotalAmount != o.Subtotal+o.ServiceFee {
		return errors.New("total amount must equal subtotal plus service fee")
	}

	if err := o.validateBuyerRef(); err != nil {
		return err
	}

	return nil
}

// validateBuyerRef enforces the exactly-one-buyer rule
func (o *Order) validateBuyerRef() error {
	hasUser := o.UserID != nil && *o.UserID > 0
	hasBuyer := o.UnregisteredBuyerID != nil && *o.UnregisteredBuyerID > 0

	if hasUser == hasBuyer {
		return errors.New("order must reference exactly one buyer")
	}

	return nil
}

// validateOrderStatus validates an order status
func validateOrderStatus(status OrderStatus) error {
	switch status {
	case OrderPending, OrderPaid, OrderFailed, OrderRefunded:
		return nil
	default:
		return errors.New("invalid order status")
	}
}

// GenerateOrderNumber generates a unique order number
func GenerateOrderNumber() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	// Generate a 6-digit random number using crypto/rand for better uniqueness
	max := big.NewInt(1000000)
	randomNum, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fallback to timestamp-based generation if crypto/rand fails
		timestamp := now.UnixNano()
		randomPart := timestamp % 1000000
		return fmt.Sprintf("ORD-%s-%06d", dateStr, randomPart)
	}

	return fmt.Sprintf("ORD-%s-%06d", dateStr, randomNum.Int64())
}

// IsPending returns true if the order is awaiting payment
func (o *Order) IsPending() bool {
	return o.Status == OrderPending
}

// IsPaid returns true if the order has been paid
func (o *Order) IsPaid() bool {
	return o.Status == OrderPaid
}

// IsTerminal returns true if the order is in a final state. Terminal orders
// accept no further status transitions.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderPaid, OrderFailed, OrderRefunded:
		return true
	default:
		return false
	}
}

// IsExpired returns true if a pending order is older than the given TTL
func (o *Order) IsExpired(ttl time.Duration) bool {
	if o.Status != OrderPending {
		return false
	}

	return time.Since(o.CreatedAt) > ttl
}

// TotalAmountInCurrency returns the total amount in the main currency unit
func (o *Order) TotalAmountInCurrency() float64 {
	return float64(o.TotalAmount) / 100.0
}
