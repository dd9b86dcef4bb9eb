package models

import (
	"errors"
	"strings"
	"time"
)

// TicketStatus represents the status of an issued ticket
type TicketStatus string

const (
	TicketActive   TicketStatus = "active"
	TicketUsed     TicketStatus = "used"
	TicketRefunded TicketStatus = "refunded"
)

// Ticket represents one issued seat. QRCode is the globally unique
// redemption payload; tickets exist only for paid orders.
type Ticket struct {
	ID         int          `json:"id" db:"id"`
	OrderID    int          `json:"order_id" db:"order_id"`
	CategoryID int          `json:"category_id" db:"category_id"`
	QRCode     string       `json:"qr_code" db:"qr_code"`
	Status     TicketStatus `json:"status" db:"status"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// Validate validates the ticket data
func (t *Ticket) Validate() error {
	if t.OrderID <= 0 {
		return errors.New("ticket must reference an order")
	}

	if t.CategoryID <= 0 {
		return errors.New("ticket must reference a category")
	}

	if strings.TrimSpace(t.QRCode) == "" {
		return errors.New("ticket redemption code is required")
	}

	switch t.Status {
	case TicketActive, TicketUsed, TicketRefunded:
	default:
		return errors.New("invalid ticket status")
	}

	return nil
}

// CanBeUsed returns true if the ticket is valid for entry
func (t *Ticket) CanBeUsed() bool {
	return t.Status == TicketActive
}
