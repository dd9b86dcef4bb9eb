package models

import "time"

// EventStatus represents the lifecycle status of an event
type EventStatus string

const (
	EventAnnounced EventStatus = "announced"
	EventOnSale    EventStatus = "on_sale"
	EventCancelled EventStatus = "cancelled"
	EventFinished  EventStatus = "finished"
)

// Event represents an event in the catalog. The purchase core treats events
// as read-only; they are provisioned out of band.
type Event struct {
	ID            int         `json:"id" db:"id"`
	Slug          string      `json:"slug" db:"slug"`
	Name          string      `json:"name" db:"name"`
	LocationName  string      `json:"location_name" db:"location_name"`
	LocationCity  string      `json:"location_city" db:"location_city"`
	Status        EventStatus `json:"status" db:"status"`
	StartDatetime time.Time   `json:"start_datetime" db:"start_datetime"`
	EndDatetime   time.Time   `json:"end_datetime" db:"end_datetime"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// IsPurchasable returns true if tickets can currently be bought for the event
func (e *Event) IsPurchasable() bool {
	return e.Status == EventOnSale
}

// SalePhase represents a time-boxed sale window for an event. At most one
// phase is active per event at any instant; overlapping windows are a data
// error upstream.
type SalePhase struct {
	ID       int       `json:"id" db:"id"`
	EventID  int       `json:"event_id" db:"event_id"`
	Name     string    `json:"name" db:"name"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
	EndsAt   time.Time `json:"ends_at" db:"ends_at"`
}

// IsActiveAt returns true if the phase window contains the given instant
func (p *SalePhase) IsActiveAt(t time.Time) bool {
	return !t.Before(p.StartsAt) && t.Before(p.EndsAt)
}

// DiscountType represents the kind of discount applied to a category
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// TicketCategory represents a purchasable ticket class within a sale phase.
// Price is in minor currency units. Capacity is a ceiling, not a live
// counter; sold and held counts live in the inventory ledger.
type TicketCategory struct {
	ID            int           `json:"id" db:"id"`
	SalePhaseID   int           `json:"sale_phase_id" db:"sale_phase_id"`
	Name          string        `json:"name" db:"name"`
	Price         int           `json:"price" db:"price"`
	Capacity      int           `json:"capacity" db:"capacity"`
	DiscountType  *DiscountType `json:"discount_type,omitempty" db:"discount_type"`
	DiscountValue *int          `json:"discount_value,omitempty" db:"discount_value"`
}

// HasDiscount returns true if the category carries a discount rule
func (c *TicketCategory) HasDiscount() bool {
	return c.DiscountType != nil && c.DiscountValue != nil
}
