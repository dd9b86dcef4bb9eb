package models

import "errors"

// Common errors used throughout the application
var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNotPurchasable   = errors.New("event is not on sale")
	ErrCategoryNotFound      = errors.New("ticket category not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrBuyerNotFound         = errors.New("buyer not found")
	ErrInvalidBuyer          = errors.New("invalid buyer information")
	ErrInvalidLineItem       = errors.New("invalid line item")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInsufficientInventory = errors.New("insufficient ticket inventory")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrOrderStateFinal       = errors.New("order is in a terminal state")
	ErrTicketsAlreadyIssued  = errors.New("tickets already issued for order")
	ErrPaymentGateway        = errors.New("payment gateway error")
)
