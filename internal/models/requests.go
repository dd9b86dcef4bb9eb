package models

import "fmt"

// LineItemRequest represents one requested (category, quantity) pair
type LineItemRequest struct {
	CategoryID int `json:"category_id"`
	Quantity   int `json:"quantity"`
}

// PurchaseCreateRequest represents the data needed to create a purchase.
// Either UserID identifies a registered buyer, or Buyer carries guest
// details; supplying both or neither is rejected.
type PurchaseCreateRequest struct {
	EventID int               `json:"event_id"`
	UserID  int               `json:"user_id,omitempty"`
	Buyer   *BuyerInfo        `json:"buyer,omitempty"`
	Items   []LineItemRequest `json:"items"`
}

// Validate validates the purchase request shape. Category membership in the
// active sale phase is checked by the orchestrator, not here.
func (req *PurchaseCreateRequest) Validate() error {
	if req.EventID <= 0 {
		return fmt.Errorf("%w: event_id is required", ErrInvalidInput)
	}

	hasUser := req.UserID > 0
	hasBuyer := req.Buyer != nil

	if hasUser == hasBuyer {
		return fmt.Errorf("%w: supply either user_id or buyer details", ErrInvalidBuyer)
	}

	if hasBuyer {
		if err := req.Buyer.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBuyer, err)
		}
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", ErrInvalidLineItem)
	}

	for _, item := range req.Items {
		if item.CategoryID <= 0 {
			return fmt.Errorf("%w: category_id is required", ErrInvalidLineItem)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be greater than 0 for category %d", ErrInvalidLineItem, item.CategoryID)
		}
	}

	return nil
}
