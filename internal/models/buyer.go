package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Email validation regex for buyers
var buyerEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User represents a registered buyer. Identity provisioning happens
// elsewhere; the core only reads users to address fulfillment.
type User struct {
	ID        int       `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UnregisteredBuyer represents a guest checkout buyer, captured at purchase
// time without an account.
type UnregisteredBuyer struct {
	ID        int       `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Document  string    `json:"document" db:"document"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BuyerInfo carries the guest buyer details supplied on a purchase request
type BuyerInfo struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Document string `json:"document"`
}

// Validate validates guest buyer details. Email and full name are required;
// the identity document is optional.
func (b *BuyerInfo) Validate() error {
	if b.Email == "" {
		return errors.New("buyer email is required")
	}

	if !buyerEmailRegex.MatchString(b.Email) {
		return errors.New("buyer email format is invalid")
	}

	if strings.TrimSpace(b.FullName) == "" {
		return errors.New("buyer full name is required")
	}

	if len(b.Email) > 255 || len(b.FullName) > 255 {
		return errors.New("buyer details must be less than 255 characters")
	}

	return nil
}
