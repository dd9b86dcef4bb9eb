package handlers

import (
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// StorefrontURLs are the destinations buyers land on after checkout
type StorefrontURLs struct {
	SuccessURL string
	FailureURL string
	PendingURL string
}

// PaymentHandler handles the buyer's return from the provider checkout
type PaymentHandler struct {
	storefront StorefrontURLs
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(storefront StorefrontURLs) *PaymentHandler {
	return &PaymentHandler{storefront: storefront}
}

// PaymentCallback handles GET /payment/callback. The provider sends the
// buyer back here after checkout; this only routes the browser to the
// storefront, order state changes come through the webhook.
func (h *PaymentHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	orderNumber := r.URL.Query().Get("external_reference")

	var destination string
	switch status {
	case "success":
		destination = h.storefront.SuccessURL
	case "pending":
		destination = h.storefront.PendingURL
	default:
		destination = h.storefront.FailureURL
	}

	if orderNumber != "" {
		if u, err := url.Parse(destination); err == nil {
			q := u.Query()
			q.Set("order", orderNumber)
			u.RawQuery = q.Encode()
			destination = u.String()
		}
	}

	logrus.WithFields(logrus.Fields{
		"status": status,
		"order":  orderNumber,
	}).Info("Payment callback received")

	http.Redirect(w, r, destination, http.StatusSeeOther)
}
