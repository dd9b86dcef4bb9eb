package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/monitoring"
	"event-ticketing-core/internal/services"
)

// WebhookHandler handles payment provider notifications
type WebhookHandler struct {
	reconciliation services.ReconciliationServiceInterface
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(reconciliation services.ReconciliationServiceInterface) *WebhookHandler {
	return &WebhookHandler{reconciliation: reconciliation}
}

// paymentNotification is the provider's webhook envelope
type paymentNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PaymentWebhook handles POST /webhooks/payments. The provider redelivers
// on non-2xx, so transient reconciliation failures return 500 to trigger a
// retry; notifications we cannot act on are acknowledged instead.
func (h *WebhookHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var notification paymentNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		logrus.WithError(err).Warn("Unparseable payment notification")
		monitoring.TrackWebhook("malformed")
		writeError(w, http.StatusBadRequest, "invalid notification body")
		return
	}

	if notification.Type != "payment" || notification.Data.ID == "" {
		logrus.WithField("type", notification.Type).Debug("Ignoring non-payment notification")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.reconciliation.HandleNotification(notification.Data.ID); err != nil {
		logrus.WithError(err).WithField("payment_id", notification.Data.ID).Error("Payment reconciliation failed")
		writeError(w, http.StatusInternalServerError, "notification processing failed")
		return
	}

	w.WriteHeader(http.StatusOK)
}
