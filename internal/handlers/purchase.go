package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/services"
)

// PurchaseHandler handles purchase API operations
type PurchaseHandler struct {
	purchases services.PurchaseServiceInterface
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchases services.PurchaseServiceInterface) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// CreatePurchase handles POST /api/purchases
func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.purchases.CreatePurchase(&req)
	if err != nil {
		status := statusForError(err)
		if status >= 500 {
			logrus.WithError(err).Error("Purchase creation failed")
			writeError(w, status, "purchase could not be completed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetPurchaseByID handles GET /api/purchases?purchase_id=
func (h *PurchaseHandler) GetPurchaseByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("purchase_id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid purchase_id")
		return
	}

	details, err := h.purchases.GetPurchaseByID(id)
	if err != nil {
		status := statusForError(err)
		if status >= 500 {
			logrus.WithError(err).WithField("purchase_id", id).Error("Purchase lookup failed")
			writeError(w, status, "purchase lookup failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// GetPurchase handles GET /api/purchases/{orderNumber}
func (h *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		writeError(w, http.StatusBadRequest, "missing order number")
		return
	}

	details, err := h.purchases.GetPurchase(orderNumber)
	if err != nil {
		status := statusForError(err)
		if status >= 500 {
			logrus.WithError(err).WithField("order_number", orderNumber).Error("Purchase lookup failed")
			writeError(w, status, "purchase lookup failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, details)
}
