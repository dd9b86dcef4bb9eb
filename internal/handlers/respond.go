package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"event-ticketing-core/internal/models"
)

// errorResponse is the JSON error envelope returned by all API handlers
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusForError maps domain errors onto HTTP status codes. Unknown errors
// fall through to 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrCategoryNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrBuyerNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidBuyer),
		errors.Is(err, models.ErrInvalidLineItem):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrEventNotPurchasable):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientInventory):
		return http.StatusConflict
	case errors.Is(err, models.ErrOrderStateFinal),
		errors.Is(err, models.ErrTicketsAlreadyIssued):
		return http.StatusConflict
	case errors.Is(err, models.ErrPaymentGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
