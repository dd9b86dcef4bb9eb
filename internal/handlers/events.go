package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/services"
)

// EventHandler handles public event catalog lookups
type EventHandler struct {
	events    services.EventRepository
	inventory services.InventoryRepository
}

// NewEventHandler creates a new event handler
func NewEventHandler(events services.EventRepository, inventory services.InventoryRepository) *EventHandler {
	return &EventHandler{events: events, inventory: inventory}
}

// categoryAvailability is one purchasable category with its live remaining
// count from the inventory ledger.
type categoryAvailability struct {
	*models.TicketCategory
	Remaining int  `json:"remaining"`
	SoldOut   bool `json:"sold_out"`
}

// eventDetails is the catalog view of one event: the event itself plus the
// currently active sale phase and its categories, when a phase is open.
type eventDetails struct {
	Event      *models.Event           `json:"event"`
	Phase      *models.SalePhase       `json:"active_phase,omitempty"`
	Categories []*categoryAvailability `json:"categories,omitempty"`
}

// ListEvents handles GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	events, err := h.events.List(limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Event listing failed")
		writeError(w, http.StatusInternalServerError, "event listing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// GetEvent handles GET /api/events/{slug}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	event, err := h.events.GetBySlug(slug)
	if err != nil {
		status := statusForError(err)
		if status >= 500 {
			logrus.WithError(err).WithField("slug", slug).Error("Event lookup failed")
			writeError(w, status, "event lookup failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	details := &eventDetails{Event: event}

	phase, err := h.events.GetActivePhase(event.ID, time.Now())
	switch {
	case errors.Is(err, models.ErrEventNotPurchasable):
		// No open sale window is a valid catalog state, not an error
	case err != nil:
		logrus.WithError(err).WithField("event_id", event.ID).Error("Active phase lookup failed")
		writeError(w, http.StatusInternalServerError, "event lookup failed")
		return
	default:
		details.Phase = phase
		categories, err := h.events.GetCategoriesByPhase(phase.ID)
		if err != nil {
			logrus.WithError(err).WithField("phase_id", phase.ID).Error("Category lookup failed")
			writeError(w, http.StatusInternalServerError, "event lookup failed")
			return
		}

		for _, category := range categories {
			availability, err := h.inventory.CheckAvailability(category.ID, 1)
			if err != nil {
				logrus.WithError(err).WithField("category_id", category.ID).Error("Availability check failed")
				writeError(w, http.StatusInternalServerError, "event lookup failed")
				return
			}
			details.Categories = append(details.Categories, &categoryAvailability{
				TicketCategory: category,
				Remaining:      availability.Remaining,
				SoldOut:        !availability.Available,
			})
		}
	}

	writeJSON(w, http.StatusOK, details)
}
