package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-ticketing-core/internal/models"
)

// EventRepository handles read-only event catalog lookups
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = "id, slug, name, location_name, location_city, status, start_datetime, end_datetime, created_at"

func scanEvent(row *sql.Row) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.Slug,
		&event.Name,
		&event.LocationName,
		&event.LocationCity,
		&event.Status,
		&event.StartDatetime,
		&event.EndDatetime,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(id int) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)

	event, err := scanEvent(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event %d: %w", id, models.ErrEventNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// GetBySlug retrieves an event by its URL slug
func (r *EventRepository) GetBySlug(slug string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE slug = $1", eventColumns)

	event, err := scanEvent(r.db.QueryRow(query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event %q: %w", slug, models.ErrEventNotFound)
		}
		return nil, fmt.Errorf("failed to get event by slug: %w", err)
	}

	return event, nil
}

// List retrieves events ordered by start date, soonest first
func (r *EventRepository) List(limit, offset int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events
		ORDER BY start_datetime ASC
		LIMIT $1 OFFSET $2`, eventColumns)

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		err := rows.Scan(
			&event.ID,
			&event.Slug,
			&event.Name,
			&event.LocationName,
			&event.LocationCity,
			&event.Status,
			&event.StartDatetime,
			&event.EndDatetime,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// GetActivePhase returns the sale phase whose window contains the given
// instant. Sale phase windows per event must not overlap, so at most one
// row matches.
func (r *EventRepository) GetActivePhase(eventID int, at time.Time) (*models.SalePhase, error) {
	query := `
		SELECT id, event_id, name, starts_at, ends_at
		FROM sale_phases
		WHERE event_id = $1 AND starts_at <= $2 AND ends_at > $2
		ORDER BY starts_at
		LIMIT 1`

	phase := &models.SalePhase{}
	err := r.db.QueryRow(query, eventID, at).Scan(
		&phase.ID,
		&phase.EventID,
		&phase.Name,
		&phase.StartsAt,
		&phase.EndsAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no active sale phase for event %d: %w", eventID, models.ErrEventNotPurchasable)
		}
		return nil, fmt.Errorf("failed to get active sale phase: %w", err)
	}

	return phase, nil
}

// GetCategoriesByPhase retrieves the ticket categories sold during a phase
func (r *EventRepository) GetCategoriesByPhase(phaseID int) ([]*models.TicketCategory, error) {
	query := `
		SELECT id, sale_phase_id, name, price, capacity, discount_type, discount_value
		FROM ticket_categories
		WHERE sale_phase_id = $1
		ORDER BY id`

	rows, err := r.db.Query(query, phaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.TicketCategory
	for rows.Next() {
		category := &models.TicketCategory{}
		err := rows.Scan(
			&category.ID,
			&category.SalePhaseID,
			&category.Name,
			&category.Price,
			&category.Capacity,
			&category.DiscountType,
			&category.DiscountValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByID retrieves a single ticket category
func (r *EventRepository) GetCategoryByID(id int) (*models.TicketCategory, error) {
	query := `
		SELECT id, sale_phase_id, name, price, capacity, discount_type, discount_value
		FROM ticket_categories
		WHERE id = $1`

	category := &models.TicketCategory{}
	err := r.db.QueryRow(query, id).Scan(
		&category.ID,
		&category.SalePhaseID,
		&category.Name,
		&category.Price,
		&category.Capacity,
		&category.DiscountType,
		&category.DiscountValue,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("category %d: %w", id, models.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}
