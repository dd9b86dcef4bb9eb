package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"event-ticketing-core/internal/models"
)

// InventoryRepository is the inventory ledger. Sold counts are derived from
// issued tickets of paid orders plus unexpired held reservations; capacity
// itself is never mutated. All reservation math runs inside transactions so
// that concurrent purchases against the same category cannot jointly exceed
// capacity.
type InventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Availability reports how many tickets remain for a category
type Availability struct {
	Available bool `json:"available"`
	Remaining int  `json:"remaining"`
}

// remainingQuery computes capacity minus issued tickets of paid orders minus
// unexpired held reservations, in one statement so both counts see the same
// snapshot.
const remainingQuery = `
	SELECT c.capacity
		- (SELECT COUNT(*) FROM tickets t
			JOIN orders o ON o.id = t.order_id
			WHERE t.category_id = c.id AND o.status = 'paid')
		- (SELECT COALESCE(SUM(r.quantity), 0) FROM reservations r
			WHERE r.category_id = c.id AND r.status = 'held' AND r.expires_at > $2)
	FROM ticket_categories c
	WHERE c.id = $1`

// CheckAvailability returns whether the requested quantity can currently be
// reserved. The answer is advisory; Reserve re-checks under a row lock.
func (r *InventoryRepository) CheckAvailability(categoryID, quantity int) (*Availability, error) {
	var remaining int
	err := r.db.QueryRow(remainingQuery, categoryID, time.Now()).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("category %d: %w", categoryID, models.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	if remaining < 0 {
		remaining = 0
	}

	return &Availability{
		Available: remaining >= quantity,
		Remaining: remaining,
	}, nil
}

// Reserve places a provisional hold on quantity tickets of a category and
// returns the reservation token. It locks the category row, recomputes the
// remaining count under the lock, and inserts the hold in the same
// transaction, so two concurrent requests that would jointly exceed
// capacity cannot both succeed.
func (r *InventoryRepository) Reserve(categoryID, quantity int, ttl time.Duration) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Serialize reservations per category
	var capacity int
	err = tx.QueryRow("SELECT capacity FROM ticket_categories WHERE id = $1 FOR UPDATE", categoryID).Scan(&capacity)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("category %d: %w", categoryID, models.ErrCategoryNotFound)
		}
		return "", fmt.Errorf("failed to lock category: %w", err)
	}

	now := time.Now()

	var remaining int
	if err := tx.QueryRow(remainingQuery, categoryID, now).Scan(&remaining); err != nil {
		return "", fmt.Errorf("failed to compute remaining inventory: %w", err)
	}

	if remaining < quantity {
		return "", fmt.Errorf("category %d has %d remaining, requested %d: %w",
			categoryID, remaining, quantity, models.ErrInsufficientInventory)
	}

	token := uuid.New().String()
	_, err = tx.Exec(`
		INSERT INTO reservations (id, category_id, quantity, status, expires_at, created_at)
		VALUES ($1, $2, $3, 'held', $4, $5)`,
		token, categoryID, quantity, now.Add(ttl), now)
	if err != nil {
		return "", fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit reservation: %w", err)
	}

	return token, nil
}

// Release frees a single provisional hold by token
func (r *InventoryRepository) Release(token string) error {
	result, err := r.db.Exec(
		"UPDATE reservations SET status = 'released' WHERE id = $1 AND status = 'held'", token)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("reservation %s: %w", token, models.ErrReservationNotFound)
	}

	return nil
}

// AttachOrder binds freshly created holds to a persisted order so they can
// later be committed or released as a unit.
func (r *InventoryRepository) AttachOrder(tokens []string, orderID int) error {
	if len(tokens) == 0 {
		return nil
	}

	_, err := r.db.Exec(
		"UPDATE reservations SET order_id = $1 WHERE id = ANY($2) AND status = 'held'",
		orderID, pq.Array(tokens))
	if err != nil {
		return fmt.Errorf("failed to attach reservations to order %d: %w", orderID, err)
	}

	return nil
}

// ReleaseByOrder frees all holds still attached to an order. Used when a
// payment is rejected or a pending order expires.
func (r *InventoryRepository) ReleaseByOrder(orderID int) error {
	_, err := r.db.Exec(
		"UPDATE reservations SET status = 'released' WHERE order_id = $1 AND status = 'held'", orderID)
	if err != nil {
		return fmt.Errorf("failed to release reservations for order %d: %w", orderID, err)
	}

	return nil
}

// ReleaseExpired frees every hold whose window has lapsed and returns the
// number of released rows. Called by the expiry sweep.
func (r *InventoryRepository) ReleaseExpired() (int64, error) {
	result, err := r.db.Exec(
		"UPDATE reservations SET status = 'released' WHERE status = 'held' AND expires_at < $1", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to release expired reservations: %w", err)
	}

	released, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return released, nil
}
