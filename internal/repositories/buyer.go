package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-ticketing-core/internal/models"
)

// BuyerRepository handles buyer lookups. Registered users are read-only;
// identity provisioning happens elsewhere. Unregistered buyers are created
// at purchase time.
type BuyerRepository struct {
	db *sql.DB
}

// NewBuyerRepository creates a new buyer repository
func NewBuyerRepository(db *sql.DB) *BuyerRepository {
	return &BuyerRepository{db: db}
}

// GetUserByID retrieves a registered user
func (r *BuyerRepository) GetUserByID(id int) (*models.User, error) {
	query := "SELECT id, email, full_name, created_at FROM users WHERE id = $1"

	user := &models.User{}
	err := r.db.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.FullName, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %d: %w", id, models.ErrBuyerNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// CreateUnregistered records a guest buyer for a purchase
func (r *BuyerRepository) CreateUnregistered(info *models.BuyerInfo) (*models.UnregisteredBuyer, error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidBuyer, err)
	}

	query := `
		INSERT INTO unregistered_buyers (email, full_name, document, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, full_name, document, created_at`

	buyer := &models.UnregisteredBuyer{}
	err := r.db.QueryRow(query, info.Email, info.FullName, info.Document, time.Now()).Scan(
		&buyer.ID,
		&buyer.Email,
		&buyer.FullName,
		&buyer.Document,
		&buyer.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create unregistered buyer: %w", err)
	}

	return buyer, nil
}

// GetUnregisteredByID retrieves a guest buyer record
func (r *BuyerRepository) GetUnregisteredByID(id int) (*models.UnregisteredBuyer, error) {
	query := "SELECT id, email, full_name, document, created_at FROM unregistered_buyers WHERE id = $1"

	buyer := &models.UnregisteredBuyer{}
	err := r.db.QueryRow(query, id).Scan(
		&buyer.ID,
		&buyer.Email,
		&buyer.FullName,
		&buyer.Document,
		&buyer.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("unregistered buyer %d: %w", id, models.ErrBuyerNotFound)
		}
		return nil, fmt.Errorf("failed to get unregistered buyer: %w", err)
	}

	return buyer, nil
}
