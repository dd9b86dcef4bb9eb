package repositories

import (
	"database/sql"
	"fmt"

	"event-ticketing-core/internal/models"
)

// TicketRepository handles issued ticket lookups. Ticket creation happens
// inside the payment transaction in OrderRepository.MarkPaid.
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = "id, order_id, category_id, qr_code, status, created_at"

// GetByOrder retrieves all tickets issued for an order
func (r *TicketRepository) GetByOrder(orderID int) ([]*models.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE order_id = $1 ORDER BY id", ticketColumns)

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for order: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket := &models.Ticket{}
		err := rows.Scan(
			&ticket.ID,
			&ticket.OrderID,
			&ticket.CategoryID,
			&ticket.QRCode,
			&ticket.Status,
			&ticket.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}

// GetByQRCode retrieves a ticket by its redemption code
func (r *TicketRepository) GetByQRCode(qrCode string) (*models.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE qr_code = $1", ticketColumns)

	ticket := &models.Ticket{}
	err := r.db.QueryRow(query, qrCode).Scan(
		&ticket.ID,
		&ticket.OrderID,
		&ticket.CategoryID,
		&ticket.QRCode,
		&ticket.Status,
		&ticket.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ticket %s: %w", qrCode, models.ErrTicketNotFound)
		}
		return nil, fmt.Errorf("failed to get ticket by code: %w", err)
	}

	return ticket, nil
}

// CountByOrder returns the number of tickets issued for an order
func (r *TicketRepository) CountByOrder(orderID int) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tickets WHERE order_id = $1", orderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}
