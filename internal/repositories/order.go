package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-ticketing-core/internal/models"
)

// OrderRepository handles order data operations. Status transitions out of
// pending are expressed as guarded single-transaction updates so duplicate
// webhook deliveries and concurrent handlers cannot double-apply them.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderItemInput represents a line item to persist on order creation
type OrderItemInput struct {
	CategoryID int
	Quantity   int
	UnitPrice  int
}

// TicketSeed represents a ticket to mint when an order transitions to paid
type TicketSeed struct {
	CategoryID int
	QRCode     string
}

const orderColumns = "id, event_id, user_id, unregistered_buyer_id, order_number, subtotal, service_fee, total_amount, status, payment_id, created_at, updated_at"

func scanOrder(scanner interface{ Scan(...interface{}) error }) (*models.Order, error) {
	order := &models.Order{}
	err := scanner.Scan(
		&order.ID,
		&order.EventID,
		&order.UserID,
		&order.UnregisteredBuyerID,
		&order.OrderNumber,
		&order.Subtotal,
		&order.ServiceFee,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create persists a pending order together with its line items in one
// transaction. Line items are stored with the unit price actually charged;
// purchased quantities are never inferred from totals afterwards.
func (r *OrderRepository) Create(eventID int, userID, buyerID *int, subtotal, serviceFee, total int, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order requires at least one line item", models.ErrInvalidLineItem)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Generate unique order number (retry if collision)
	orderNumber := models.GenerateOrderNumber()
	for i := 0; i < 5; i++ {
		var exists bool
		err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)", orderNumber).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check order number uniqueness: %w", err)
		}
		if !exists {
			break
		}
		orderNumber = models.GenerateOrderNumber()
	}

	now := time.Now()

	query := fmt.Sprintf(`
		INSERT INTO orders (event_id, user_id, unregistered_buyer_id, order_number, subtotal, service_fee, total_amount, status, payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', $9, $10)
		RETURNING %s`, orderColumns)

	order, err := scanOrder(tx.QueryRow(
		query,
		eventID,
		userID,
		buyerID,
		orderNumber,
		subtotal,
		serviceFee,
		total,
		models.OrderPending,
		now,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range items {
		_, err = tx.Exec(`
			INSERT INTO order_items (order_id, category_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`,
			order.ID, item.CategoryID, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	return order, nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(id int) (*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)

	order, err := scanOrder(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order %d: %w", id, models.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// GetByOrderNumber retrieves an order by its external reference
func (r *OrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE order_number = $1", orderColumns)

	order, err := scanOrder(r.db.QueryRow(query, orderNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order %s: %w", orderNumber, models.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order by number: %w", err)
	}

	return order, nil
}

// GetItems retrieves the persisted line items of an order
func (r *OrderRepository) GetItems(orderID int) ([]*models.OrderItem, error) {
	query := `
		SELECT id, order_id, category_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{}
		err := rows.Scan(&item.ID, &item.OrderID, &item.CategoryID, &item.Quantity, &item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// SetPaymentID stores the gateway transaction handle on the order
func (r *OrderRepository) SetPaymentID(orderID int, paymentID string) error {
	result, err := r.db.Exec(
		"UPDATE orders SET payment_id = $2, updated_at = $3 WHERE id = $1",
		orderID, paymentID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set payment id: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderNotFound)
	}

	return nil
}

// MarkPaid transitions a pending order to paid and mints its tickets in the
// same transaction. The pending-only guard on the update plus the
// no-tickets-exist check make the transition safe against concurrent
// duplicate notifications; held reservations are committed alongside so the
// hold converts into issued inventory without a gap.
func (r *OrderRepository) MarkPaid(orderID int, paymentID string, seeds []TicketSeed) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE orders
		SET status = $2, payment_id = $3, updated_at = $4
		WHERE id = $1 AND status = $5`,
		orderID, models.OrderPaid, paymentID, time.Now(), models.OrderPending)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderStateFinal)
	}

	// Double-issuance guard inside the transaction boundary
	var ticketCount int
	if err := tx.QueryRow("SELECT COUNT(*) FROM tickets WHERE order_id = $1", orderID).Scan(&ticketCount); err != nil {
		return fmt.Errorf("failed to count existing tickets: %w", err)
	}

	if ticketCount > 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrTicketsAlreadyIssued)
	}

	for _, seed := range seeds {
		_, err = tx.Exec(`
			INSERT INTO tickets (order_id, category_id, qr_code, status, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			orderID, seed.CategoryID, seed.QRCode, models.TicketActive, time.Now())
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
	}

	// Holds become issued inventory
	_, err = tx.Exec(
		"UPDATE reservations SET status = 'committed' WHERE order_id = $1 AND status = 'held'", orderID)
	if err != nil {
		return fmt.Errorf("failed to commit reservations: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order payment: %w", err)
	}

	return nil
}

// MarkFinal transitions a pending order to a terminal non-paid state. The
// pending-only guard rejects transitions out of terminal states.
func (r *OrderRepository) MarkFinal(orderID int, status models.OrderStatus) error {
	if status != models.OrderFailed && status != models.OrderRefunded {
		return fmt.Errorf("%w: %s is not a terminal non-paid status", models.ErrInvalidInput, status)
	}

	result, err := r.db.Exec(`
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`,
		orderID, status, time.Now(), models.OrderPending)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrOrderStateFinal)
	}

	return nil
}

// GetExpired retrieves pending orders older than the given TTL
func (r *OrderRepository) GetExpired(ttl time.Duration) ([]*models.Order, error) {
	cutoff := time.Now().Add(-ttl)

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC`, orderColumns)

	rows, err := r.db.Query(query, models.OrderPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expired order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired orders: %w", err)
	}

	return orders, nil
}
