package repositories

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"event-ticketing-core/internal/database"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL and applies
// the embedded migrations. Integration tests are skipped when no test
// database is reachable.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Skipf("Failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Failed to ping test database: %v", err)
	}

	if err := (&database.DB{DB: db}).RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		cleanupTestData(t, db)
		db.Close()
	})

	return db
}

// cleanupTestData removes all rows in reverse dependency order
func cleanupTestData(t *testing.T, db *sql.DB) {
	tables := []string{
		"tickets", "reservations", "order_items", "orders",
		"unregistered_buyers", "users", "ticket_categories", "sale_phases", "events",
	}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Logf("Failed to clean table %s: %v", table, err)
		}
	}
}

// seedCategory inserts an on-sale event with an active phase and one category
// of the given capacity, returning the event and category ids.
func seedCategory(t *testing.T, db *sql.DB, capacity int) (eventID, categoryID int) {
	t.Helper()

	now := time.Now()
	err := db.QueryRow(`
		INSERT INTO events (slug, name, status, start_datetime, end_datetime)
		VALUES ($1, 'Test Event', 'on_sale', $2, $3)
		RETURNING id`,
		fmt.Sprintf("test-event-%d", now.UnixNano()),
		now.Add(30*24*time.Hour), now.Add(31*24*time.Hour)).Scan(&eventID)
	if err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}

	var phaseID int
	err = db.QueryRow(`
		INSERT INTO sale_phases (event_id, name, starts_at, ends_at)
		VALUES ($1, 'General sale', $2, $3)
		RETURNING id`,
		eventID, now.Add(-time.Hour), now.Add(24*time.Hour)).Scan(&phaseID)
	if err != nil {
		t.Fatalf("Failed to seed sale phase: %v", err)
	}

	err = db.QueryRow(`
		INSERT INTO ticket_categories (sale_phase_id, name, price, capacity)
		VALUES ($1, 'General', 20000, $2)
		RETURNING id`,
		phaseID, capacity).Scan(&categoryID)
	if err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}

	return eventID, categoryID
}

// seedUser inserts a registered buyer and returns its id
func seedUser(t *testing.T, db *sql.DB) int {
	t.Helper()

	var userID int
	err := db.QueryRow(`
		INSERT INTO users (email, full_name)
		VALUES ($1, 'Test Buyer')
		RETURNING id`,
		fmt.Sprintf("buyer-%d@example.com", time.Now().UnixNano())).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return userID
}
