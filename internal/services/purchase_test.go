package services

import (
	"errors"
	"testing"
	"time"

	"event-ticketing-core/internal/models"
	"event-ticketing-core/internal/pricing"
)

type purchaseFixture struct {
	events    *mockEventRepository
	inventory *mockInventoryRepository
	orders    *mockOrderRepository
	tickets   *mockTicketRepository
	buyers    *mockBuyerRepository
	gateway   *mockPaymentGateway
	service   *PurchaseService
}

func newPurchaseFixture() *purchaseFixture {
	events := newMockEventRepository()
	inventory := newMockInventoryRepository()
	tickets := newMockTicketRepository()
	orders := newMockOrderRepository(tickets)
	buyers := newMockBuyerRepository()
	gateway := newMockPaymentGateway()

	now := time.Now()
	events.events[1] = &models.Event{
		ID:            1,
		Slug:          "summer-festival",
		Name:          "Summer Festival",
		Status:        models.EventOnSale,
		StartDatetime: now.Add(30 * 24 * time.Hour),
	}
	events.phases[1] = &models.SalePhase{
		ID:       10,
		EventID:  1,
		Name:     "General sale",
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(24 * time.Hour),
	}

	discount := models.DiscountPercentage
	discountValue := 10
	events.categories[10] = []*models.TicketCategory{
		{ID: 100, SalePhaseID: 10, Name: "General", Price: 20000, Capacity: 50},
		{ID: 101, SalePhaseID: 10, Name: "VIP", Price: 35000, Capacity: 10, DiscountType: &discount, DiscountValue: &discountValue},
	}
	inventory.remaining[100] = 50
	inventory.remaining[101] = 10

	buyers.users[7] = &models.User{ID: 7, Email: "alice@example.com", FullName: "Alice Smith"}

	service := NewPurchaseService(events, inventory, orders, tickets, buyers, gateway, pricing.NewEngine(10), 15, 10)
	return &purchaseFixture{
		events:    events,
		inventory: inventory,
		orders:    orders,
		tickets:   tickets,
		buyers:    buyers,
		gateway:   gateway,
		service:   service,
	}
}

func guestRequest() *models.PurchaseCreateRequest {
	return &models.PurchaseCreateRequest{
		EventID: 1,
		Buyer:   &models.BuyerInfo{Email: "bob@example.com", FullName: "Bob Jones"},
		Items:   []models.LineItemRequest{{CategoryID: 100, Quantity: 2}},
	}
}

func TestCreatePurchaseGuest(t *testing.T) {
	f := newPurchaseFixture()

	result, err := f.service.CreatePurchase(guestRequest())
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	if result.RedirectURL == "" {
		t.Error("Expected a redirect URL")
	}
	if result.Order.Status != models.OrderPending {
		t.Errorf("Expected pending order, got %s", result.Order.Status)
	}
	if result.Order.Subtotal != 40000 {
		t.Errorf("Expected subtotal 40000, got %d", result.Order.Subtotal)
	}
	if result.Order.ServiceFee != 4000 {
		t.Errorf("Expected service fee 4000, got %d", result.Order.ServiceFee)
	}
	if result.Order.TotalAmount != 44000 {
		t.Errorf("Expected total 44000, got %d", result.Order.TotalAmount)
	}
	if result.Order.UnregisteredBuyerID == nil {
		t.Error("Expected an unregistered buyer reference")
	}
	if result.Order.PaymentID == "" {
		t.Error("Expected the transaction reference to be stored")
	}

	if f.inventory.remaining[100] != 48 {
		t.Errorf("Expected 48 remaining after hold, got %d", f.inventory.remaining[100])
	}
	if f.inventory.heldCount() != 1 {
		t.Errorf("Expected 1 hold, got %d", f.inventory.heldCount())
	}
}

func TestCreatePurchaseRegisteredBuyer(t *testing.T) {
	f := newPurchaseFixture()

	result, err := f.service.CreatePurchase(&models.PurchaseCreateRequest{
		EventID: 1,
		UserID:  7,
		Items:   []models.LineItemRequest{{CategoryID: 101, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	if result.Order.UserID == nil || *result.Order.UserID != 7 {
		t.Error("Expected the registered buyer reference to be set")
	}
	// 10% off 35000 = 31500, plus 10% fee
	if result.Order.Subtotal != 31500 {
		t.Errorf("Expected discounted subtotal 31500, got %d", result.Order.Subtotal)
	}
	if result.Order.TotalAmount != 34650 {
		t.Errorf("Expected total 34650, got %d", result.Order.TotalAmount)
	}

	if len(f.gateway.created) != 1 {
		t.Fatalf("Expected 1 gateway transaction, got %d", len(f.gateway.created))
	}
	if f.gateway.created[0].PayerEmail != "alice@example.com" {
		t.Errorf("Expected payer email from user record, got %s", f.gateway.created[0].PayerEmail)
	}
	if f.gateway.created[0].TotalAmount != result.Order.TotalAmount {
		t.Error("Gateway total should match order total")
	}
}

func TestCreatePurchaseUnknownRegisteredBuyer(t *testing.T) {
	f := newPurchaseFixture()

	_, err := f.service.CreatePurchase(&models.PurchaseCreateRequest{
		EventID: 1,
		UserID:  999,
		Items:   []models.LineItemRequest{{CategoryID: 100, Quantity: 1}},
	})
	if !errors.Is(err, models.ErrBuyerNotFound) {
		t.Errorf("Expected ErrBuyerNotFound, got %v", err)
	}
	if f.inventory.heldCount() != 0 {
		t.Error("No holds should be placed for a rejected purchase")
	}
}

func TestCreatePurchaseEventNotPurchasable(t *testing.T) {
	f := newPurchaseFixture()
	f.events.events[1].Status = models.EventFinished

	_, err := f.service.CreatePurchase(guestRequest())
	if !errors.Is(err, models.ErrEventNotPurchasable) {
		t.Errorf("Expected ErrEventNotPurchasable, got %v", err)
	}
}

func TestCreatePurchaseNoActivePhase(t *testing.T) {
	f := newPurchaseFixture()
	f.events.phases[1].EndsAt = time.Now().Add(-time.Minute)

	_, err := f.service.CreatePurchase(guestRequest())
	if !errors.Is(err, models.ErrEventNotPurchasable) {
		t.Errorf("Expected ErrEventNotPurchasable, got %v", err)
	}
}

func TestCreatePurchaseCategoryOutsidePhase(t *testing.T) {
	f := newPurchaseFixture()

	req := guestRequest()
	req.Items = []models.LineItemRequest{{CategoryID: 555, Quantity: 1}}

	_, err := f.service.CreatePurchase(req)
	if !errors.Is(err, models.ErrInvalidLineItem) {
		t.Errorf("Expected ErrInvalidLineItem, got %v", err)
	}
}

func TestCreatePurchaseOverTicketLimit(t *testing.T) {
	f := newPurchaseFixture()

	req := guestRequest()
	req.Items = []models.LineItemRequest{{CategoryID: 100, Quantity: 11}}

	_, err := f.service.CreatePurchase(req)
	if !errors.Is(err, models.ErrInvalidLineItem) {
		t.Errorf("Expected ErrInvalidLineItem, got %v", err)
	}
}

func TestCreatePurchaseInsufficientInventory(t *testing.T) {
	f := newPurchaseFixture()
	f.inventory.remaining[100] = 1

	_, err := f.service.CreatePurchase(guestRequest())
	if !errors.Is(err, models.ErrInsufficientInventory) {
		t.Errorf("Expected ErrInsufficientInventory, got %v", err)
	}
	if f.inventory.remaining[100] != 1 {
		t.Errorf("Remaining inventory should be untouched, got %d", f.inventory.remaining[100])
	}
}

func TestCreatePurchasePartialReserveRollsBack(t *testing.T) {
	f := newPurchaseFixture()
	f.inventory.remaining[101] = 0

	req := guestRequest()
	req.Items = []models.LineItemRequest{
		{CategoryID: 100, Quantity: 2},
		{CategoryID: 101, Quantity: 1},
	}

	_, err := f.service.CreatePurchase(req)
	if !errors.Is(err, models.ErrInsufficientInventory) {
		t.Fatalf("Expected ErrInsufficientInventory, got %v", err)
	}

	if f.inventory.remaining[100] != 50 {
		t.Errorf("First hold should be released on rollback, remaining %d", f.inventory.remaining[100])
	}
	if f.inventory.heldCount() != 0 {
		t.Errorf("Expected no holds after rollback, got %d", f.inventory.heldCount())
	}
}

func TestCreatePurchaseGatewayFailure(t *testing.T) {
	f := newPurchaseFixture()
	f.gateway.shouldFailOps["CreateTransaction"] = true

	_, err := f.service.CreatePurchase(guestRequest())
	if !errors.Is(err, models.ErrPaymentGateway) {
		t.Fatalf("Expected ErrPaymentGateway, got %v", err)
	}

	// The order exists as a failed record and its holds are gone
	order, err := f.orders.GetByID(1)
	if err != nil {
		t.Fatalf("Expected the order to be persisted: %v", err)
	}
	if order.Status != models.OrderFailed {
		t.Errorf("Expected failed order, got %s", order.Status)
	}
	if f.inventory.heldCount() != 0 {
		t.Errorf("Expected holds released after gateway failure, got %d", f.inventory.heldCount())
	}
	if f.inventory.remaining[100] != 50 {
		t.Errorf("Expected inventory restored, got %d", f.inventory.remaining[100])
	}
}

func TestCreatePurchaseInvalidRequest(t *testing.T) {
	f := newPurchaseFixture()

	tests := []struct {
		name    string
		req     *models.PurchaseCreateRequest
		wantErr error
	}{
		{
			name:    "missing event",
			req:     &models.PurchaseCreateRequest{UserID: 7, Items: []models.LineItemRequest{{CategoryID: 100, Quantity: 1}}},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "no buyer",
			req:     &models.PurchaseCreateRequest{EventID: 1, Items: []models.LineItemRequest{{CategoryID: 100, Quantity: 1}}},
			wantErr: models.ErrInvalidBuyer,
		},
		{
			name: "both buyer kinds",
			req: &models.PurchaseCreateRequest{
				EventID: 1,
				UserID:  7,
				Buyer:   &models.BuyerInfo{Email: "bob@example.com", FullName: "Bob Jones"},
				Items:   []models.LineItemRequest{{CategoryID: 100, Quantity: 1}},
			},
			wantErr: models.ErrInvalidBuyer,
		},
		{
			name:    "no items",
			req:     &models.PurchaseCreateRequest{EventID: 1, UserID: 7},
			wantErr: models.ErrInvalidLineItem,
		},
		{
			name: "zero quantity",
			req: &models.PurchaseCreateRequest{
				EventID: 1,
				UserID:  7,
				Items:   []models.LineItemRequest{{CategoryID: 100, Quantity: 0}},
			},
			wantErr: models.ErrInvalidLineItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreatePurchase(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetPurchase(t *testing.T) {
	f := newPurchaseFixture()

	result, err := f.service.CreatePurchase(guestRequest())
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	details, err := f.service.GetPurchase(result.Order.OrderNumber)
	if err != nil {
		t.Fatalf("GetPurchase failed: %v", err)
	}

	if details.Order.ID != result.Order.ID {
		t.Error("Expected the created order")
	}
	if len(details.Items) != 1 {
		t.Fatalf("Expected 1 line item, got %d", len(details.Items))
	}
	if details.Items[0].Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", details.Items[0].Quantity)
	}
	if details.Tickets != nil {
		t.Error("Pending orders should carry no tickets")
	}
}

func TestGetPurchaseNotFound(t *testing.T) {
	f := newPurchaseFixture()

	_, err := f.service.GetPurchase("ORD-20260101-000000")
	if !errors.Is(err, models.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
}
