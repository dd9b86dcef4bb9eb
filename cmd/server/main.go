package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"event-ticketing-core/internal/config"
	"event-ticketing-core/internal/database"
	"event-ticketing-core/internal/handlers"
	"event-ticketing-core/internal/pricing"
	"event-ticketing-core/internal/repositories"
	"event-ticketing-core/internal/services"
	"event-ticketing-core/internal/worker"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Initialize database connection
	db, err := database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logrus.Info("Database connection established")

	if err := db.RunMigrations(); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	eventRepo := repositories.NewEventRepository(db.DB)
	inventoryRepo := repositories.NewInventoryRepository(db.DB)
	orderRepo := repositories.NewOrderRepository(db.DB)
	ticketRepo := repositories.NewTicketRepository(db.DB)
	buyerRepo := repositories.NewBuyerRepository(db.DB)

	// Initialize payment gateway, falling back to the mock in development
	var gateway services.PaymentGateway
	if cfg.MercadoPago.AccessToken != "" {
		mpService := services.NewMercadoPagoService(services.MercadoPagoConfig{
			AccessToken:     cfg.MercadoPago.AccessToken,
			Environment:     cfg.MercadoPago.Environment,
			NotificationURL: cfg.MercadoPago.NotificationURL,
			CallbackURL:     cfg.MercadoPago.CallbackURL,
		})
		if err := mpService.TestConnection(); err != nil {
			logrus.Warnf("MercadoPago connection test failed: %v", err)
		}
		gateway = mpService
	} else {
		logrus.Warn("No MercadoPago access token configured, using mock gateway")
		gateway = services.NewMockGatewayService()
	}

	notifier := services.NewResendNotifier(services.ResendConfig{
		APIKey:    cfg.Resend.APIKey,
		FromEmail: cfg.Resend.FromEmail,
		FromName:  cfg.Resend.FromName,
	})

	// Initialize services
	engine := pricing.NewEngine(cfg.Purchase.ServiceFeePercent)
	purchaseService := services.NewPurchaseService(
		eventRepo, inventoryRepo, orderRepo, ticketRepo, buyerRepo, gateway, engine,
		cfg.Purchase.ReservationTTL, cfg.Purchase.MaxTicketsPerPurchase,
	)
	fulfillmentService := services.NewFulfillmentService(orderRepo, ticketRepo, eventRepo, buyerRepo, notifier)
	reconciliationService := services.NewReconciliationService(orderRepo, inventoryRepo, gateway, fulfillmentService)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(eventRepo, inventoryRepo)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	webhookHandler := handlers.NewWebhookHandler(reconciliationService)
	paymentHandler := handlers.NewPaymentHandler(handlers.StorefrontURLs{
		SuccessURL: cfg.Storefront.SuccessURL,
		FailureURL: cfg.Storefront.FailureURL,
		PendingURL: cfg.Storefront.PendingURL,
	})
	healthHandler := handlers.NewHealthHandler(db)

	// Start the expiry sweeper
	sweeper := worker.NewExpirySweeper(
		inventoryRepo, orderRepo,
		time.Duration(cfg.Purchase.ReservationTTL)*time.Minute,
		time.Duration(cfg.Purchase.SweepInterval)*time.Minute,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Start(ctx)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", eventHandler.ListEvents)
		r.Get("/events/{slug}", eventHandler.GetEvent)
		r.Post("/purchases", purchaseHandler.CreatePurchase)
		r.Get("/purchases", purchaseHandler.GetPurchaseByID)
		r.Get("/purchases/{orderNumber}", purchaseHandler.GetPurchase)
	})

	r.Post("/webhooks/payments", webhookHandler.PaymentWebhook)
	r.Get("/payment/callback", paymentHandler.PaymentCallback)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logrus.Infof("Server starting on http://%s", addr)
	logrus.Fatal(http.ListenAndServe(addr, r))
}
