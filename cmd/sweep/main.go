package main

import (
	"time"

	"github.com/sirupsen/logrus"

	"event-ticketing-core/internal/config"
	"event-ticketing-core/internal/database"
	"event-ticketing-core/internal/repositories"
	"event-ticketing-core/internal/worker"
)

// One-shot expiry sweep for cron-style deployments where the in-process
// sweeper is disabled.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

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

	sweeper := worker.NewExpirySweeper(
		repositories.NewInventoryRepository(db.DB),
		repositories.NewOrderRepository(db.DB),
		time.Duration(cfg.Purchase.ReservationTTL)*time.Minute,
		time.Duration(cfg.Purchase.SweepInterval)*time.Minute,
	)
	sweeper.RunOnce()
}
