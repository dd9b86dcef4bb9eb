package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Purchase    PurchaseConfig
	MercadoPago MercadoPagoConfig
	Resend      ResendConfig
	Storefront  StorefrontConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type PurchaseConfig struct {
	ServiceFeePercent     int
	ReservationTTL        int // minutes
	SweepInterval         int // minutes
	MaxTicketsPerPurchase int
}

type MercadoPagoConfig struct {
	AccessToken     string
	Environment     string
	NotificationURL string
	CallbackURL     string
}

type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// StorefrontConfig holds the redirect targets of the rendering layer. The
// pages themselves are out of scope; the core only redirects to them after
// a payment callback.
type StorefrontConfig struct {
	SuccessURL string
	FailureURL string
	PendingURL string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Database: parseDatabaseConfig(),
		Purchase: PurchaseConfig{
			ServiceFeePercent:     getEnvAsInt("SERVICE_FEE_PERCENT", 10),
			ReservationTTL:        getEnvAsInt("RESERVATION_TTL_MINUTES", 15),
			SweepInterval:         getEnvAsInt("SWEEP_INTERVAL_MINUTES", 5),
			MaxTicketsPerPurchase: getEnvAsInt("MAX_TICKETS_PER_PURCHASE", 10),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:     getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			Environment:     getEnv("MERCADOPAGO_ENVIRONMENT", "sandbox"),
			NotificationURL: getEnv("MERCADOPAGO_NOTIFICATION_URL", "http://localhost:8080/webhooks/payments"),
			CallbackURL:     getEnv("MERCADOPAGO_CALLBACK_URL", "http://localhost:8080/payment/callback"),
		},
		Resend: ResendConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("RESEND_FROM_EMAIL", "tickets@eventtickets.com"),
			FromName:  getEnv("RESEND_FROM_NAME", "Event Tickets"),
		},
		Storefront: StorefrontConfig{
			SuccessURL: getEnv("STOREFRONT_SUCCESS_URL", "http://localhost:3000/purchase/success"),
			FailureURL: getEnv("STOREFRONT_FAILURE_URL", "http://localhost:3000/purchase/failure"),
			PendingURL: getEnv("STOREFRONT_PENDING_URL", "http://localhost:3000/purchase/pending"),
		},
	}

	return config, nil
}

func parseDatabaseConfig() DatabaseConfig {
	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		return parseDatabaseURL(databaseURL)
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "event_ticketing"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432 // Default PostgreSQL port
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	// Remove leading slash from path to get database name
	config.DBName = strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	config.SSLMode = query.Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
