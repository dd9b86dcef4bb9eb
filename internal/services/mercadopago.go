package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// MercadoPagoConfig represents MercadoPago payment service configuration
type MercadoPagoConfig struct {
	AccessToken     string
	Environment     string // "sandbox" or "production"
	NotificationURL string
	CallbackURL     string
}

// MercadoPagoService handles payments via the MercadoPago API
type MercadoPagoService struct {
	config  MercadoPagoConfig
	client  *http.Client
	baseURL string
}

// NewMercadoPagoService creates a new MercadoPago payment service
func NewMercadoPagoService(config MercadoPagoConfig) *MercadoPagoService {
	return &MercadoPagoService{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.mercadopago.com",
	}
}

// mpPreferenceItem represents one item line of a checkout preference
type mpPreferenceItem struct {
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// mpBackURLs represents the storefront return URLs per payment outcome
type mpBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// mpPreferenceRequest represents a checkout preference submission
type mpPreferenceRequest struct {
	Items             []mpPreferenceItem `json:"items"`
	Payer             mpPayer            `json:"payer"`
	BackURLs          mpBackURLs         `json:"back_urls"`
	AutoReturn        string             `json:"auto_return"`
	NotificationURL   string             `json:"notification_url"`
	ExternalReference string             `json:"external_reference"`
	Metadata          map[string]string  `json:"metadata,omitempty"`
}

type mpPayer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// mpPreferenceResponse represents the created preference
type mpPreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
	Message          string `json:"message,omitempty"`
}

// mpPaymentResponse represents a payment lookup result
type mpPaymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
	Message           string      `json:"message,omitempty"`
}

// CreateTransaction creates a checkout preference and returns the redirect
// URL for the buyer. Line items arrive already priced in minor units; the
// API expects main-unit floats.
func (s *MercadoPagoService) CreateTransaction(req *TransactionRequest) (*TransactionResult, error) {
	items := make([]mpPreferenceItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, mpPreferenceItem{
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: float64(item.UnitPrice) / 100,
		})
	}

	preference := mpPreferenceRequest{
		Items: items,
		Payer: mpPayer{
			Email: req.PayerEmail,
			Name:  req.PayerName,
		},
		BackURLs: mpBackURLs{
			Success: s.config.CallbackURL + "?status=success",
			Failure: s.config.CallbackURL + "?status=failure",
			Pending: s.config.CallbackURL + "?status=pending",
		},
		AutoReturn:        "approved",
		NotificationURL:   s.config.NotificationURL,
		ExternalReference: req.ExternalReference,
		Metadata: map[string]string{
			"order_number": req.ExternalReference,
		},
	}

	jsonData, err := json.Marshal(preference)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preference request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", s.baseURL+"/checkout/preferences", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create preference request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.config.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send preference request: %w", err)
	}
	defer resp.Body.Close()

	var preferenceResp mpPreferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&preferenceResp); err != nil {
		return nil, fmt.Errorf("failed to decode preference response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := preferenceResp.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("preference creation failed (status %d): %s", resp.StatusCode, msg)
	}

	if preferenceResp.ID == "" {
		return nil, fmt.Errorf("received empty preference id")
	}

	redirectURL := preferenceResp.InitPoint
	if s.config.Environment == "sandbox" && preferenceResp.SandboxInitPoint != "" {
		redirectURL = preferenceResp.SandboxInitPoint
	}

	return &TransactionResult{
		TransactionID: preferenceResp.ID,
		RedirectURL:   redirectURL,
	}, nil
}

// GetPayment re-fetches a payment from the provider. Webhook payloads are
// never trusted for status; this lookup is the source of truth.
func (s *MercadoPagoService) GetPayment(paymentID string) (*PaymentDetails, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", s.baseURL, paymentID)

	httpReq, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.config.AccessToken)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send payment request: %w", err)
	}
	defer resp.Body.Close()

	var paymentResp mpPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := paymentResp.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("payment lookup failed (status %d): %s", resp.StatusCode, msg)
	}

	return &PaymentDetails{
		PaymentID:         paymentResp.ID.String(),
		Status:            normalizeProviderStatus(paymentResp.Status),
		ExternalReference: paymentResp.ExternalReference,
		Amount:            int(math.Round(paymentResp.TransactionAmount * 100)),
	}, nil
}

// normalizeProviderStatus collapses the provider's extended status set onto
// the core vocabulary. Unknown values stay pending, which reconciliation
// treats as a no-op.
func normalizeProviderStatus(status string) string {
	switch status {
	case "approved":
		return PaymentApproved
	case "cancelled":
		return PaymentCancelled
	case "rejected":
		return PaymentRejected
	case "pending", "in_process", "authorized", "in_mediation":
		return PaymentPending
	default:
		return PaymentPending
	}
}

// TestConnection validates the configured credentials against the API
func (s *MercadoPagoService) TestConnection() error {
	httpReq, err := http.NewRequest("GET", s.baseURL+"/users/me", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.config.AccessToken)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach MercadoPago: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 {
		return fmt.Errorf("invalid access token")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}
