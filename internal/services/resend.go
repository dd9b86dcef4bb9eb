package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ResendConfig represents Resend email service configuration
type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// ResendNotifier delivers issued tickets by email via the Resend API. The
// payload is deliberately minimal; rich HTML layout belongs to the
// rendering layer.
type ResendNotifier struct {
	config ResendConfig
	client *http.Client
}

// NewResendNotifier creates a new Resend ticket notifier
func NewResendNotifier(config ResendConfig) *ResendNotifier {
	return &ResendNotifier{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// resendEmailRequest represents the request structure for the Resend API
type resendEmailRequest struct {
	From    string      `json:"from"`
	To      []string    `json:"to"`
	Subject string      `json:"subject"`
	Text    string      `json:"text,omitempty"`
	Tags    []resendTag `json:"tags,omitempty"`
}

// resendTag represents a tag for email categorization
type resendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// resendEmailResponse represents the response from the Resend API
type resendEmailResponse struct {
	ID string `json:"id"`
}

// resendErrorResponse represents an error response from the Resend API
type resendErrorResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// getFromField constructs the from field properly
func (s *ResendNotifier) getFromField() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	return s.config.FromEmail
}

// SendTickets delivers the issued tickets to the buyer
func (s *ResendNotifier) SendTickets(delivery *TicketDelivery) error {
	var body strings.Builder

	fmt.Fprintf(&body, "Dear %s,\n\n", delivery.BuyerName)
	fmt.Fprintf(&body, "Your tickets for %s are ready.\n\n", delivery.EventName)
	fmt.Fprintf(&body, "Event date: %s\n", delivery.EventDate.Format("Jan 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&body, "Order number: %s\n", delivery.OrderNumber)
	fmt.Fprintf(&body, "Total: %.2f\n\n", float64(delivery.TotalAmount)/100)

	fmt.Fprintf(&body, "Your tickets (%d):\n\n", len(delivery.Tickets))
	for i, ticket := range delivery.Tickets {
		fmt.Fprintf(&body, "Ticket #%d\nCode: %s\n\n", i+1, ticket.QRCode)
	}

	body.WriteString("Bring your codes (printed or on your mobile device) to the event.\n")

	request := resendEmailRequest{
		From:    s.getFromField(),
		To:      []string{delivery.BuyerEmail},
		Subject: fmt.Sprintf("Your tickets for %s", delivery.EventName),
		Text:    body.String(),
		Tags: []resendTag{
			{Name: "category", Value: "ticket_delivery"},
			{Name: "order_number", Value: delivery.OrderNumber},
		},
	}

	return s.sendEmail(request)
}

// sendEmail sends an email via the Resend API
func (s *ResendNotifier) sendEmail(request resendEmailRequest) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorResp resendErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return fmt.Errorf("failed to send email, status: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to send email: %s", errorResp.Message)
	}

	var response resendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// TestConnection validates the configured API key
func (s *ResendNotifier) TestConnection() error {
	req, err := http.NewRequest("GET", "https://api.resend.com/domains", nil)
	if err != nil {
		return fmt.Errorf("failed to create test request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send test request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 {
		return fmt.Errorf("invalid API key")
	}

	return nil
}
