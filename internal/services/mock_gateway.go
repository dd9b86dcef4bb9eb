package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MockGatewayService simulates the payment provider for development
// environments without MercadoPago credentials. Created transactions start
// pending; tests and dev tooling flip them with SetPaymentStatus.
type MockGatewayService struct {
	mu       sync.Mutex
	payments map[string]*PaymentDetails
}

// NewMockGatewayService creates a new mock gateway
func NewMockGatewayService() *MockGatewayService {
	logrus.Info("Payment gateway: using mock (no MercadoPago credentials provided)")

	return &MockGatewayService{
		payments: make(map[string]*PaymentDetails),
	}
}

// CreateTransaction simulates creating a checkout transaction
func (s *MockGatewayService) CreateTransaction(req *TransactionRequest) (*TransactionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transactionID := fmt.Sprintf("mock_pay_%d", time.Now().UnixNano())

	s.payments[transactionID] = &PaymentDetails{
		PaymentID:         transactionID,
		Status:            PaymentPending,
		ExternalReference: req.ExternalReference,
		Amount:            req.TotalAmount,
	}

	logrus.Infof("Mock gateway: created transaction %s for order %s (%.2f)",
		transactionID, req.ExternalReference, float64(req.TotalAmount)/100)

	return &TransactionResult{
		TransactionID: transactionID,
		RedirectURL:   fmt.Sprintf("http://localhost:8080/mock-checkout/%s", transactionID),
	}, nil
}

// GetPayment returns the simulated payment state
func (s *MockGatewayService) GetPayment(paymentID string) (*PaymentDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[paymentID]
	if !exists {
		return nil, fmt.Errorf("mock gateway: payment %s not found", paymentID)
	}

	return payment, nil
}

// SetPaymentStatus flips a simulated payment into the given provider status
func (s *MockGatewayService) SetPaymentStatus(paymentID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[paymentID]
	if !exists {
		return fmt.Errorf("mock gateway: payment %s not found", paymentID)
	}

	payment.Status = status
	return nil
}
