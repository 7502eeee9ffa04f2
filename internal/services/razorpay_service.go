package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/config"
)

// RazorpayService handles payment gateway integration with the Razorpay
// Orders/Payments API. The key secret never leaves the server: it authorizes
// API calls and verifies checkout signatures.
type RazorpayService struct {
	config  *config.RazorpayConfig
	logger  *logrus.Logger
	client  *http.Client
	baseURL string
}

// RazorpayOrderRequest represents the order-creation payload
type RazorpayOrderRequest struct {
	Amount   int64             `json:"amount"` // minor currency unit (paise)
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RazorpayOrder represents a gateway-side order record
type RazorpayOrder struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"` // created, attempted, paid
	CreatedAt  int64  `json:"created_at"`
}

// RazorpayPayment represents a gateway-side payment record
type RazorpayPayment struct {
	ID          string `json:"id"`
	Entity      string `json:"entity"`
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"` // created, authorized, captured, refunded, failed
	Method      string `json:"method"`
	Bank        string `json:"bank,omitempty"`
	Wallet      string `json:"wallet,omitempty"`
	VPA         string `json:"vpa,omitempty"`
	Email       string `json:"email,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Captured    bool   `json:"captured"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

type razorpayPaymentList struct {
	Entity string            `json:"entity"`
	Count  int               `json:"count"`
	Items  []RazorpayPayment `json:"items"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewRazorpayService creates a new Razorpay payment service
func NewRazorpayService(cfg *config.RazorpayConfig, logger *logrus.Logger) *RazorpayService {
	return &RazorpayService{
		config:  cfg,
		logger:  logger,
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if gateway credentials are present
func (s *RazorpayService) IsConfigured() bool {
	return s.config.KeyID != "" && s.config.KeySecret != ""
}

// CreateOrder creates a remote order record ahead of checkout. Amount is in
// minor currency units. There is no retry: a gateway failure surfaces to the
// caller as-is.
func (s *RazorpayService) CreateOrder(amount int64, currency, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing key credentials")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}

	reqBody := &RazorpayOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	s.logger.WithFields(logrus.Fields{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}).Info("Creating Razorpay order")

	var order RazorpayOrder
	if err := s.do(http.MethodPost, "/v1/orders", reqBody, &order); err != nil {
		s.logger.WithError(err).Error("Failed to create Razorpay order")
		return nil, err
	}

	if order.ID == "" {
		return nil, fmt.Errorf("order creation failed: no order id returned")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Razorpay order created")

	return &order, nil
}

// FetchPayment fetches the authoritative payment record from the gateway.
// Used as a secondary source of truth after signature verification.
func (s *RazorpayService) FetchPayment(paymentID string) (*RazorpayPayment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	var payment RazorpayPayment
	if err := s.do(http.MethodGet, "/v1/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}

	return &payment, nil
}

// FetchOrderPayments lists all payment attempts the gateway has recorded
// against an order. Used by reconciliation, where no payment id is known yet.
func (s *RazorpayService) FetchOrderPayments(orderID string) ([]RazorpayPayment, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	var list razorpayPaymentList
	if err := s.do(http.MethodGet, "/v1/orders/"+orderID+"/payments", nil, &list); err != nil {
		return nil, err
	}

	return list.Items, nil
}

// VerifySignature recomputes the checkout signature and compares it to the
// client-supplied one. The signature is HMAC-SHA256 over "orderId|paymentId"
// keyed with the key secret; only the gateway and this server can produce it,
// so a match proves the completion callback was not forged.
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.config.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// do executes an authenticated JSON request against the gateway
func (s *RazorpayService) do(method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var gatewayErr razorpayError
		if err := json.Unmarshal(respBytes, &gatewayErr); err == nil && gatewayErr.Error.Description != "" {
			return fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, gatewayErr.Error.Description)
		}
		return fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBytes, respBody); err != nil {
		s.logger.WithFields(logrus.Fields{
			"body":  string(respBytes),
			"error": err.Error(),
		}).Error("Failed to parse gateway response")
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
