package models

import (
	"errors"
	"time"
)

// PaymentState represents the lifecycle state of a single payment attempt
type PaymentState string

const (
	PaymentStateCreated PaymentState = "created"
	PaymentStatePaid    PaymentState = "paid"
	PaymentStateFailed  PaymentState = "failed"
)

// Payment represents one payment attempt against a booking. A booking may
// accumulate several attempts; the gateway order id is unique per attempt and
// immutable once set.
type Payment struct {
	ID               string       `json:"id" db:"id"`
	BookingID        string       `json:"booking_id" db:"booking_id"`
	GatewayOrderID   string       `json:"gateway_order_id" db:"gateway_order_id"`
	GatewayPaymentID *string      `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`
	Signature        *string      `json:"-" db:"signature"`
	Amount           int64        `json:"amount" db:"amount"` // minor currency unit (paise)
	Currency         string       `json:"currency" db:"currency"`
	Status           PaymentState `json:"status" db:"status"`
	Method           *string      `json:"method,omitempty" db:"method"`
	FailureReason    *string      `json:"failure_reason,omitempty" db:"failure_reason"`
	IdempotencyKey   *string      `json:"-" db:"idempotency_key"`
	Metadata         JSONB        `json:"metadata,omitempty" db:"metadata"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// AmountMajor converts the minor-unit amount to the major currency unit
// (paise -> rupees).
func (p *Payment) AmountMajor() float64 {
	return float64(p.Amount) / 100
}

// IsTerminal reports whether the attempt has reached a final state
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatePaid || p.Status == PaymentStateFailed
}

// MarkPaid transitions the payment created -> paid. Terminal states never
// change again.
func (p *Payment) MarkPaid(gatewayPaymentID, signature string, method *string) error {
	if p.Status != PaymentStateCreated {
		return errors.New("payment is not in created state")
	}

	p.Status = PaymentStatePaid
	p.GatewayPaymentID = &gatewayPaymentID
	p.Signature = &signature
	p.Method = method
	p.UpdatedAt = time.Now()
	return nil
}

// MarkFailed transitions the payment created -> failed
func (p *Payment) MarkFailed(reason string) error {
	if p.Status != PaymentStateCreated {
		return errors.New("payment is not in created state")
	}

	p.Status = PaymentStateFailed
	p.FailureReason = &reason
	p.UpdatedAt = time.Now()
	return nil
}

// VerifyPaymentRequest is the client-submitted payment confirmation. All
// three fields come from the Razorpay checkout callback and are untrusted
// until the signature check passes.
type VerifyPaymentRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// Validate checks all required fields are present
func (r *VerifyPaymentRequest) Validate() error {
	if r.RazorpayPaymentID == "" || r.RazorpayOrderID == "" || r.RazorpaySignature == "" {
		return errors.New("razorpay_payment_id, razorpay_order_id and razorpay_signature are required")
	}
	return nil
}
