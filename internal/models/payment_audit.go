package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventOrderCreated     PaymentEventType = "order_created"
	PaymentEventOrderFailed      PaymentEventType = "order_creation_failed"
	PaymentEventVerifyRequested  PaymentEventType = "verification_requested"
	PaymentEventSignatureFailed  PaymentEventType = "signature_failed"
	PaymentEventSuccess          PaymentEventType = "payment_success"
	PaymentEventBookingConfirmed PaymentEventType = "booking_confirmed"
	PaymentEventReconciled       PaymentEventType = "reconciliation_repair"
	PaymentEventExpired          PaymentEventType = "payment_expired"
	PaymentEventError            PaymentEventType = "error"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend   PaymentEventSource = "backend"
	PaymentSourceGateway   PaymentEventSource = "gateway"
	PaymentSourceUser      PaymentEventSource = "user"
	PaymentSourceReconcile PaymentEventSource = "reconciliation"
)

// PaymentAudit is an immutable audit log entry for payment events
type PaymentAudit struct {
	ID               uuid.UUID `json:"id" db:"id"`
	BookingID        *string   `json:"booking_id,omitempty" db:"booking_id"`
	PaymentID        *string   `json:"payment_id,omitempty" db:"payment_id"`
	GatewayOrderID   *string   `json:"gateway_order_id,omitempty" db:"gateway_order_id"`
	GatewayPaymentID *string   `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`

	EventType   PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource PaymentEventSource `json:"event_source" db:"event_source"`

	ExpectedAmount *int64  `json:"expected_amount,omitempty" db:"expected_amount"` // minor units
	ReceivedAmount *int64  `json:"received_amount,omitempty" db:"received_amount"`
	Currency       *string `json:"currency,omitempty" db:"currency"`
	AmountsMatch   *bool   `json:"amounts_match,omitempty" db:"amounts_match"`

	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	IPAddress  *string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string `json:"user_agent,omitempty" db:"user_agent"`
	DeviceInfo JSONB   `json:"device_info,omitempty" db:"device_info"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   time.Now(),
	}
}

// SetBooking sets the booking id
func (pa *PaymentAudit) SetBooking(bookingID string) *PaymentAudit {
	pa.BookingID = &bookingID
	return pa
}

// SetPayment sets the local payment id
func (pa *PaymentAudit) SetPayment(paymentID string) *PaymentAudit {
	pa.PaymentID = &paymentID
	return pa
}

// SetGatewayIDs sets the gateway order and payment ids
func (pa *PaymentAudit) SetGatewayIDs(orderID, paymentID string) *PaymentAudit {
	if orderID != "" {
		pa.GatewayOrderID = &orderID
	}
	if paymentID != "" {
		pa.GatewayPaymentID = &paymentID
	}
	return pa
}

// SetAmounts records and verifies amounts, returning whether they match
func (pa *PaymentAudit) SetAmounts(expected, received int64, currency string) bool {
	pa.ExpectedAmount = &expected
	pa.ReceivedAmount = &received
	pa.Currency = &currency

	match := expected == received
	pa.AmountsMatch = &match
	return match
}

// SetError records error information
func (pa *PaymentAudit) SetError(message string) *PaymentAudit {
	pa.ErrorMessage = &message
	return pa
}

// SetClient records request metadata
func (pa *PaymentAudit) SetClient(ip, userAgent string) *PaymentAudit {
	if ip != "" {
		pa.IPAddress = &ip
	}
	if userAgent != "" {
		pa.UserAgent = &userAgent
	}
	return pa
}
