package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a single trip reservation
type Booking struct {
	ID               string        `json:"id" db:"id"`
	UserID           string        `json:"user_id" db:"user_id"`
	BookingReference string        `json:"booking_reference" db:"booking_reference"`
	PackageID        *string       `json:"package_id,omitempty" db:"package_id"`
	Status           BookingStatus `json:"status" db:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	Destination      string        `json:"destination" db:"destination"`
	TravelStartDate  time.Time     `json:"travel_start_date" db:"travel_start_date"`
	TravelEndDate    time.Time     `json:"travel_end_date" db:"travel_end_date"`
	Travelers        int           `json:"travelers" db:"travelers"`
	TotalAmount      float64       `json:"total_amount" db:"total_amount"`
	PaidAmount       float64       `json:"paid_amount" db:"paid_amount"`
	Currency         string        `json:"currency" db:"currency"`
	ContactName      *string       `json:"contact_name,omitempty" db:"contact_name"`
	ContactEmail     *string       `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone     *string       `json:"contact_phone,omitempty" db:"contact_phone"`
	SpecialRequests  *string       `json:"special_requests,omitempty" db:"special_requests"`
	BookingData      JSONB         `json:"booking_data,omitempty" db:"booking_data"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// CanBeCancelled checks if the booking can still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == BookingStatusPending
}

// Confirm marks the booking confirmed and paid. Bookings only move forward:
// pending -> confirmed, never back.
func (b *Booking) Confirm(paidAmount float64) error {
	if b.Status == BookingStatusCancelled {
		return errors.New("cancelled booking cannot be confirmed")
	}
	if b.Status == BookingStatusConfirmed {
		return errors.New("booking already confirmed")
	}
	if paidAmount > b.TotalAmount {
		return fmt.Errorf("paid amount %.2f exceeds total amount %.2f", paidAmount, b.TotalAmount)
	}

	now := time.Now()
	b.Status = BookingStatusConfirmed
	b.PaymentStatus = PaymentStatusPaid
	b.PaidAmount = paidAmount
	b.UpdatedAt = now
	return nil
}

// Cancel cancels the booking
func (b *Booking) Cancel() error {
	if !b.CanBeCancelled() {
		return errors.New("booking cannot be cancelled")
	}

	now := time.Now()
	b.Status = BookingStatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReferencePrefix starts every booking reference
const ReferencePrefix = "VNP-"

// GenerateBookingReference builds a human-shareable reference of the form
// VNP-<epochMillis>-<6 random base36 chars>.
func GenerateBookingReference() (string, error) {
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking reference: %w", err)
		}
		sb.WriteByte(referenceAlphabet[n.Int64()])
	}

	return fmt.Sprintf("%s%d-%s", ReferencePrefix, time.Now().UnixMilli(), sb.String()), nil
}

// CreateOrderRequest represents the request to create a payment order with a
// pending booking. Amount is in the gateway's minor currency unit (paise).
type CreateOrderRequest struct {
	PackageID       *string      `json:"package_id,omitempty"`
	ItineraryID     *string      `json:"itinerary_id,omitempty"`
	Amount          int64        `json:"amount" binding:"required"`
	Currency        string       `json:"currency"`
	Destination     string       `json:"destination" binding:"required"`
	TravelStartDate string       `json:"travel_start_date" binding:"required"`
	TravelEndDate   string       `json:"travel_end_date" binding:"required"`
	Travelers       int          `json:"travelers" binding:"required,min=1"`
	ContactInfo     *ContactInfo `json:"contact_info,omitempty"`
	BookingData     JSONB        `json:"booking_data,omitempty"`
	SpecialRequests *string      `json:"special_requests,omitempty"`
}

// ContactInfo is the free-form traveller contact block on a booking
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate validates the create order request
func (r *CreateOrderRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if strings.TrimSpace(r.Destination) == "" {
		return errors.New("destination is required")
	}
	if r.Travelers < 1 {
		return errors.New("at least one traveler is required")
	}

	start, err := time.Parse("2006-01-02", r.TravelStartDate)
	if err != nil {
		return fmt.Errorf("invalid travel_start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", r.TravelEndDate)
	if err != nil {
		return fmt.Errorf("invalid travel_end_date: %w", err)
	}
	if end.Before(start) {
		return errors.New("travel_end_date must not be before travel_start_date")
	}

	return nil
}

// UpdateBookingContactRequest represents a contact info edit on a booking
type UpdateBookingContactRequest struct {
	ContactName     *string `json:"contact_name,omitempty"`
	ContactEmail    *string `json:"contact_email,omitempty"`
	ContactPhone    *string `json:"contact_phone,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}
