package database

import (
	"fmt"

	"github.com/voyagenest/booking-backend/internal/models"
)

// PaymentAuditRepository handles writes to the append-only payment_audits table
type PaymentAuditRepository struct {
	db DB
}

// NewPaymentAuditRepository creates a new PaymentAuditRepository
func NewPaymentAuditRepository(db DB) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db}
}

// Create appends an audit entry. The table has no update path.
func (r *PaymentAuditRepository) Create(audit *models.PaymentAudit) error {
	query := `
		INSERT INTO payment_audits (
			id, booking_id, payment_id, gateway_order_id, gateway_payment_id,
			event_type, event_source,
			expected_amount, received_amount, currency, amounts_match,
			error_message, ip_address, user_agent, device_info, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`

	_, err := r.db.Exec(
		query,
		audit.ID, audit.BookingID, audit.PaymentID,
		audit.GatewayOrderID, audit.GatewayPaymentID,
		audit.EventType, audit.EventSource,
		audit.ExpectedAmount, audit.ReceivedAmount, audit.Currency, audit.AmountsMatch,
		audit.ErrorMessage, audit.IPAddress, audit.UserAgent, audit.DeviceInfo,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment audit: %w", err)
	}

	return nil
}

// GetByBookingID lists audit entries for a booking, oldest first
func (r *PaymentAuditRepository) GetByBookingID(bookingID string) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, booking_id, payment_id, gateway_order_id, gateway_payment_id,
			   event_type, event_source,
			   expected_amount, received_amount, currency, amounts_match,
			   error_message, ip_address, user_agent, device_info, created_at
		FROM payment_audits
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}
	defer rows.Close()

	audits := []models.PaymentAudit{}
	for rows.Next() {
		audit := models.PaymentAudit{}
		err := rows.Scan(
			&audit.ID, &audit.BookingID, &audit.PaymentID,
			&audit.GatewayOrderID, &audit.GatewayPaymentID,
			&audit.EventType, &audit.EventSource,
			&audit.ExpectedAmount, &audit.ReceivedAmount, &audit.Currency, &audit.AmountsMatch,
			&audit.ErrorMessage, &audit.IPAddress, &audit.UserAgent, &audit.DeviceInfo,
			&audit.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment audit: %w", err)
		}
		audits = append(audits, audit)
	}

	return audits, rows.Err()
}
