package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voyagenest/booking-backend/internal/models"
)

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, gateway_order_id, gateway_payment_id, signature,
	   amount, currency, status, method, failure_reason, idempotency_key,
	   metadata, created_at, updated_at`

// Create inserts a new payment attempt. Runs on the caller's Queryer so the
// payment flow can group it with the booking insert in one transaction.
func (r *PaymentRepository) Create(q Queryer, payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, gateway_order_id, amount, currency, status,
			idempotency_key, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	err := q.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.GatewayOrderID,
		payment.Amount, payment.Currency, payment.Status,
		payment.IdempotencyKey, payment.Metadata,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByOrderID retrieves a payment by its gateway order id, nil if not found
func (r *PaymentRepository) GetByOrderID(gatewayOrderID string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE gateway_order_id = $1`, paymentColumns)
	return r.scanPayment(r.db.QueryRow(query, gatewayOrderID))
}

// GetByID retrieves a payment by id, nil if not found
func (r *PaymentRepository) GetByID(paymentID string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	return r.scanPayment(r.db.QueryRow(query, paymentID))
}

// GetByIdempotencyKey retrieves a user's payment created under an idempotency
// key, nil if none exists
func (r *PaymentRepository) GetByIdempotencyKey(key, userID string) (*models.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments p
		WHERE p.idempotency_key = $1
		  AND EXISTS (SELECT 1 FROM bookings b WHERE b.id = p.booking_id AND b.user_id = $2)
	`, prefixColumns("p", paymentColumns))

	return r.scanPayment(r.db.QueryRow(query, key, userID))
}

// MarkPaid transitions a payment created -> paid. The status guard in the
// WHERE clause makes the transition first-writer-wins: a concurrent duplicate
// verification sees zero rows and must replay the stored outcome.
func (r *PaymentRepository) MarkPaid(q Queryer, paymentID, gatewayPaymentID, signature string, method *string, metadata models.JSONB) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'paid', gateway_payment_id = $2, signature = $3,
			method = $4, metadata = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'created'
	`

	result, err := q.Exec(query, paymentID, gatewayPaymentID, signature, method, metadata)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// MarkFailed transitions a payment created -> failed with a reason
func (r *PaymentRepository) MarkFailed(q Queryer, paymentID, reason string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'failed', failure_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'created'
	`

	result, err := q.Exec(query, paymentID, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// GetStaleCreated lists payments still in created state older than the cutoff.
// Used by the reconciliation job.
func (r *PaymentRepository) GetStaleCreated(olderThan time.Time) ([]models.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE status = 'created' AND created_at < $1
		ORDER BY created_at
	`, paymentColumns)

	rows, err := r.db.Query(query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, rows.Err()
}

// GetPaidByBookingID returns the paid attempt for a booking, nil if none
func (r *PaymentRepository) GetPaidByBookingID(bookingID string) (*models.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE booking_id = $1 AND status = 'paid'
		ORDER BY updated_at DESC
		LIMIT 1
	`, paymentColumns)

	return r.scanPayment(r.db.QueryRow(query, bookingID))
}

func (r *PaymentRepository) scanPayment(row scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	err := row.Scan(
		&payment.ID, &payment.BookingID, &payment.GatewayOrderID,
		&payment.GatewayPaymentID, &payment.Signature,
		&payment.Amount, &payment.Currency, &payment.Status,
		&payment.Method, &payment.FailureReason, &payment.IdempotencyKey,
		&payment.Metadata, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	return payment, nil
}
