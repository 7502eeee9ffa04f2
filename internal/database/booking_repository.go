package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/voyagenest/booking-backend/internal/models"
)

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, user_id, booking_reference, package_id, status, payment_status,
	   destination, travel_start_date, travel_end_date, travelers,
	   total_amount, paid_amount, currency,
	   contact_name, contact_email, contact_phone, special_requests,
	   booking_data, cancelled_at, created_at, updated_at`

// Create inserts a new booking. The Queryer lets the payment flow run this
// inside the same transaction as the payment insert.
func (r *BookingRepository) Create(q Queryer, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, user_id, booking_reference, package_id, status, payment_status,
			destination, travel_start_date, travel_end_date, travelers,
			total_amount, paid_amount, currency,
			contact_name, contact_email, contact_phone, special_requests, booking_data
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := q.QueryRow(
		query,
		booking.ID, booking.UserID, booking.BookingReference, booking.PackageID,
		booking.Status, booking.PaymentStatus,
		booking.Destination, booking.TravelStartDate, booking.TravelEndDate, booking.Travelers,
		booking.TotalAmount, booking.PaidAmount, booking.Currency,
		booking.ContactName, booking.ContactEmail, booking.ContactPhone,
		booking.SpecialRequests, booking.BookingData,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID, nil if not found
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	return r.scanBooking(r.db.QueryRow(query, bookingID))
}

// GetByReference retrieves a booking by its human-readable reference
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE booking_reference = $1`, bookingColumns)
	return r.scanBooking(r.db.QueryRow(query, reference))
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *BookingRepository) GetByUserID(userID string) ([]models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, bookingColumns)

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ConfirmPaid flips a pending booking to confirmed/paid and records the paid
// amount in major units. The WHERE guard keeps the transition one-way: a
// cancelled or already-confirmed booking is never touched.
func (r *BookingRepository) ConfirmPaid(q Queryer, bookingID string, paidAmount float64) error {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_status = 'paid', paid_amount = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := q.Exec(query, bookingID, paidAmount)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not pending")
	}

	return nil
}

// Cancel cancels a pending booking
func (r *BookingRepository) Cancel(bookingID string) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking cannot be cancelled")
	}

	return nil
}

// UpdateContactInfo edits the free-form contact block on a booking
func (r *BookingRepository) UpdateContactInfo(bookingID string, req *models.UpdateBookingContactRequest) error {
	query := `
		UPDATE bookings
		SET contact_name = COALESCE($2, contact_name),
			contact_email = COALESCE($3, contact_email),
			contact_phone = COALESCE($4, contact_phone),
			special_requests = COALESCE($5, special_requests),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, bookingID, req.ContactName, req.ContactEmail, req.ContactPhone, req.SpecialRequests)
	if err != nil {
		return fmt.Errorf("failed to update contact info: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// GetPaidMismatches finds bookings still pending although a payment attempt
// has already been marked paid. These are the crash-window leftovers the
// reconciliation job repairs.
func (r *BookingRepository) GetPaidMismatches() ([]models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings b
		WHERE b.status = 'pending'
		  AND EXISTS (
			SELECT 1 FROM payments p
			WHERE p.booking_id = b.id AND p.status = 'paid'
		  )
	`, prefixColumns("b", bookingColumns))

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to find mismatched bookings: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// prefixColumns qualifies a comma-separated column list with a table alias
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i := range parts {
		parts[i] = alias + "." + strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.BookingReference, &booking.PackageID,
		&booking.Status, &booking.PaymentStatus,
		&booking.Destination, &booking.TravelStartDate, &booking.TravelEndDate, &booking.Travelers,
		&booking.TotalAmount, &booking.PaidAmount, &booking.Currency,
		&booking.ContactName, &booking.ContactEmail, &booking.ContactPhone, &booking.SpecialRequests,
		&booking.BookingData, &booking.CancelledAt, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := []models.Booking{}
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}
