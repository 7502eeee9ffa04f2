package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagenest/booking-backend/internal/models"
)

func TestBookingCreate(t *testing.T) {
	db, mock, closeFn := newMockDB(t)
	defer closeFn()

	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		booking := &models.Booking{
			UserID:           "user-1",
			BookingReference: "VNP-1724900000000-A1B2C3",
			Status:           models.BookingStatusPending,
			PaymentStatus:    models.PaymentStatusPending,
			Destination:      "Goa",
			TravelStartDate:  now,
			TravelEndDate:    now.AddDate(0, 0, 5),
			Travelers:        2,
			TotalAmount:      150.00,
			Currency:         "INR",
		}

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.Create(db, booking)
		require.NoError(t, err)
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, now, booking.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(db, &models.Booking{UserID: "user-1"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create booking")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingConfirmPaid(t *testing.T) {
	db, mock, closeFn := newMockDB(t)
	defer closeFn()

	repo := NewBookingRepository(db)

	t.Run("Pending Booking Confirmed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs("booking-1", 150.00).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ConfirmPaid(db, "booking-1", 150.00)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Pending", func(t *testing.T) {
		// guard matches no rows for cancelled or already-confirmed bookings
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs("booking-1", 150.00).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ConfirmPaid(db, "booking-1", 150.00)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "booking not pending")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingCancel(t *testing.T) {
	db, mock, closeFn := newMockDB(t)
	defer closeFn()

	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs("booking-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Cancel("booking-1")
		assert.NoError(t, err)
	})

	t.Run("Already Confirmed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs("booking-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Cancel("booking-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be cancelled")
	})
}

func TestBookingGetByID(t *testing.T) {
	db, mock, closeFn := newMockDB(t)
	defer closeFn()

	repo := NewBookingRepository(db)
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("booking-1").
			WillReturnRows(bookingRows().AddRow(
				"booking-1", "user-1", "VNP-1724900000000-A1B2C3", nil, "pending", "pending",
				"Goa", now, now.AddDate(0, 0, 5), 2,
				150.00, 0.0, "INR",
				nil, nil, nil, nil,
				nil, nil, now, now,
			))

		booking, err := repo.GetByID("booking-1")
		require.NoError(t, err)
		require.NotNil(t, booking)
		assert.Equal(t, "user-1", booking.UserID)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("missing").
			WillReturnRows(bookingRows())

		booking, err := repo.GetByID("missing")
		require.NoError(t, err)
		assert.Nil(t, booking)
	})
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "booking_reference", "package_id", "status", "payment_status",
		"destination", "travel_start_date", "travel_end_date", "travelers",
		"total_amount", "paid_amount", "currency",
		"contact_name", "contact_email", "contact_phone", "special_requests",
		"booking_data", "cancelled_at", "created_at", "updated_at",
	})
}
