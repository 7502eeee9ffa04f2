package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagenest/booking-backend/internal/database"
)

func newBookingServiceForTest(t *testing.T) (*BookingService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, closeFn := newMockDB(t)
	service := NewBookingService(
		database.NewBookingRepository(db),
		database.NewPaymentRepository(db),
		database.NewPaymentAuditRepository(db),
		testLogger(),
	)

	return service, mock, closeFn
}

func TestGetForUser(t *testing.T) {
	t.Run("By ID", func(t *testing.T) {
		service, mock, closeFn := newBookingServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("booking-1").
			WillReturnRows(pendingBookingRow("booking-1", "user-1"))

		booking, err := service.GetForUser("user-1", "booking-1")
		require.NoError(t, err)
		assert.Equal(t, "booking-1", booking.ID)
	})

	t.Run("By Reference", func(t *testing.T) {
		service, mock, closeFn := newBookingServiceForTest(t)
		defer closeFn()

		// anything carrying the reference prefix is looked up by reference
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE booking_reference`).
			WithArgs("VNP-1724900000000-A1B2C3").
			WillReturnRows(pendingBookingRow("booking-1", "user-1"))

		booking, err := service.GetForUser("user-1", "VNP-1724900000000-A1B2C3")
		require.NoError(t, err)
		assert.Equal(t, "VNP-1724900000000-A1B2C3", booking.BookingReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Foreign Booking Reads As Not Found", func(t *testing.T) {
		service, mock, closeFn := newBookingServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("booking-1").
			WillReturnRows(pendingBookingRow("booking-1", "someone-else"))

		_, err := service.GetForUser("user-1", "booking-1")
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("Unknown Booking", func(t *testing.T) {
		service, mock, closeFn := newBookingServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("booking-missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := service.GetForUser("user-1", "booking-missing")
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("Pending Booking Cancels", func(t *testing.T) {
		service, mock, closeFn := newBookingServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("booking-1").
			WillReturnRows(pendingBookingRow("booking-1", "user-1"))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs("booking-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("booking-1").
			WillReturnRows(pendingBookingRow("booking-1", "user-1"))

		_, err := service.Cancel("user-1", "booking-1")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Foreign Booking Never Touched", func(t *testing.T) {
		service, mock, closeFn := newBookingServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs("booking-1").
			WillReturnRows(pendingBookingRow("booking-1", "someone-else"))

		_, err := service.Cancel("user-1", "booking-1")
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
