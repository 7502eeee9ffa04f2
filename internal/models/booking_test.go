package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingConfirm(t *testing.T) {
	t.Run("Pending Booking Confirms", func(t *testing.T) {
		booking := &Booking{Status: BookingStatusPending, PaymentStatus: PaymentStatusPending, TotalAmount: 150.00}

		err := booking.Confirm(150.00)
		require.NoError(t, err)
		assert.Equal(t, BookingStatusConfirmed, booking.Status)
		assert.Equal(t, PaymentStatusPaid, booking.PaymentStatus)
		assert.Equal(t, 150.00, booking.PaidAmount)
	})

	t.Run("Cancelled Booking Never Confirms", func(t *testing.T) {
		booking := &Booking{Status: BookingStatusCancelled, TotalAmount: 150.00}

		err := booking.Confirm(150.00)
		assert.Error(t, err)
		assert.Equal(t, BookingStatusCancelled, booking.Status)
	})

	t.Run("Double Confirm Rejected", func(t *testing.T) {
		booking := &Booking{Status: BookingStatusPending, TotalAmount: 150.00}
		require.NoError(t, booking.Confirm(150.00))

		err := booking.Confirm(150.00)
		assert.Error(t, err)
	})

	t.Run("Paid Amount Cannot Exceed Total", func(t *testing.T) {
		booking := &Booking{Status: BookingStatusPending, TotalAmount: 100.00}

		err := booking.Confirm(150.00)
		assert.Error(t, err)
		assert.Equal(t, BookingStatusPending, booking.Status)
	})
}

func TestBookingCancelModel(t *testing.T) {
	t.Run("Pending Cancels", func(t *testing.T) {
		booking := &Booking{Status: BookingStatusPending}

		err := booking.Cancel()
		require.NoError(t, err)
		assert.Equal(t, BookingStatusCancelled, booking.Status)
		assert.NotNil(t, booking.CancelledAt)
	})

	t.Run("Confirmed Never Cancels Backward", func(t *testing.T) {
		booking := &Booking{Status: BookingStatusConfirmed}

		err := booking.Cancel()
		assert.Error(t, err)
		assert.Equal(t, BookingStatusConfirmed, booking.Status)
	})
}

func TestGenerateBookingReference(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		ref, err := GenerateBookingReference()
		require.NoError(t, err)
		assert.Regexp(t, `^VNP-\d+-[A-Z0-9]{6}$`, ref)
		seen[ref] = true
	}

	assert.Greater(t, len(seen), 45)
}

func TestCreateOrderRequestValidate(t *testing.T) {
	valid := func() *CreateOrderRequest {
		return &CreateOrderRequest{
			Amount:          15000,
			Destination:     "Goa",
			TravelStartDate: "2026-10-01",
			TravelEndDate:   "2026-10-06",
			Travelers:       2,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("Non-Positive Amount", func(t *testing.T) {
		req := valid()
		req.Amount = 0
		assert.Error(t, req.Validate())
	})

	t.Run("Missing Destination", func(t *testing.T) {
		req := valid()
		req.Destination = "  "
		assert.Error(t, req.Validate())
	})

	t.Run("End Before Start", func(t *testing.T) {
		req := valid()
		req.TravelEndDate = "2026-09-30"
		assert.Error(t, req.Validate())
	})

	t.Run("Malformed Date", func(t *testing.T) {
		req := valid()
		req.TravelStartDate = "01/10/2026"
		assert.Error(t, req.Validate())
	})
}
