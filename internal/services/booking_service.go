package services

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/models"
)

var (
	// ErrBookingNotFound indicates no booking exists for the id
	ErrBookingNotFound = errors.New("booking not found")

	// ErrBookingNotCancellable indicates the booking is not pending
	ErrBookingNotCancellable = errors.New("only pending bookings can be cancelled")
)

// BookingService handles booking reads and user-initiated edits. Status
// transitions driven by payments live in PaymentService.
type BookingService struct {
	bookingRepo *database.BookingRepository
	paymentRepo *database.PaymentRepository
	auditRepo   *database.PaymentAuditRepository
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	paymentRepo *database.PaymentRepository,
	auditRepo *database.PaymentAuditRepository,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		logger:      logger,
	}
}

// ListForUser returns all of a user's bookings, newest first
func (s *BookingService) ListForUser(userID string) ([]models.Booking, error) {
	return s.bookingRepo.GetByUserID(userID)
}

// GetForUser returns a booking the user owns. The id may be the booking id
// or the human-readable reference from the confirmation email. An existing
// booking owned by someone else reads as not found so ids can not be probed.
func (s *BookingService) GetForUser(userID, idOrReference string) (*models.Booking, error) {
	booking, err := s.lookup(idOrReference)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.UserID != userID {
		return nil, ErrBookingNotFound
	}

	return booking, nil
}

func (s *BookingService) lookup(idOrReference string) (*models.Booking, error) {
	if strings.HasPrefix(idOrReference, models.ReferencePrefix) {
		return s.bookingRepo.GetByReference(idOrReference)
	}
	return s.bookingRepo.GetByID(idOrReference)
}

// Cancel cancels a pending booking
func (s *BookingService) Cancel(userID, bookingID string) (*models.Booking, error) {
	booking, err := s.GetForUser(userID, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.CanBeCancelled() {
		return nil, ErrBookingNotCancellable
	}

	if err := s.bookingRepo.Cancel(booking.ID); err != nil {
		return nil, err
	}

	// reload for the timestamps the UPDATE set
	booking, err = s.bookingRepo.GetByID(booking.ID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
	}).Info("Booking cancelled")

	return booking, nil
}

// UpdateContact applies contact/special-request edits to an owned booking
func (s *BookingService) UpdateContact(userID, bookingID string, req *models.UpdateBookingContactRequest) (*models.Booking, error) {
	booking, err := s.GetForUser(userID, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.bookingRepo.UpdateContactInfo(booking.ID, req); err != nil {
		return nil, err
	}

	return s.bookingRepo.GetByID(booking.ID)
}

// PaymentHistory returns the audit trail for an owned booking
func (s *BookingService) PaymentHistory(userID, bookingID string) ([]models.PaymentAudit, error) {
	booking, err := s.GetForUser(userID, bookingID)
	if err != nil {
		return nil, err
	}

	return s.auditRepo.GetByBookingID(booking.ID)
}
