package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/models"
	"github.com/voyagenest/booking-backend/pkg/mailer"
)

var (
	// ErrPaymentNotFound indicates no payment exists for the gateway order id
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrNotBookingOwner indicates the session user does not own the booking
	ErrNotBookingOwner = errors.New("booking belongs to another user")

	// ErrInvalidSignature indicates the checkout signature failed verification
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrOrderRequestInvalid wraps create-order validation failures so the
	// handler can tell a bad request from an infrastructure failure
	ErrOrderRequestInvalid = errors.New("invalid order request")
)

const signatureFailureReason = "Invalid signature"

// PaymentService orchestrates order creation and payment verification.
// Booking and Payment writes that must land together run inside a single
// database transaction.
type PaymentService struct {
	db           database.DB
	bookingRepo  *database.BookingRepository
	paymentRepo  *database.PaymentRepository
	razorpay     *RazorpayService
	auditService *AuditService
	mail         mailer.Mailer
	currency     string
	logger       *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	db database.DB,
	bookingRepo *database.BookingRepository,
	paymentRepo *database.PaymentRepository,
	razorpay *RazorpayService,
	auditService *AuditService,
	mail mailer.Mailer,
	currency string,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		db:           db,
		bookingRepo:  bookingRepo,
		paymentRepo:  paymentRepo,
		razorpay:     razorpay,
		auditService: auditService,
		mail:         mail,
		currency:     currency,
		logger:       logger,
	}
}

// CreateOrderResult is returned to the client after order creation
type CreateOrderResult struct {
	Booking *models.Booking
	Payment *models.Payment
	Order   *RazorpayOrder
}

// VerifyResult is returned after successful verification
type VerifyResult struct {
	Booking *models.Booking
	Payment *models.Payment
}

// RequestMeta carries client metadata into audit entries
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// CreateOrder creates a gateway order and persists the pending booking plus
// the created payment attempt in one transaction. If the transaction fails
// the remote order is abandoned (no cancellation API is called); the
// reconciliation job only repairs the local side.
func (s *PaymentService) CreateOrder(userID string, req *models.CreateOrderRequest, idempotencyKey string, meta RequestMeta) (*CreateOrderResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderRequestInvalid, err)
	}

	// Replay: an idempotency key already seen returns the original result
	// instead of creating a duplicate gateway order.
	if idempotencyKey != "" {
		existing, err := s.paymentRepo.GetByIdempotencyKey(idempotencyKey, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			return s.replayOrder(existing)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	reference, err := models.GenerateBookingReference()
	if err != nil {
		return nil, err
	}

	order, err := s.razorpay.CreateOrder(req.Amount, currency, reference, map[string]string{
		"destination": req.Destination,
		"reference":   reference,
	})
	if err != nil {
		s.auditService.LogOrderFailed(reference, err, meta.IPAddress, meta.UserAgent)
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	start, _ := time.Parse("2006-01-02", req.TravelStartDate)
	end, _ := time.Parse("2006-01-02", req.TravelEndDate)

	booking := &models.Booking{
		UserID:           userID,
		BookingReference: reference,
		PackageID:        req.PackageID,
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.PaymentStatusPending,
		Destination:      req.Destination,
		TravelStartDate:  start,
		TravelEndDate:    end,
		Travelers:        req.Travelers,
		TotalAmount:      float64(req.Amount) / 100, // minor -> major units
		PaidAmount:       0,
		Currency:         currency,
		SpecialRequests:  req.SpecialRequests,
		BookingData:      req.BookingData,
	}
	if req.ContactInfo != nil {
		booking.ContactName = &req.ContactInfo.Name
		booking.ContactEmail = &req.ContactInfo.Email
		booking.ContactPhone = &req.ContactInfo.Phone
	}

	payment := &models.Payment{
		GatewayOrderID: order.ID,
		Amount:         req.Amount,
		Currency:       currency,
		Status:         models.PaymentStateCreated,
	}
	if idempotencyKey != "" {
		payment.IdempotencyKey = &idempotencyKey
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.bookingRepo.Create(tx, booking); err != nil {
		tx.Rollback()
		s.logger.WithError(err).WithField("gateway_order_id", order.ID).
			Error("Booking insert failed after gateway order creation; remote order abandoned")
		return nil, err
	}

	payment.BookingID = booking.ID
	if err := s.paymentRepo.Create(tx, payment); err != nil {
		tx.Rollback()
		s.logger.WithError(err).WithField("gateway_order_id", order.ID).
			Error("Payment insert failed after gateway order creation; remote order abandoned")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	s.auditService.LogOrderCreated(booking, payment, meta.IPAddress, meta.UserAgent)

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"gateway_order_id":  order.ID,
		"amount":            payment.Amount,
	}).Info("Order created")

	return &CreateOrderResult{Booking: booking, Payment: payment, Order: order}, nil
}

// replayOrder rebuilds the create-order response from an earlier attempt
func (s *PaymentService) replayOrder(payment *models.Payment) (*CreateOrderResult, error) {
	booking, err := s.bookingRepo.GetByID(payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking not found for payment %s", payment.ID)
	}

	order := &RazorpayOrder{
		ID:       payment.GatewayOrderID,
		Amount:   payment.Amount,
		Currency: payment.Currency,
		Receipt:  booking.BookingReference,
		Status:   "created",
	}

	return &CreateOrderResult{Booking: booking, Payment: payment, Order: order}, nil
}

// VerifyPayment validates a client-submitted payment confirmation and, on a
// valid signature, flips the payment to paid and the booking to confirmed in
// one transaction.
func (s *PaymentService) VerifyPayment(userID string, req *models.VerifyPaymentRequest, meta RequestMeta) (*VerifyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByOrderID(req.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	booking, err := s.bookingRepo.GetByID(payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrPaymentNotFound
	}

	// Ownership is the sole authorization gate. Checked before any mutation
	// so a foreign request can never alter state or learn booking details.
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}

	s.auditService.LogVerifyRequested(booking, payment, req.RazorpayPaymentID, meta.IPAddress, meta.UserAgent)

	// Duplicate confirmation of an already-paid attempt is answered
	// idempotently from stored state.
	if payment.Status == models.PaymentStatePaid {
		return &VerifyResult{Booking: booking, Payment: payment}, nil
	}
	if payment.Status == models.PaymentStateFailed {
		return nil, ErrInvalidSignature
	}

	if !s.razorpay.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if _, err := s.paymentRepo.MarkFailed(s.db, payment.ID, signatureFailureReason); err != nil {
			s.logger.WithError(err).Error("Failed to record signature failure")
		}
		s.auditService.LogSignatureFailed(booking, payment, req.RazorpayPaymentID, meta.IPAddress, meta.UserAgent)
		return nil, ErrInvalidSignature
	}

	// Secondary source of truth: fetch the authoritative record for method
	// and metadata. Informational only; the signature already proved
	// authenticity.
	var method *string
	metadata := models.JSONB{}
	if details, err := s.razorpay.FetchPayment(req.RazorpayPaymentID); err != nil {
		s.logger.WithError(err).Warn("Failed to fetch payment details from gateway")
	} else {
		if details.Method != "" {
			method = &details.Method
		}
		metadata["gateway_status"] = details.Status
		if details.Bank != "" {
			metadata["bank"] = details.Bank
		}
		if details.Wallet != "" {
			metadata["wallet"] = details.Wallet
		}
		if details.VPA != "" {
			metadata["vpa"] = details.VPA
		}
		if !s.auditService.CheckAmounts(booking, payment, details) {
			s.logger.WithFields(logrus.Fields{
				"payment_id": payment.ID,
				"expected":   payment.Amount,
				"received":   details.Amount,
			}).Warn("Gateway amount differs from local payment amount")
		}
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	updated, err := s.paymentRepo.MarkPaid(tx, payment.ID, req.RazorpayPaymentID, req.RazorpaySignature, method, metadata)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !updated {
		// A concurrent verification won the created->paid transition.
		// Replay the stored outcome instead of double-applying it.
		tx.Rollback()
		return s.replayVerification(req.RazorpayOrderID)
	}

	if err := s.bookingRepo.ConfirmPaid(tx, booking.ID, payment.AmountMajor()); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verification: %w", err)
	}

	// align the in-memory copies with what was committed
	_ = booking.Confirm(payment.AmountMajor())
	_ = payment.MarkPaid(req.RazorpayPaymentID, req.RazorpaySignature, method)
	payment.Metadata = metadata

	s.auditService.LogPaymentSuccess(booking, payment, meta.IPAddress, meta.UserAgent)
	s.sendConfirmationEmail(booking)

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"payment_id":        payment.ID,
		"paid_amount":       booking.PaidAmount,
	}).Info("Payment verified and booking confirmed")

	return &VerifyResult{Booking: booking, Payment: payment}, nil
}

// replayVerification reloads the outcome written by a concurrent winner
func (s *PaymentService) replayVerification(gatewayOrderID string) (*VerifyResult, error) {
	payment, err := s.paymentRepo.GetByOrderID(gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.Status != models.PaymentStatePaid {
		return nil, ErrInvalidSignature
	}

	booking, err := s.bookingRepo.GetByID(payment.BookingID)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{Booking: booking, Payment: payment}, nil
}

// sendConfirmationEmail is best effort: a mail failure never fails the
// verification that already committed.
func (s *PaymentService) sendConfirmationEmail(booking *models.Booking) {
	if booking.ContactEmail == nil || *booking.ContactEmail == "" {
		return
	}

	subject := fmt.Sprintf("Booking confirmed - %s", booking.BookingReference)
	body := fmt.Sprintf(
		"<h1>Your trip to %s is confirmed!</h1>"+
			"<p>Booking reference: <strong>%s</strong></p>"+
			"<p>Travel dates: %s to %s</p>"+
			"<p>Travelers: %d</p>"+
			"<p>Amount paid: %.2f %s</p>",
		booking.Destination, booking.BookingReference,
		booking.TravelStartDate.Format("02 Jan 2006"), booking.TravelEndDate.Format("02 Jan 2006"),
		booking.Travelers, booking.PaidAmount, booking.Currency,
	)

	if err := s.mail.Send(*booking.ContactEmail, subject, body); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).
			Warn("Failed to send booking confirmation email")
	}
}
