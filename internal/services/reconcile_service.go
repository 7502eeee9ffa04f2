package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/models"
)

// ReconcileService repairs the two partial-failure windows left by the
// payment flow: payments stuck in created after the payment window has
// passed, and bookings still pending although a payment already went paid.
type ReconcileService struct {
	db             database.DB
	bookingRepo    *database.BookingRepository
	paymentRepo    *database.PaymentRepository
	razorpay       *RazorpayService
	auditService   *AuditService
	paymentTimeout time.Duration
	logger         *logrus.Logger
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	db database.DB,
	bookingRepo *database.BookingRepository,
	paymentRepo *database.PaymentRepository,
	razorpay *RazorpayService,
	auditService *AuditService,
	paymentTimeout time.Duration,
	logger *logrus.Logger,
) *ReconcileService {
	return &ReconcileService{
		db:             db,
		bookingRepo:    bookingRepo,
		paymentRepo:    paymentRepo,
		razorpay:       razorpay,
		auditService:   auditService,
		paymentTimeout: paymentTimeout,
		logger:         logger,
	}
}

// ReconcileReport summarizes one reconciliation run
type ReconcileReport struct {
	StaleChecked    int `json:"stale_checked"`
	Repaired        int `json:"repaired"`
	Expired         int `json:"expired"`
	MismatchesFixed int `json:"mismatches_fixed"`
}

// Run executes one full reconciliation pass
func (s *ReconcileService) Run() (*ReconcileReport, error) {
	report := &ReconcileReport{}

	if err := s.reconcileStalePayments(report); err != nil {
		return report, err
	}
	if err := s.repairPaidMismatches(report); err != nil {
		return report, err
	}

	s.logger.WithFields(logrus.Fields{
		"stale_checked":    report.StaleChecked,
		"repaired":         report.Repaired,
		"expired":          report.Expired,
		"mismatches_fixed": report.MismatchesFixed,
	}).Info("Reconciliation run finished")

	return report, nil
}

// reconcileStalePayments re-checks created payments older than the payment
// window against the gateway. A captured payment on the gateway side means
// the verify callback never arrived; the local state is repaired to match.
func (s *ReconcileService) reconcileStalePayments(report *ReconcileReport) error {
	if !s.razorpay.IsConfigured() {
		s.logger.Debug("Gateway not configured; skipping stale payment reconciliation")
		return nil
	}

	cutoff := time.Now().Add(-s.paymentTimeout)
	stale, err := s.paymentRepo.GetStaleCreated(cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale payments: %w", err)
	}

	for i := range stale {
		payment := &stale[i]
		report.StaleChecked++

		attempts, err := s.razorpay.FetchOrderPayments(payment.GatewayOrderID)
		if err != nil {
			s.logger.WithError(err).WithField("gateway_order_id", payment.GatewayOrderID).
				Warn("Failed to fetch gateway payments; will retry next run")
			continue
		}

		captured := capturedAttempt(attempts)
		if captured != nil {
			if err := s.repairPayment(payment, captured); err != nil {
				s.logger.WithError(err).WithField("payment_id", payment.ID).
					Error("Failed to repair payment")
				continue
			}
			report.Repaired++
			continue
		}

		// no capture after the full payment window: close the attempt
		if _, err := s.paymentRepo.MarkFailed(s.db, payment.ID, "Payment window expired"); err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).
				Error("Failed to expire payment")
			continue
		}
		s.auditService.LogPaymentExpired(payment)
		report.Expired++
	}

	return nil
}

// repairPayment flips a created payment whose gateway record shows a capture
// to paid, and confirms its booking, in one transaction
func (s *ReconcileService) repairPayment(payment *models.Payment, captured *RazorpayPayment) error {
	booking, err := s.bookingRepo.GetByID(payment.BookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking %s not found", payment.BookingID)
	}

	var method *string
	if captured.Method != "" {
		method = &captured.Method
	}
	metadata := models.JSONB{"gateway_status": captured.Status, "reconciled": true}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	updated, err := s.paymentRepo.MarkPaid(tx, payment.ID, captured.ID, "", method, metadata)
	if err != nil {
		tx.Rollback()
		return err
	}
	if !updated {
		// someone verified it in the meantime
		tx.Rollback()
		return nil
	}

	if err := s.bookingRepo.ConfirmPaid(tx, booking.ID, payment.AmountMajor()); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit repair: %w", err)
	}

	s.auditService.LogReconcileRepair(booking, payment)

	s.logger.WithFields(logrus.Fields{
		"booking_id":         booking.ID,
		"payment_id":         payment.ID,
		"gateway_payment_id": captured.ID,
	}).Info("Repaired captured payment missing local confirmation")

	return nil
}

// repairPaidMismatches confirms bookings left pending although a linked
// payment already went paid
func (s *ReconcileService) repairPaidMismatches(report *ReconcileReport) error {
	mismatches, err := s.bookingRepo.GetPaidMismatches()
	if err != nil {
		return fmt.Errorf("failed to list paid mismatches: %w", err)
	}

	for i := range mismatches {
		booking := &mismatches[i]

		payment, err := s.paymentRepo.GetPaidByBookingID(booking.ID)
		if err != nil || payment == nil {
			continue
		}

		if err := s.bookingRepo.ConfirmPaid(s.db, booking.ID, payment.AmountMajor()); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).
				Error("Failed to confirm mismatched booking")
			continue
		}

		s.auditService.LogBookingRepaired(booking, payment)
		report.MismatchesFixed++

		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"payment_id": payment.ID,
		}).Info("Confirmed booking left pending by an interrupted verification")
	}

	return nil
}

func capturedAttempt(attempts []RazorpayPayment) *RazorpayPayment {
	for i := range attempts {
		if attempts[i].Captured || attempts[i].Status == "captured" {
			return &attempts[i]
		}
	}
	return nil
}
