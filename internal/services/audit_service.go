package services

import (
	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/models"
	"github.com/voyagenest/booking-backend/internal/utils"
)

// AuditService writes payment lifecycle events to the append-only audit
// trail. Every method is best effort: a failed audit write is logged and
// never propagated, so auditing can not break a payment flow.
type AuditService struct {
	auditRepo *database.PaymentAuditRepository
	enabled   bool
	logger    *logrus.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo *database.PaymentAuditRepository, enabled bool, logger *logrus.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		enabled:   enabled,
		logger:    logger,
	}
}

// LogOrderCreated records a successful order creation
func (s *AuditService) LogOrderCreated(booking *models.Booking, payment *models.Payment, ip, userAgent string) {
	audit := models.NewPaymentAudit(models.PaymentEventOrderCreated, models.PaymentSourceBackend).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, "").
		SetClient(ip, userAgent)
	audit.SetAmounts(payment.Amount, payment.Amount, payment.Currency)

	s.write(audit, userAgent)
}

// LogOrderFailed records a gateway order creation failure. There is no
// booking yet, so only the receipt reference is available.
func (s *AuditService) LogOrderFailed(reference string, err error, ip, userAgent string) {
	audit := models.NewPaymentAudit(models.PaymentEventOrderFailed, models.PaymentSourceGateway).
		SetError(err.Error()).
		SetClient(ip, userAgent)
	audit.DeviceInfo = models.JSONB{"receipt": reference}

	s.write(audit, userAgent)
}

// LogVerifyRequested records an authorized verification attempt before the
// signature check runs, so tampering shows up next to the request it arrived in
func (s *AuditService) LogVerifyRequested(booking *models.Booking, payment *models.Payment, gatewayPaymentID, ip, userAgent string) {
	audit := models.NewPaymentAudit(models.PaymentEventVerifyRequested, models.PaymentSourceUser).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, gatewayPaymentID).
		SetClient(ip, userAgent)

	s.write(audit, userAgent)
}

// LogSignatureFailed records a rejected verification attempt
func (s *AuditService) LogSignatureFailed(booking *models.Booking, payment *models.Payment, gatewayPaymentID, ip, userAgent string) {
	audit := models.NewPaymentAudit(models.PaymentEventSignatureFailed, models.PaymentSourceUser).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, gatewayPaymentID).
		SetError("signature verification failed").
		SetClient(ip, userAgent)

	s.write(audit, userAgent)
}

// LogPaymentSuccess records a completed verification
func (s *AuditService) LogPaymentSuccess(booking *models.Booking, payment *models.Payment, ip, userAgent string) {
	gatewayPaymentID := ""
	if payment.GatewayPaymentID != nil {
		gatewayPaymentID = *payment.GatewayPaymentID
	}

	audit := models.NewPaymentAudit(models.PaymentEventSuccess, models.PaymentSourceBackend).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, gatewayPaymentID).
		SetClient(ip, userAgent)
	audit.SetAmounts(payment.Amount, payment.Amount, payment.Currency)

	s.write(audit, userAgent)
}

// LogReconcileRepair records a booking repaired by the reconciliation job
func (s *AuditService) LogReconcileRepair(booking *models.Booking, payment *models.Payment) {
	audit := models.NewPaymentAudit(models.PaymentEventReconciled, models.PaymentSourceReconcile).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, "")

	s.write(audit, "")
}

// LogBookingRepaired records a pending booking confirmed after its payment
// had already gone paid (the crash-window mismatch)
func (s *AuditService) LogBookingRepaired(booking *models.Booking, payment *models.Payment) {
	audit := models.NewPaymentAudit(models.PaymentEventBookingConfirmed, models.PaymentSourceReconcile).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, "")

	s.write(audit, "")
}

// LogPaymentExpired records a stale created payment marked failed
func (s *AuditService) LogPaymentExpired(payment *models.Payment) {
	audit := models.NewPaymentAudit(models.PaymentEventExpired, models.PaymentSourceReconcile).
		SetBooking(payment.BookingID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, "")

	s.write(audit, "")
}

// CheckAmounts compares the locally recorded amount against the gateway's
// record and writes an audit entry when they differ. Returns whether the
// amounts matched.
func (s *AuditService) CheckAmounts(booking *models.Booking, payment *models.Payment, gatewayPayment *RazorpayPayment) bool {
	if gatewayPayment.Amount == payment.Amount {
		return true
	}

	audit := models.NewPaymentAudit(models.PaymentEventError, models.PaymentSourceGateway).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetGatewayIDs(payment.GatewayOrderID, gatewayPayment.ID).
		SetError("gateway amount differs from local amount")
	audit.SetAmounts(payment.Amount, gatewayPayment.Amount, payment.Currency)

	s.write(audit, "")
	return false
}

func (s *AuditService) write(audit *models.PaymentAudit, userAgent string) {
	if !s.enabled {
		return
	}

	if userAgent != "" && userAgent != "Unknown" {
		device := utils.ParseUserAgent(userAgent)
		if audit.DeviceInfo == nil {
			audit.DeviceInfo = models.JSONB{}
		}
		audit.DeviceInfo["device_type"] = device.DeviceType
		audit.DeviceInfo["os"] = device.OS
		audit.DeviceInfo["browser"] = device.Browser
		audit.DeviceInfo["is_bot"] = device.IsBot
	}

	if err := s.auditRepo.Create(audit); err != nil {
		s.logger.WithError(err).WithField("event_type", audit.EventType).
			Error("Failed to write payment audit entry")
	}
}
