package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages the scheduled background jobs: payment reconciliation
// and expired-credential cleanup
type CronService struct {
	cron             *cron.Cron
	reconcileService *ReconcileService
	otpService       *OTPService
	rateLimitService *RateLimitService
	cleanupResets    func(olderThan time.Time) (int64, error)
	logger           *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	reconcileService *ReconcileService,
	otpService *OTPService,
	rateLimitService *RateLimitService,
	cleanupResets func(olderThan time.Time) (int64, error),
	logger *logrus.Logger,
) *CronService {
	return &CronService{
		cron:             cron.New(cron.WithSeconds()),
		reconcileService: reconcileService,
		otpService:       otpService,
		rateLimitService: rateLimitService,
		cleanupResets:    cleanupResets,
		logger:           logger,
	}
}

// Start schedules and starts all jobs
func (s *CronService) Start() error {
	// second minute hour day month weekday
	// every 15 minutes
	if _, err := s.cron.AddFunc("0 */15 * * * *", s.reconcileJob); err != nil {
		return fmt.Errorf("failed to schedule reconciliation job: %w", err)
	}

	// hourly, on the hour
	if _, err := s.cron.AddFunc("0 0 * * * *", s.cleanupJob); err != nil {
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Cron service started: reconciliation every 15m, cleanup hourly")

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// RunReconcileNow triggers a reconciliation pass outside the schedule
func (s *CronService) RunReconcileNow() (*ReconcileReport, error) {
	return s.reconcileService.Run()
}

func (s *CronService) reconcileJob() {
	start := time.Now()

	report, err := s.reconcileService.Run()
	if err != nil {
		s.logger.WithError(err).Error("Reconciliation job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"repaired":         report.Repaired,
		"expired":          report.Expired,
		"mismatches_fixed": report.MismatchesFixed,
		"duration":         time.Since(start).String(),
	}).Info("Reconciliation job finished")
}

func (s *CronService) cleanupJob() {
	otps, err := s.otpService.CleanupExpiredOTPs()
	if err != nil {
		s.logger.WithError(err).Error("OTP cleanup failed")
	}

	resets, err := s.cleanupResets(time.Now())
	if err != nil {
		s.logger.WithError(err).Error("Reset token cleanup failed")
	}

	limits, err := s.rateLimitService.CleanupOldRecords()
	if err != nil {
		s.logger.WithError(err).Error("Rate limit cleanup failed")
	}

	s.logger.WithFields(logrus.Fields{
		"otps_deleted":        otps,
		"resets_deleted":      resets,
		"rate_limits_deleted": limits,
	}).Info("Cleanup job finished")
}
