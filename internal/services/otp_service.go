package services

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/voyagenest/booking-backend/internal/config"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/models"
)

var (
	// ErrOTPExpired indicates the code has expired
	ErrOTPExpired = fmt.Errorf("verification code has expired")

	// ErrOTPInvalid indicates the code is incorrect
	ErrOTPInvalid = fmt.Errorf("invalid verification code")

	// ErrMaxAttemptsExceeded indicates too many failed validation attempts
	ErrMaxAttemptsExceeded = fmt.Errorf("maximum verification attempts exceeded")

	// ErrNoOTPFound indicates no pending code exists for the email
	ErrNoOTPFound = fmt.Errorf("no verification code found for this email")

	// ErrOTPAlreadyUsed indicates the code has already been redeemed
	ErrOTPAlreadyUsed = fmt.Errorf("verification code has already been used")
)

// OTPService handles one-time code generation and validation for email
// verification and password resets
type OTPService struct {
	db     database.DB
	config *config.OTPConfig
}

// NewOTPService creates a new OTP service
func NewOTPService(db database.DB, cfg *config.OTPConfig) *OTPService {
	return &OTPService{
		db:     db,
		config: cfg,
	}
}

// GenerateOTP issues a new code for the email and purpose. Any earlier
// pending code for the same email and purpose stops being redeemable.
func (s *OTPService) GenerateOTP(email string, purpose models.OTPPurpose, ipAddress, userAgent string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.InvalidateOTP(email, purpose); err != nil {
		return "", fmt.Errorf("failed to invalidate existing code: %w", err)
	}

	otp, err := s.generateRandomOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := time.Now().Add(time.Duration(s.config.ExpiryMinutes) * time.Minute)

	query := `
		INSERT INTO otp_verifications (email, otp_code, purpose, expires_at, attempts, max_attempts, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
	`

	_, err = s.db.Exec(query, email, otp, purpose, expiresAt, s.config.MaxAttempts, ipAddress, userAgent)
	if err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	return otp, nil
}

// ValidateOTP checks a submitted code against the latest pending one.
// Every call counts as an attempt, correct or not.
func (s *OTPService) ValidateOTP(email string, purpose models.OTPPurpose, otp string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := s.getOTPRecord(email, purpose)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, ErrNoOTPFound
		}
		return false, fmt.Errorf("failed to get verification code: %w", err)
	}

	if record.Verified {
		return false, ErrOTPAlreadyUsed
	}

	if time.Now().After(record.ExpiresAt) {
		return false, ErrOTPExpired
	}

	if record.Attempts >= record.MaxAttempts {
		return false, ErrMaxAttemptsExceeded
	}

	if err := s.incrementAttempts(email, purpose); err != nil {
		return false, fmt.Errorf("failed to increment attempts: %w", err)
	}

	if record.OTPCode != otp {
		return false, ErrOTPInvalid
	}

	if err := s.markAsVerified(email, purpose); err != nil {
		return false, fmt.Errorf("failed to mark code as verified: %w", err)
	}

	return true, nil
}

// InvalidateOTP retires any pending codes for the email and purpose
func (s *OTPService) InvalidateOTP(email string, purpose models.OTPPurpose) error {
	query := `
		UPDATE otp_verifications
		SET verified = true
		WHERE email = $1 AND purpose = $2 AND verified = false
	`

	_, err := s.db.Exec(query, email, purpose)
	if err != nil {
		return fmt.Errorf("failed to invalidate code: %w", err)
	}

	return nil
}

// GetRemainingAttempts returns how many validation attempts are left
func (s *OTPService) GetRemainingAttempts(email string, purpose models.OTPPurpose) (int, error) {
	record, err := s.getOTPRecord(strings.ToLower(strings.TrimSpace(email)), purpose)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNoOTPFound
		}
		return 0, fmt.Errorf("failed to get verification code: %w", err)
	}

	remaining := record.MaxAttempts - record.Attempts
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// CleanupExpiredOTPs removes expired codes; called by the cleanup job
func (s *OTPService) CleanupExpiredOTPs() (int64, error) {
	query := `
		DELETE FROM otp_verifications
		WHERE expires_at < $1
	`

	result, err := s.db.Exec(query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired codes: %w", err)
	}

	return result.RowsAffected()
}

func (s *OTPService) getOTPRecord(email string, purpose models.OTPPurpose) (*models.OTPVerification, error) {
	query := `
		SELECT id, email, otp_code, purpose, expires_at, attempts, max_attempts, verified, ip_address, user_agent, created_at
		FROM otp_verifications
		WHERE email = $1 AND purpose = $2 AND verified = false
		ORDER BY created_at DESC
		LIMIT 1
	`

	var otp models.OTPVerification
	err := s.db.QueryRow(query, email, purpose).Scan(
		&otp.ID,
		&otp.Email,
		&otp.OTPCode,
		&otp.Purpose,
		&otp.ExpiresAt,
		&otp.Attempts,
		&otp.MaxAttempts,
		&otp.Verified,
		&otp.IPAddress,
		&otp.UserAgent,
		&otp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &otp, nil
}

func (s *OTPService) incrementAttempts(email string, purpose models.OTPPurpose) error {
	query := `
		UPDATE otp_verifications
		SET attempts = attempts + 1
		WHERE email = $1 AND purpose = $2 AND verified = false
	`

	_, err := s.db.Exec(query, email, purpose)
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}

	return nil
}

func (s *OTPService) markAsVerified(email string, purpose models.OTPPurpose) error {
	query := `
		UPDATE otp_verifications
		SET verified = true
		WHERE email = $1 AND purpose = $2 AND verified = false
	`

	_, err := s.db.Exec(query, email, purpose)
	if err != nil {
		return fmt.Errorf("failed to mark code as verified: %w", err)
	}

	return nil
}

// generateRandomOTP produces a uniformly random numeric code
func (s *OTPService) generateRandomOTP() (string, error) {
	length := s.config.Length
	if length <= 0 {
		length = 6
	}

	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", length, n), nil
}
