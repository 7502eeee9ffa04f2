package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/voyagenest/booking-backend/internal/database"
)

// RateLimitService throttles OTP and password reset email requests so the
// mailer can not be used to flood an inbox
type RateLimitService struct {
	db database.DB

	maxEmailRequests int
	emailWindow      time.Duration
	maxIPRequests    int
	ipWindow         time.Duration
}

// NewRateLimitService creates a new rate limit service. requests/windowSeconds
// bound the per-email rate; the per-IP bound is fixed at 10x per hour.
func NewRateLimitService(db database.DB, requests, windowSeconds int) *RateLimitService {
	return &RateLimitService{
		db:               db,
		maxEmailRequests: requests,
		emailWindow:      time.Duration(windowSeconds) * time.Second,
		maxIPRequests:    requests * 10,
		ipWindow:         time.Hour,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckEmailRateLimit checks whether an email or IP has exceeded its window
func (s *RateLimitService) CheckEmailRateLimit(email, ip string) error {
	if email != "" {
		count, lastRequest, err := s.getRequestCount(email, "email", s.emailWindow)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}

		if count >= s.maxEmailRequests {
			retryAfter := lastRequest.Add(s.emailWindow)
			return &RateLimitError{
				Message:    "Too many requests for this email. Please try again later",
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" {
		count, lastRequest, err := s.getRequestCount(ip, "ip", s.ipWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= s.maxIPRequests {
			retryAfter := lastRequest.Add(s.ipWindow)
			return &RateLimitError{
				Message:    "Too many requests from this address. Please try again later",
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// RecordEmailRequest records a request against both limits
func (s *RateLimitService) RecordEmailRequest(email, ip string) error {
	if email != "" {
		if err := s.recordRequest(email, "email"); err != nil {
			return fmt.Errorf("failed to record email request: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordRequest(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record ip request: %w", err)
		}
	}

	return nil
}

// CleanupOldRecords removes rate limit rows outside every window
func (s *RateLimitService) CleanupOldRecords() (int64, error) {
	cutoff := time.Now().Add(-s.ipWindow)
	if s.emailWindow > s.ipWindow {
		cutoff = time.Now().Add(-s.emailWindow)
	}

	result, err := s.db.Exec(`DELETE FROM email_rate_limits WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limit records: %w", err)
	}

	return result.RowsAffected()
}

func (s *RateLimitService) getRequestCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM email_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastRequest time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastRequest)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastRequest, nil
}

func (s *RateLimitService) recordRequest(identifier, identifierType string) error {
	query := `
		INSERT INTO email_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}
