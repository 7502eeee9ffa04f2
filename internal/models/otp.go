package models

import "time"

// OTPPurpose identifies what a one-time code was issued for
type OTPPurpose string

const (
	OTPPurposeEmailVerification OTPPurpose = "email_verification"
	OTPPurposePasswordReset     OTPPurpose = "password_reset"
)

// OTPVerification represents a stored one-time code
type OTPVerification struct {
	ID          int64      `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	OTPCode     string     `json:"-" db:"otp_code"`
	Purpose     OTPPurpose `json:"purpose" db:"purpose"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	Attempts    int        `json:"attempts" db:"attempts"`
	MaxAttempts int        `json:"max_attempts" db:"max_attempts"`
	Verified    bool       `json:"verified" db:"verified"`
	IPAddress   *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent   *string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// PasswordReset represents a single-use password reset token
type PasswordReset struct {
	Token     string     `json:"token" db:"token"`
	UserID    string     `json:"user_id" db:"user_id"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsUsable reports whether the token can still redeem a reset
func (pr *PasswordReset) IsUsable(now time.Time) bool {
	return pr.UsedAt == nil && now.Before(pr.ExpiresAt)
}
