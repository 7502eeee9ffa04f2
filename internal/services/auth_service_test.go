package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagenest/booking-backend/internal/config"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/models"
	"github.com/voyagenest/booking-backend/pkg/jwt"
	"github.com/voyagenest/booking-backend/pkg/mailer"
	"golang.org/x/crypto/bcrypt"
)

func newAuthServiceForTest(t *testing.T) (*AuthService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, closeFn := newMockDB(t)
	logger := testLogger()

	otpService := NewOTPService(db, &config.OTPConfig{Length: 6, ExpiryMinutes: 10, MaxAttempts: 3})
	rateLimitService := NewRateLimitService(db, 3, 3600)
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	service := NewAuthService(
		database.NewUserRepository(db),
		database.NewPasswordResetRepository(db),
		otpService,
		rateLimitService,
		jwtService,
		mailer.NewDevMailer(logger),
		bcrypt.MinCost,
		"https://voyagenest.example.com",
		15*time.Minute,
		logger,
	)

	return service, mock, closeFn
}

func authUserRow(t *testing.T, userID uuid.UUID, password string, verified bool, status string) *sqlmock.Rows {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "phone",
		"status", "email_verified", "created_at", "updated_at",
	}).AddRow(userID, "user@example.com", string(hash), "Asha", "Nair", nil, status, verified, now, now)
}

func TestLogin(t *testing.T) {
	t.Run("Valid Credentials Issue Token Pair", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		userID := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("user@example.com").
			WillReturnRows(authUserRow(t, userID, "correct horse", true, "active"))

		user, tokens, err := service.Login(&models.LoginRequest{
			Email:    "User@Example.com",
			Password: "correct horse",
		})
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, int((15 * time.Minute).Seconds()), tokens.ExpiresIn)
	})

	t.Run("Wrong Password Rejected", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("user@example.com").
			WillReturnRows(authUserRow(t, uuid.New(), "correct horse", true, "active"))

		_, _, err := service.Login(&models.LoginRequest{
			Email:    "user@example.com",
			Password: "battery staple",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown Email Gets Same Error", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, _, err := service.Login(&models.LoginRequest{
			Email:    "nobody@example.com",
			Password: "anything",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unverified Email Blocked", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("user@example.com").
			WillReturnRows(authUserRow(t, uuid.New(), "correct horse", false, "active"))

		_, _, err := service.Login(&models.LoginRequest{
			Email:    "user@example.com",
			Password: "correct horse",
		})
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("Inactive Account Blocked", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("user@example.com").
			WillReturnRows(authUserRow(t, uuid.New(), "correct horse", true, "suspended"))

		_, _, err := service.Login(&models.LoginRequest{
			Email:    "user@example.com",
			Password: "correct horse",
		})
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestRegister(t *testing.T) {
	t.Run("Duplicate Email Mapped To Sentinel", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		// rate limit windows are empty
		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(0, time.Now()))
		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(0, time.Now()))

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

		_, err := service.Register(&models.RegisterRequest{
			Email:     "user@example.com",
			Password:  "correct horse",
			FirstName: "Asha",
			LastName:  "Nair",
		}, "203.0.113.9", "test-agent")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Invalid Email Rejected Before Any Query", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		_, err := service.Register(&models.RegisterRequest{
			Email:    "not-an-email",
			Password: "correct horse",
		}, "", "")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rate Limited Email Rejected", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(3, time.Now()))

		_, err := service.Register(&models.RegisterRequest{
			Email:    "user@example.com",
			Password: "correct horse",
		}, "203.0.113.9", "test-agent")

		var rateErr *RateLimitError
		assert.ErrorAs(t, err, &rateErr)
		assert.Equal(t, "email", rateErr.Type)
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Run("Valid Code Verifies And Logs In", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM otp_verifications`).
			WithArgs("user@example.com", models.OTPPurposeEmailVerification).
			WillReturnRows(otpRows("123456", 0, 3, time.Now().Add(5*time.Minute)))
		mock.ExpectExec(`UPDATE otp_verifications`).
			WillReturnResult(sqlmock.NewResult(0, 1)) // attempts + 1
		mock.ExpectExec(`UPDATE otp_verifications`).
			WillReturnResult(sqlmock.NewResult(0, 1)) // verified = true
		mock.ExpectExec(`UPDATE users`).
			WithArgs("user@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("user@example.com").
			WillReturnRows(authUserRow(t, uuid.New(), "correct horse", false, "active"))

		user, tokens, err := service.VerifyEmail(&models.VerifyEmailRequest{
			Email: "User@Example.com",
			OTP:   "123456",
		})
		require.NoError(t, err)
		assert.True(t, user.EmailVerified)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong Code Rejected", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM otp_verifications`).
			WithArgs("user@example.com", models.OTPPurposeEmailVerification).
			WillReturnRows(otpRows("123456", 0, 3, time.Now().Add(5*time.Minute)))
		mock.ExpectExec(`UPDATE otp_verifications`).
			WillReturnResult(sqlmock.NewResult(0, 1)) // attempts + 1 only

		_, _, err := service.VerifyEmail(&models.VerifyEmailRequest{
			Email: "user@example.com",
			OTP:   "000000",
		})
		assert.ErrorIs(t, err, ErrOTPInvalid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResetPassword(t *testing.T) {
	const token = "reset-token-abc"

	resetRow := func(expiresAt time.Time, usedAt interface{}) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"token", "user_id", "expires_at", "used_at", "created_at"}).
			AddRow(token, uuid.New().String(), expiresAt, usedAt, time.Now())
	}

	t.Run("Usable Token Consumed Then Password Replaced", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM password_resets`).
			WithArgs(token).
			WillReturnRows(resetRow(time.Now().Add(30*time.Minute), nil))
		mock.ExpectExec(`UPDATE password_resets`).
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE users`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := service.ResetPassword(&models.ResetPasswordRequest{
			Token:       token,
			NewPassword: "new password",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Expired Token Rejected", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM password_resets`).
			WithArgs(token).
			WillReturnRows(resetRow(time.Now().Add(-time.Minute), nil))

		err := service.ResetPassword(&models.ResetPasswordRequest{
			Token:       token,
			NewPassword: "new password",
		})
		assert.ErrorIs(t, err, ErrResetTokenInvalid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost Consume Race Rejected", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM password_resets`).
			WithArgs(token).
			WillReturnRows(resetRow(time.Now().Add(30*time.Minute), nil))
		mock.ExpectExec(`UPDATE password_resets`).
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := service.ResetPassword(&models.ResetPasswordRequest{
			Token:       token,
			NewPassword: "new password",
		})
		assert.ErrorIs(t, err, ErrResetTokenInvalid)
	})

	t.Run("Unknown Token Rejected", func(t *testing.T) {
		service, mock, closeFn := newAuthServiceForTest(t)
		defer closeFn()

		mock.ExpectQuery(`SELECT (.+) FROM password_resets`).
			WithArgs(token).
			WillReturnRows(sqlmock.NewRows([]string{"token"}))

		err := service.ResetPassword(&models.ResetPasswordRequest{
			Token:       token,
			NewPassword: "new password",
		})
		assert.ErrorIs(t, err, ErrResetTokenInvalid)
	})
}
