package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/models"
	"github.com/voyagenest/booking-backend/internal/utils"
	"github.com/voyagenest/booking-backend/pkg/jwt"
	"github.com/voyagenest/booking-backend/pkg/mailer"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenExpiry = time.Hour

var (
	// ErrInvalidCredentials is returned for any bad email/password pair.
	// The message never reveals which half was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive indicates a suspended account
	ErrAccountInactive = errors.New("account is inactive")

	// ErrEmailNotVerified indicates the email has not completed verification
	ErrEmailNotVerified = errors.New("email address is not verified")

	// ErrEmailTaken indicates the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrResetTokenInvalid covers expired, used, and unknown reset tokens
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
)

// AuthService handles registration, credential login, email verification and
// password resets
type AuthService struct {
	userRepo         *database.UserRepository
	passwordResets   *database.PasswordResetRepository
	otpService       *OTPService
	rateLimitService *RateLimitService
	jwtService       *jwt.Service
	mail             mailer.Mailer
	bcryptCost       int
	baseURL          string
	accessExpiry     time.Duration
	logger           *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *database.UserRepository,
	passwordResets *database.PasswordResetRepository,
	otpService *OTPService,
	rateLimitService *RateLimitService,
	jwtService *jwt.Service,
	mail mailer.Mailer,
	bcryptCost int,
	baseURL string,
	accessExpiry time.Duration,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		passwordResets:   passwordResets,
		otpService:       otpService,
		rateLimitService: rateLimitService,
		jwtService:       jwtService,
		mail:             mail,
		bcryptCost:       bcryptCost,
		baseURL:          baseURL,
		accessExpiry:     accessExpiry,
		logger:           logger,
	}
}

// Register creates an account and emails a verification code
func (s *AuthService) Register(req *models.RegisterRequest, ip, userAgent string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email address")
	}

	if err := s.rateLimitService.CheckEmailRateLimit(email, ip); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}

	user, err := s.userRepo.CreateUser(email, string(hash), strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), phone)
	if err != nil {
		if strings.Contains(err.Error(), "already registered") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.sendVerificationEmail(user, ip, userAgent); err != nil {
		// the account exists; the user can request a fresh code
		s.logger.WithError(err).WithField("email", email).Warn("Failed to send verification email")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return user, nil
}

// ResendVerification issues a fresh verification code for an unverified
// account. Unknown emails succeed silently so the endpoint can not be used
// to probe for accounts.
func (s *AuthService) ResendVerification(email, ip, userAgent string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.rateLimitService.CheckEmailRateLimit(email, ip); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerified {
		return nil
	}

	return s.sendVerificationEmail(user, ip, userAgent)
}

// VerifyEmail redeems a verification code, flags the account verified and
// logs the user straight in with a fresh token pair
func (s *AuthService) VerifyEmail(req *models.VerifyEmailRequest) (*models.User, *models.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	valid, err := s.otpService.ValidateOTP(email, models.OTPPurposeEmailVerification, req.OTP)
	if err != nil {
		return nil, nil, err
	}
	if !valid {
		return nil, nil, ErrOTPInvalid
	}

	if err := s.userRepo.MarkEmailVerified(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, fmt.Errorf("user not found")
	}
	user.EmailVerified = true

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithField("email", email).Info("Email verified")
	return user, tokens, nil
}

// Login authenticates credentials and returns the user with a token pair.
// Unverified accounts can not log in.
func (s *AuthService) Login(req *models.LoginRequest) (*models.User, *models.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		// burn comparable time so missing accounts are not distinguishable
		bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"), []byte(req.Password))
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, nil, ErrAccountInactive
	}
	if !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User logged in")

	return user, tokens, nil
}

// RefreshToken exchanges a valid refresh token for a fresh token pair
func (s *AuthService) RefreshToken(refreshToken string) (*models.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.userRepo.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() {
		return nil, ErrAccountInactive
	}

	return s.issueTokens(user)
}

// ForgotPassword emails a single-use reset link. Unknown emails succeed
// silently.
func (s *AuthService) ForgotPassword(email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.rateLimitService.CheckEmailRateLimit(email, ip); err != nil {
		return err
	}
	if err := s.rateLimitService.RecordEmailRequest(email, ip); err != nil {
		s.logger.WithError(err).Warn("Failed to record rate limit entry")
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := utils.GenerateSecret(32)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	reset := &models.PasswordReset{
		Token:     token,
		UserID:    user.ID.String(),
		ExpiresAt: time.Now().Add(resetTokenExpiry),
	}
	if err := s.passwordResets.Create(reset); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>We received a request to reset your password. The link below is valid for one hour and can be used once.</p>"+
			"<p><a href=\"%s\">Reset your password</a></p>"+
			"<p>If you did not request this, you can ignore this email.</p>",
		user.FirstName, link,
	)

	if err := s.mail.Send(user.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset requested")
	return nil
}

// ResetPassword redeems a reset token and replaces the password hash
func (s *AuthService) ResetPassword(req *models.ResetPasswordRequest) error {
	reset, err := s.passwordResets.GetByToken(req.Token)
	if err != nil {
		return err
	}
	if reset == nil || !reset.IsUsable(time.Now()) {
		return ErrResetTokenInvalid
	}

	// consume before writing the new hash; a lost race means the token
	// was already redeemed
	used, err := s.passwordResets.MarkUsed(req.Token)
	if err != nil {
		return err
	}
	if !used {
		return ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(reset.UserID, string(hash)); err != nil {
		return err
	}

	s.logger.WithField("user_id", reset.UserID).Info("Password reset completed")
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.EmailVerified)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessExpiry.Seconds()),
	}, nil
}

func (s *AuthService) sendVerificationEmail(user *models.User, ip, userAgent string) error {
	otp, err := s.otpService.GenerateOTP(user.Email, models.OTPPurposeEmailVerification, ip, userAgent)
	if err != nil {
		return err
	}

	if err := s.rateLimitService.RecordEmailRequest(user.Email, ip); err != nil {
		s.logger.WithError(err).Warn("Failed to record rate limit entry")
	}

	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Your verification code is:</p>"+
			"<h2>%s</h2>"+
			"<p>The code expires in a few minutes.</p>",
		user.FirstName, otp,
	)

	return s.mail.Send(user.Email, "Verify your email address", body)
}
