package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/voyagenest/booking-backend/internal/models"
)

// PasswordResetRepository handles database operations for password reset tokens
type PasswordResetRepository struct {
	db DB
}

// NewPasswordResetRepository creates a new PasswordResetRepository
func NewPasswordResetRepository(db DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create stores a new reset token
func (r *PasswordResetRepository) Create(reset *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.QueryRow(query, reset.Token, reset.UserID, reset.ExpiresAt).Scan(&reset.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	return nil
}

// GetByToken retrieves a reset token, nil if not found
func (r *PasswordResetRepository) GetByToken(token string) (*models.PasswordReset, error) {
	query := `
		SELECT token, user_id, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1
	`

	reset := &models.PasswordReset{}
	err := r.db.QueryRow(query, token).Scan(
		&reset.Token, &reset.UserID, &reset.ExpiresAt, &reset.UsedAt, &reset.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}

	return reset, nil
}

// MarkUsed consumes a token. The used_at guard makes the token single-use.
func (r *PasswordResetRepository) MarkUsed(token string) (bool, error) {
	query := `
		UPDATE password_resets
		SET used_at = NOW()
		WHERE token = $1 AND used_at IS NULL AND expires_at > NOW()
	`

	result, err := r.db.Exec(query, token)
	if err != nil {
		return false, fmt.Errorf("failed to mark reset used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// DeleteExpired removes stale tokens; called by the cleanup job
func (r *PasswordResetRepository) DeleteExpired(olderThan time.Time) (int64, error) {
	query := `DELETE FROM password_resets WHERE expires_at < $1`

	result, err := r.db.Exec(query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired resets: %w", err)
	}

	return result.RowsAffected()
}
