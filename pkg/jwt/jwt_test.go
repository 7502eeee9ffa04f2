package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundtrip(t *testing.T) {
	service := newTestService()
	userID := uuid.New()

	token, err := service.GenerateAccessToken(userID, "user@example.com", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestRefreshTokenRoundtrip(t *testing.T) {
	service := newTestService()
	userID := uuid.New()

	token, err := service.GenerateRefreshToken(userID, "user@example.com")
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestTokenTypeEnforced(t *testing.T) {
	service := newTestService()
	userID := uuid.New()

	access, err := service.GenerateAccessToken(userID, "user@example.com", true)
	require.NoError(t, err)
	refresh, err := service.GenerateRefreshToken(userID, "user@example.com")
	require.NoError(t, err)

	// a refresh token is never accepted where an access token is expected
	_, err = service.ValidateAccessToken(refresh)
	assert.Error(t, err)

	_, err = service.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	service := newTestService()
	other := NewService("different-secret", "different-refresh", 15*time.Minute, 7*24*time.Hour)

	token, err := service.GenerateAccessToken(uuid.New(), "user@example.com", true)
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	service := NewService("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	token, err := service.GenerateAccessToken(uuid.New(), "user@example.com", true)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestGetTokenExpiry(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateAccessToken(uuid.New(), "user@example.com", true)
	require.NoError(t, err)

	expiry, err := service.GetTokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiry, 5*time.Second)
}
