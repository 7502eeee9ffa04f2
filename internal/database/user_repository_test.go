package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "phone",
		"status", "email_verified", "created_at", "updated_at",
	})
}

func TestCreateUser(t *testing.T) {
	db, mock, closeFn := newMockDB(t)
	defer closeFn()

	repo := NewUserRepository(db)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnRows(userRows().AddRow(
				userID, "traveller@example.com", "$2a$10$hash", "Asha", "Nair", nil,
				"active", false, now, now,
			))

		user, err := repo.CreateUser("Traveller@Example.com", "$2a$10$hash", "Asha", "Nair", nil)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "traveller@example.com", user.Email)
		assert.Equal(t, "Asha Nair", user.FullName())
		assert.False(t, user.EmailVerified)
		assert.True(t, user.IsActive())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

		user, err := repo.CreateUser("traveller@example.com", "hash", "Asha", "", nil)
		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "already registered")
	})
}

func TestGetUserByEmail(t *testing.T) {
	db, mock, closeFn := newMockDB(t)
	defer closeFn()

	repo := NewUserRepository(db)
	now := time.Now()

	t.Run("Found Lowercases Email", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("traveller@example.com").
			WillReturnRows(userRows().AddRow(
				userID, "traveller@example.com", "$2a$10$hash", "Asha", "Nair", nil,
				"active", true, now, now,
			))

		user, err := repo.GetUserByEmail("Traveller@Example.COM")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
	})

	t.Run("Not Found Returns Nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("nobody@example.com").
			WillReturnRows(userRows())

		user, err := repo.GetUserByEmail("nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestMarkEmailVerified(t *testing.T) {
	db, mock, closeFn := newMockDB(t)
	defer closeFn()

	repo := NewUserRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users`).
			WithArgs("traveller@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkEmailVerified("traveller@example.com")
		assert.NoError(t, err)
	})

	t.Run("Unknown User", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users`).
			WithArgs("nobody@example.com").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkEmailVerified("nobody@example.com")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")
	})
}
