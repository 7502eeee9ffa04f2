package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/voyagenest/booking-backend/internal/database"
)

// newMockDB wires sqlmock behind the DB interface the services expect
func newMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	wrapped := &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}
	return wrapped, mock, func() { db.Close() }
}

// testLogger returns a quiet logger for tests
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
