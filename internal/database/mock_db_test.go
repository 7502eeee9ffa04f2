package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// newMockDB wires sqlmock behind the DB interface used by repositories
func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	wrapped := &PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}
	return wrapped, mock, func() { db.Close() }
}
