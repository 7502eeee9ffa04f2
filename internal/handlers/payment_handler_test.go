package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagenest/booking-backend/internal/config"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/middleware"
	"github.com/voyagenest/booking-backend/internal/services"
	"github.com/voyagenest/booking-backend/pkg/mailer"
)

func newCreateOrderRouter(t *testing.T, gatewayURL string) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := &database.PostgresDB{DB: sqlx.NewDb(rawDB, "sqlmock")}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	razorpay := services.NewRazorpayService(&config.RazorpayConfig{
		KeyID:          "rzp_test_key",
		KeySecret:      "test_secret",
		BaseURL:        gatewayURL,
		Currency:       "INR",
		PaymentTimeout: 15 * time.Minute,
	}, logger)

	paymentService := services.NewPaymentService(
		db,
		database.NewBookingRepository(db),
		database.NewPaymentRepository(db),
		razorpay,
		services.NewAuditService(database.NewPaymentAuditRepository(db), false, logger),
		mailer.NewDevMailer(logger),
		"INR",
		logger,
	)

	handler := NewPaymentHandler(paymentService, logger)

	router := gin.New()
	router.POST("/payments/create-order", func(c *gin.Context) {
		c.Set(middleware.UserContextKey, middleware.UserContext{
			UserID:        uuid.New(),
			Email:         "user@example.com",
			EmailVerified: true,
		})
		c.Next()
	}, handler.CreateOrder)

	return router, mock, func() { rawDB.Close() }
}

func postCreateOrder(router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/payments/create-order", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"amount":            15000,
		"currency":          "INR",
		"destination":       "Goa",
		"travel_start_date": "2026-10-01",
		"travel_end_date":   "2026-10-06",
		"travelers":         2,
	}
}

func TestCreateOrderErrorMapping(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(services.RazorpayOrder{
			ID:       "order_abc123",
			Amount:   15000,
			Currency: "INR",
			Status:   "created",
		})
	}))
	defer gateway.Close()

	t.Run("DB Failure After Gateway Order Is A Generic 500", func(t *testing.T) {
		router, mock, closeFn := newCreateOrderRouter(t, gateway.URL)
		defer closeFn()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(errors.New(`pq: relation "bookings" does not exist`))
		mock.ExpectRollback()

		w := postCreateOrder(router, validOrderBody())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "failed to create payment order")
		// internal detail never reaches the client
		assert.NotContains(t, w.Body.String(), "pq:")
		assert.NotContains(t, w.Body.String(), "bookings")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Validation Failure Is A 400", func(t *testing.T) {
		router, mock, closeFn := newCreateOrderRouter(t, gateway.URL)
		defer closeFn()

		body := validOrderBody()
		body["amount"] = -1

		w := postCreateOrder(router, body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "amount must be positive")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success Returns Booking Order Payment", func(t *testing.T) {
		router, mock, closeFn := newCreateOrderRouter(t, gateway.URL)
		defer closeFn()

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		w := postCreateOrder(router, validOrderBody())

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"order_abc123"`)
		assert.Contains(t, w.Body.String(), `"booking_reference"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
