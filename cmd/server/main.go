package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/config"
	"github.com/voyagenest/booking-backend/internal/database"
	"github.com/voyagenest/booking-backend/internal/handlers"
	"github.com/voyagenest/booking-backend/internal/middleware"
	"github.com/voyagenest/booking-backend/internal/services"
	"github.com/voyagenest/booking-backend/pkg/jwt"
	"github.com/voyagenest/booking-backend/pkg/mailer"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting VoyageNest Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Repositories
	userRepo := database.NewUserRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	paymentRepo := database.NewPaymentRepository(db)
	packageRepo := database.NewPackageRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db)
	passwordResetRepo := database.NewPasswordResetRepository(db)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var mail mailer.Mailer
	if cfg.SMTP.Mode == "production" {
		logger.Info("SMTP mailer in production mode")
		mail = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Info("Mailer in development mode (emails are logged, not sent)")
		mail = mailer.NewDevMailer(logger)
	}

	otpService := services.NewOTPService(db, &cfg.OTP)
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds)
	auditService := services.NewAuditService(auditRepo, cfg.Security.EnableAuditLog, logger)
	razorpayService := services.NewRazorpayService(&cfg.Razorpay, logger)
	if !razorpayService.IsConfigured() {
		logger.Warn("Razorpay credentials not configured; order creation will fail")
	}

	authService := services.NewAuthService(
		userRepo,
		passwordResetRepo,
		otpService,
		rateLimitService,
		jwtService,
		mail,
		cfg.Security.BcryptCost,
		cfg.Server.BaseURL,
		cfg.JWT.AccessTokenExpiry,
		logger,
	)
	paymentService := services.NewPaymentService(
		db,
		bookingRepo,
		paymentRepo,
		razorpayService,
		auditService,
		mail,
		cfg.Razorpay.Currency,
		logger,
	)
	bookingService := services.NewBookingService(bookingRepo, paymentRepo, auditRepo, logger)
	itineraryService := services.NewItineraryService()
	reconcileService := services.NewReconcileService(
		db,
		bookingRepo,
		paymentRepo,
		razorpayService,
		auditService,
		cfg.Razorpay.PaymentTimeout,
		logger,
	)

	cronService := services.NewCronService(reconcileService, otpService, rateLimitService, passwordResetRepo.DeleteExpired, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Services initialized")

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, userRepo, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	packageHandler := handlers.NewPackageHandler(packageRepo, logger)
	itineraryHandler := handlers.NewItineraryHandler(itineraryService)
	adminHandler := handlers.NewAdminHandler(cronService, logger)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.POST("/resend-verification", authHandler.ResendVerification)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh-token", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
		}

		v1.GET("/packages", packageHandler.List)
		v1.GET("/packages/:slug", packageHandler.GetBySlug)
		v1.POST("/itinerary/generate", itineraryHandler.Generate)

		user := v1.Group("/user")
		user.Use(middleware.AuthMiddleware(jwtService))
		{
			user.GET("/profile", authHandler.GetProfile)
			user.PUT("/profile", authHandler.UpdateProfile)
		}

		payments := v1.Group("/payments")
		payments.Use(middleware.AuthMiddleware(jwtService))
		{
			payments.POST("/create-order", paymentHandler.CreateOrder)
			payments.POST("/verify", paymentHandler.VerifyPayment)
		}

		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
			bookings.PUT("/:id/contact", bookingHandler.UpdateContact)
			bookings.GET("/:id/history", bookingHandler.History)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		{
			admin.POST("/reconcile/run", adminHandler.RunReconcile)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if c.Writer.Status() >= 500 {
			logger.WithFields(fields).Error("Request failed")
		} else {
			logger.WithFields(fields).Info("Request completed")
		}
	}
}

func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
