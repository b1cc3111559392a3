// Package main runs the booking platform HTTP server with WebSocket availability and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/VenkaSri/booking-backend/config"
	"github.com/VenkaSri/booking-backend/internal/auth"
	"github.com/VenkaSri/booking-backend/internal/availability"
	"github.com/VenkaSri/booking-backend/internal/bookings"
	"github.com/VenkaSri/booking-backend/internal/checkout"
	"github.com/VenkaSri/booking-backend/internal/middleware"
	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/internal/notifications"
	"github.com/VenkaSri/booking-backend/internal/products"
	"github.com/VenkaSri/booking-backend/internal/sessions"
	"github.com/VenkaSri/booking-backend/internal/webhooks"
	"github.com/VenkaSri/booking-backend/internal/worker"
	"github.com/VenkaSri/booking-backend/pkg/database"
	"github.com/VenkaSri/booking-backend/pkg/queue"
	"github.com/VenkaSri/booking-backend/pkg/redis"
	"github.com/VenkaSri/booking-backend/pkg/response"
	"github.com/VenkaSri/booking-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			CoversBucket:         cfg.AWS.CoversBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := availability.NewRedisPubSub(rdb.Client, logger)
	hub := availability.NewHub(logger, redisPubSub, redisPubSub)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Sessions
	sessionRepo := sessions.NewRepository(pool)
	sessionHandler := sessions.NewHandler(sessionRepo, s3Client, logger)

	// Products
	productRepo := products.NewRepository(pool)
	productHandler := products.NewHandler(productRepo, logger)

	// Notifications (email logs queued for the mailer worker)
	emailRepo := notifications.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	notifier := notifications.NewNotifier(emailRepo, sessionRepo, jobQueue, logger)
	emailHandler := notifications.NewHandler(emailRepo, jobQueue, logger)

	// Checkout (seat holds, confirmation, release)
	checkoutStore := checkout.NewPostgresStore(pool)
	holdTTL := time.Duration(cfg.Checkout.HoldTTLMinutes) * time.Minute
	checkoutService := checkout.NewService(checkoutStore, hub, notifier, holdTTL, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	hub.SetSnapshotFunc(func(sessionID uuid.UUID) (*models.SessionAvailability, error) {
		return checkoutService.Availability(context.Background(), sessionID)
	})

	// Bookings (admin; cancel re-broadcasts seat counts)
	bookingRepo := bookings.NewRepository(pool)
	bookingHandler := bookings.NewHandler(bookingRepo, func(c *gin.Context, sessionID uuid.UUID) {
		if av, err := checkoutService.Availability(c.Request.Context(), sessionID); err == nil {
			hub.BroadcastAvailability(*av)
		}
	}, logger)

	// Payment webhook
	deduper := webhooks.NewRedisDeduper(rdb.Client)
	paymentWebhook := webhooks.NewPaymentHandler(cfg.Webhook.PaymentSecret, checkoutService, deduper, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public catalog
	router.GET("/sessions", sessionHandler.List)
	router.GET("/sessions/:id", sessionHandler.GetByID)
	router.GET("/products", productHandler.List)
	router.GET("/products/:slug", productHandler.GetBySlug)

	// Public checkout
	router.POST("/checkout", checkoutHandler.Start)
	router.GET("/checkout/:token", checkoutHandler.Status)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole(string(models.RoleAdmin)), authHandler.List)

		// Sessions
		api.POST("/sessions", middleware.RequireRole(string(models.RoleAdmin)), sessionHandler.Create)
		api.PATCH("/sessions/:id", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), sessionHandler.Update)
		api.DELETE("/sessions/:id", middleware.RequireRole(string(models.RoleAdmin)), sessionHandler.Delete)

		// Session cover images (S3-backed). Use /cover/upload for direct upload; generate-upload-url for client-side PUT.
		api.POST("/sessions/:id/cover/upload", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), sessionHandler.UploadCover)
		api.POST("/sessions/:id/cover/generate-upload-url", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), sessionHandler.GenerateCoverUploadURL)
		api.PUT("/sessions/:id/cover", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), sessionHandler.SetCover)

		// Products
		api.POST("/products", middleware.RequireRole(string(models.RoleAdmin)), productHandler.Create)
		api.PATCH("/products/:id", middleware.RequireRole(string(models.RoleAdmin)), productHandler.Update)

		// Bookings
		api.GET("/sessions/:id/bookings", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), bookingHandler.ListBySession)
		api.GET("/bookings/:id", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), bookingHandler.GetByID)
		api.POST("/bookings/:id/cancel", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), bookingHandler.Cancel)

		// Notification emails
		api.GET("/sessions/:id/emails", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), emailHandler.ListBySession)
		api.POST("/emails/:id/resend", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), emailHandler.Resend)
	}

	// Webhooks (no JWT; HMAC signature verified in handler)
	router.POST("/webhooks/payment", paymentWebhook.Handle)

	// WebSocket (public seat availability; session_id in query)
	router.GET("/ws", availability.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background workers (stale hold sweeper + email delivery)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	expirer := worker.NewExpirer(checkoutService, time.Duration(cfg.Checkout.ExpirySweepSeconds)*time.Second, logger)
	go expirer.Run(workerCtx)
	logger.Info("hold expirer started")

	sender := &notifications.SMTPSender{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}
	if sender.Configured() {
		mailer := worker.NewMailer(emailRepo, sender, jobQueue, logger)
		go mailer.Run(workerCtx)
		logger.Info("mailer worker started")
	} else {
		logger.Warn("smtp not configured, email delivery disabled")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
