// Package main runs the background workers (stale hold sweeper, email delivery).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/VenkaSri/booking-backend/config"
	"github.com/VenkaSri/booking-backend/internal/availability"
	"github.com/VenkaSri/booking-backend/internal/checkout"
	"github.com/VenkaSri/booking-backend/internal/notifications"
	"github.com/VenkaSri/booking-backend/internal/worker"
	"github.com/VenkaSri/booking-backend/pkg/database"
	"github.com/VenkaSri/booking-backend/pkg/queue"
	"github.com/VenkaSri/booking-backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Availability fanout goes through Redis only; server instances deliver
	// the updates to their WebSocket clients.
	redisPubSub := availability.NewRedisPubSub(rdb.Client, logger)
	hub := availability.NewHub(logger, redisPubSub, nil)

	checkoutStore := checkout.NewPostgresStore(pool)
	holdTTL := time.Duration(cfg.Checkout.HoldTTLMinutes) * time.Minute
	checkoutService := checkout.NewService(checkoutStore, hub, nil, holdTTL, logger)

	emailRepo := notifications.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	sender := &notifications.SMTPSender{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expirer := worker.NewExpirer(checkoutService, time.Duration(cfg.Checkout.ExpirySweepSeconds)*time.Second, logger)
	go expirer.Run(workerCtx)

	if sender.Configured() {
		mailer := worker.NewMailer(emailRepo, sender, jobQueue, logger)
		go mailer.Run(workerCtx)
	} else {
		logger.Warn("smtp not configured, email delivery disabled")
	}
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
