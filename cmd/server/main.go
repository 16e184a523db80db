package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/adapter/handler"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/adapter/notify"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/adapter/storage"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/config"
	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/service"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sqlx.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("failed to ping mysql")
	}
	log.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("failed to connect redis")
	}
	log.Info("connected to redis")

	// Notification broker
	notifier, err := notify.NewAMQPNotifier(cfg.AMQPURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect notification broker")
	}
	log.Info("connected to notification broker")

	// Adapters and services
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	validator := service.NewBatchValidator(mysqlAdapter)
	orderService := service.NewOrderService(validator, mysqlAdapter, redisAdapter, notifier, log)
	scheduler := service.NewScanScheduler(mysqlAdapter, mysqlAdapter, mysqlAdapter, redisAdapter, notifier, log)

	go scheduler.Run(ctx, cfg.ScanInterval)
	log.WithField("interval", cfg.ScanInterval.String()).Info("anomaly scan scheduler started")

	// HTTP server
	httpHandler := handler.NewHTTPHandler(orderService, scheduler, log)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/api/orders/batch", httpHandler.PlaceBatchOrder)
	mux.HandleFunc("/api/orders/batch/validate", httpHandler.ValidateBatchOrder)
	mux.HandleFunc("/api/anomaly/scan", httpHandler.TriggerAnomalyScan)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: mux,
	}

	go func() {
		log.WithField("addr", cfg.HTTPPort).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	cancel()
	notifier.Close()
	rdb.Close()
	db.Close()
	log.Info("connections closed")
}
