package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jatra/booking-engine/internal/adapter/gateway"
	"github.com/jatra/booking-engine/internal/adapter/handler"
	"github.com/jatra/booking-engine/internal/adapter/lockstore"
	"github.com/jatra/booking-engine/internal/adapter/repository/postgres"
	"github.com/jatra/booking-engine/internal/config"
	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/services"
	"github.com/jatra/booking-engine/internal/platform/database"
	"github.com/jatra/booking-engine/internal/platform/httpretry"
	"github.com/jatra/booking-engine/internal/platform/rabbitmq"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting booking engine")

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

	db, err := database.NewPostgresDB(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		DB:   cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	logger.Info("Redis connected")

	broker := rabbitmq.NewClient(cfg.RabbitMQ.URL, "booking-engine", logger)
	if err := broker.Connect(); err != nil {
		logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer broker.Close()

	bookingRepo := postgres.NewBookingRepository(db)
	lockManager := lockstore.NewRedisLockManager(redisClient, logger)
	seatLocks := services.NewSeatLockService(lockManager, redisClient, logger)
	idempotency := services.NewIdempotencyService(redisClient, logger)
	paymentGateway := gateway.NewPaymentClient(cfg.Payment.BaseURL, httpretry.NewClient(logger))

	reservationSvc := services.NewReservationService(
		seatLocks, bookingRepo, idempotency, broker, cfg.Locks.SeatLockTTL, logger)

	saga := services.NewPaymentSaga(bookingRepo, paymentGateway, seatLocks, broker, services.SagaConfig{
		MaxRetries:      cfg.Saga.MaxRetries,
		PollInterval:    cfg.Saga.PollInterval,
		PollMaxAttempts: cfg.Saga.PollMaxAttempts,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := broker.Consume(ctx, domain.PaymentProcessingQueue, domain.RoutingKeyPaymentProcess, saga.HandleDelivery)
		if err != nil && ctx.Err() == nil {
			logger.Errorf("Payment consumer stopped: %v", err)
		}
	}()

	go reservationSvc.RunExpirySweep(ctx, 1*time.Minute)

	bookingHandler := handler.NewBookingHandler(reservationSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			bookingHandler.CreateBooking(w, r)
		default:
			bookingHandler.GetBooking(w, r)
		}
	})
	mux.HandleFunc("/bookings/cancel", bookingHandler.CancelBooking)
	mux.HandleFunc("/locks/release", bookingHandler.ReleaseReservation)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exiting")
}
