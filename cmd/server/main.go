package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BengkelGo/service-marketplace/internal/application"
	"github.com/BengkelGo/service-marketplace/internal/auth"
	"github.com/BengkelGo/service-marketplace/internal/cache"
	"github.com/BengkelGo/service-marketplace/internal/config"
	"github.com/BengkelGo/service-marketplace/internal/database"
	"github.com/BengkelGo/service-marketplace/internal/events"
	"github.com/BengkelGo/service-marketplace/internal/handler"
	"github.com/BengkelGo/service-marketplace/internal/health"
	"github.com/BengkelGo/service-marketplace/internal/logger"
	"github.com/BengkelGo/service-marketplace/internal/middleware"
	"github.com/BengkelGo/service-marketplace/internal/notification"
	"github.com/BengkelGo/service-marketplace/internal/payment"
	"github.com/BengkelGo/service-marketplace/internal/repository"
)

const serviceName = "service-marketplace"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-marketplace",
		zap.String("port", cfg.Port),
	)

	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.QuoteModel{},
			&repository.RefundModel{},
			&repository.ReviewModel{},
			&repository.VehicleModel{},
			&repository.WorkshopModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisCache, err := cache.New(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = redisCache.Close() }()

	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	kafkaProducer := events.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	notifier := notification.NewKafkaNotifier(kafkaProducer, serviceName, log)
	gateway := payment.NewSimulatedGateway()

	bookingRepo := repository.NewGormBookingRepository(db)
	quoteRepo := repository.NewGormQuoteRepository(db)
	refundRepo := repository.NewGormRefundRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	workshopRepo := repository.NewGormWorkshopRepository(db)

	bookingService := application.NewBookingService(bookingRepo, quoteRepo, refundRepo, workshopRepo, gateway, notifier, log)
	quoteService := application.NewQuoteService(quoteRepo, bookingRepo, workshopRepo, notifier, log)
	refundService := application.NewRefundService(refundRepo, bookingRepo, workshopRepo, bookingService, notifier, log)
	reviewService := application.NewReviewService(reviewRepo, bookingRepo, workshopRepo, redisCache, notifier, log)
	vehicleService := application.NewVehicleService(vehicleRepo, log)
	workshopService := application.NewWorkshopService(workshopRepo, redisCache, log)

	groupID := cfg.KafkaConfig.GroupPrefix + "marketplace-service"
	paymentConsumer := events.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	bookingHandler := handler.NewBookingHandler(bookingService)
	quoteHandler := handler.NewQuoteHandler(quoteService)
	refundHandler := handler.NewRefundHandler(refundService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	workshopHandler := handler.NewWorkshopHandler(workshopService)
	adminHandler := handler.NewAdminBookingHandler(bookingService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	quoteHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	refundHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	reviewHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	vehicleHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	workshopHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-marketplace...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-marketplace stopped")
}
