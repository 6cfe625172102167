package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AgendaLivre/service-scheduling/internal/adapter"
	"github.com/AgendaLivre/service-scheduling/internal/application"
	"github.com/AgendaLivre/service-scheduling/internal/cache"
	"github.com/AgendaLivre/service-scheduling/internal/config"
	schedulingEvents "github.com/AgendaLivre/service-scheduling/internal/events"
	"github.com/AgendaLivre/service-scheduling/internal/handler"
	"github.com/AgendaLivre/service-scheduling/internal/repository"
	"github.com/AgendaLivre/service-scheduling/internal/saga"
	"github.com/AgendaLivre/service-scheduling/pkg/auth"
	"github.com/AgendaLivre/service-scheduling/pkg/database"
	"github.com/AgendaLivre/service-scheduling/pkg/health"
	"github.com/AgendaLivre/service-scheduling/pkg/kafka"
	"github.com/AgendaLivre/service-scheduling/pkg/logger"
	"github.com/AgendaLivre/service-scheduling/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-scheduling")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-scheduling",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	db, err := database.Connect(dbConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations. The exclusion constraint on appointments
	// cannot be expressed as a GORM tag, so SQL migrations are the source
	// of truth in every environment.
	if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", zapLogger); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Initialize notifier (log-backed for now)
	notifier := adapter.NewLogNotifier(zapLogger)

	// Initialize repositories and cache
	apptRepo := repository.NewAppointmentRepository(db)
	storeRepo := repository.NewGormStoreRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	storeCache := cache.NewStoreCache()

	// Initialize coupon redemption saga
	redemption := saga.NewCouponRedemptionService(couponRepo, kafkaProducer, zapLogger)

	// Initialize application services
	bookingService := application.NewBookingService(
		storeRepo, apptRepo, couponRepo,
		redemption, kafkaProducer, notifier, storeCache, zapLogger,
	)
	slotService := application.NewSlotService(storeRepo, apptRepo, storeCache, zapLogger)
	couponService := application.NewCouponService(couponRepo, zapLogger)
	storeService := application.NewStoreService(storeRepo, storeCache, kafkaProducer, zapLogger)

	// Initialize Kafka consumer for store events
	consumerGroupID := cfg.KafkaConfig.GroupPrefix + "scheduling-service"
	storeConsumer := schedulingEvents.NewStoreEventConsumer(
		cfg.KafkaConfig.Brokers,
		consumerGroupID,
		storeCache,
		zapLogger,
	)
	defer storeConsumer.Close()

	// Start Kafka consumer in a goroutine
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting store event consumer")
		if err := storeConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("store event consumer failed", zap.Error(err))
			}
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	storeHandler := handler.NewStoreHandler(storeService, slotService)
	couponHandler := handler.NewCouponHandler(couponService)
	adminHandler := handler.NewAdminHandler(bookingService, couponService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-scheduling")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(apiV1, jwtManager)
	storeHandler.RegisterRoutes(apiV1, jwtManager)
	couponHandler.RegisterRoutes(apiV1, jwtManager)
	adminHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-scheduling...")

	// Cancel Kafka consumer
	consumerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-scheduling stopped")
}
