package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/config"
	ticketDomain "github.com/gerakkita/service-transit/internal/domain/ticket"
	"github.com/gerakkita/service-transit/internal/eta"
	transitEvents "github.com/gerakkita/service-transit/internal/events"
	"github.com/gerakkita/service-transit/internal/handler"
	"github.com/gerakkita/service-transit/internal/payment"
	"github.com/gerakkita/service-transit/internal/platform/auth"
	"github.com/gerakkita/service-transit/internal/platform/database"
	"github.com/gerakkita/service-transit/internal/platform/health"
	"github.com/gerakkita/service-transit/internal/platform/logger"
	"github.com/gerakkita/service-transit/internal/platform/metrics"
	"github.com/gerakkita/service-transit/internal/platform/middleware"
	"github.com/gerakkita/service-transit/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-transit")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-transit",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.UserModel{},
			&repository.DriverModel{},
			&repository.RouteModel{},
			&repository.BusStopModel{},
			&repository.RouteStopModel{},
			&repository.BusModel{},
			&repository.TransactionModel{},
			&repository.TicketModel{},
			&repository.WalletModel{},
			&repository.WalletEntryModel{},
			&repository.ReviewModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := cfg.DBConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize metrics and serve them on a side port
	collector := metrics.NewCollector()
	go collector.Serve(cfg.MetricsAddr, log)

	// Initialize Kafka producer
	kafkaProducer := transitEvents.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	busRepo := repository.NewGormBusRepository(db)
	routeRepo := repository.NewGormRouteRepository(db)
	transactionRepo := repository.NewGormTransactionRepository(db)
	ticketRepo := repository.NewGormTicketRepository(db)
	walletRepo := repository.NewGormWalletRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Initialize payment gateway client
	snapClient := payment.NewSnapClient(cfg.Midtrans.BaseURL, cfg.Midtrans.ServerKey, 15*time.Second)

	// Initialize application services
	trackingService := application.NewTrackingService(busRepo, cfg.Tracking.PublishInterval, collector, log)
	routeService := application.NewRouteService(routeRepo, busRepo, eta.NewPlaceholderEstimator(), log)
	ticketService := application.NewTicketService(
		transactionRepo,
		ticketRepo,
		routeRepo,
		userRepo,
		walletRepo,
		ticketDomain.NewStandardFareStrategy(),
		snapClient,
		kafkaProducer,
		log,
	)
	walletService := application.NewWalletService(walletRepo, userRepo, snapClient, kafkaProducer, log)
	reviewService := application.NewReviewService(reviewRepo, log)
	profileService := application.NewProfileService(userRepo, log)
	fleetService := application.NewFleetService(busRepo, routeRepo, userRepo, log)
	paymentService := application.NewPaymentService(ticketService, walletService, cfg.Midtrans.ServerKey, kafkaProducer, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "transit-service"
	paymentConsumer := transitEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		paymentService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	trackingHandler := handler.NewTrackingHandler(trackingService)
	routeHandler := handler.NewRouteHandler(routeService, cfg.Tracking.RefreshInterval, log)
	ticketHandler := handler.NewTicketHandler(ticketService)
	walletHandler := handler.NewWalletHandler(walletService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	profileHandler := handler.NewProfileHandler(profileService)
	adminHandler := handler.NewAdminHandler(fleetService)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-transit")
	healthHandler.RegisterRoutes(router)

	// Register routes
	trackingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	routeHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	ticketHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	walletHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	reviewHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	profileHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	paymentHandler.RegisterRoutes(&router.RouterGroup)

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
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-transit...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// Stop active tracking sessions so published positions are retracted
	trackingService.Shutdown(shutdownCtx)

	log.Info("service-transit stopped")
}
