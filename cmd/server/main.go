package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marbelle/marbelle-backend/config"
	"github.com/marbelle/marbelle-backend/internal/app/controller"
	"github.com/marbelle/marbelle-backend/internal/app/repository"
	"github.com/marbelle/marbelle-backend/internal/app/service"
	"github.com/marbelle/marbelle-backend/internal/db"
	"github.com/marbelle/marbelle-backend/internal/middleware"
	"github.com/marbelle/marbelle-backend/internal/router"
	"github.com/marbelle/marbelle-backend/internal/scheduler"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"github.com/marbelle/marbelle-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting MARBELLE Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist; logout still works without it, so
	// a connection failure only degrades revocation.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Failed to connect to Redis, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redis.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	sessionRepo := repository.NewSessionRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	// Initialize services
	sessionService := service.NewSessionService(db.GetDB(), sessionRepo, cartRepo, cfg.Session.TTL)
	cartService := service.NewCartService(db.GetDB(), cartRepo, productRepo)
	cartMergeService := service.NewCartMergeService(db.GetDB(), cartRepo, sessionRepo, productRepo)
	authService := service.NewAuthService(
		userRepo,
		cartMergeService,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	cartController := controller.NewCartController(cartService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start session cleanup scheduler
	sessionScheduler := scheduler.NewSessionScheduler(sessionService)
	if err := sessionScheduler.Start(); err != nil {
		logger.Fatal("Failed to start session scheduler", err)
	}
	defer sessionScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		cartController,
		authMiddleware,
		sessionService,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
