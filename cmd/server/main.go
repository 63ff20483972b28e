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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mvdberg/squash-tracker/internal/api"
	"github.com/mvdberg/squash-tracker/internal/api/handlers"
	"github.com/mvdberg/squash-tracker/internal/api/middleware"
	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/services"
	"github.com/mvdberg/squash-tracker/internal/ws"
	"github.com/mvdberg/squash-tracker/pkg/config"
	"github.com/mvdberg/squash-tracker/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize services
	cacheService := services.NewCacheService(redisClient)
	scoreHub := ws.NewHub(logrus.StandardLogger())
	go scoreHub.Run()

	clock := scoring.SystemClock()
	session := services.NewMatchSession(clock, scoreHub)
	if cfg.DefaultBestOf > 0 {
		session.Setup("", "", scoring.Player1, cfg.DefaultBestOf)
	}

	store := services.NewMatchStore(db.DB, cacheService, clock)

	// Keys set through the API win over the environment fallback
	secrets := services.NewLayeredSecretStore(
		services.NewSecretStore(db.DB),
		services.NewEnvSecretStore(map[string]string{
			services.SecretNameAdviceKey: cfg.OpenAIAPIKey,
		}),
	)

	adviceService := services.NewAdviceService(db.DB, cacheService, secrets, services.AdviceOptions{
		Model:       cfg.AdviceModel,
		RateLimit:   cfg.AdviceRateLimit,
		Timeout:     time.Duration(cfg.AdviceRequestTimeout) * time.Second,
		CacheExpiry: time.Duration(cfg.AdviceCacheExpiry) * time.Second,
	})

	maintenance := services.NewMaintenanceService(adviceService, cacheService, logrus.StandardLogger(), cfg.AdviceRetentionDays)
	if cfg.EnableBackgroundJobs {
		if err := maintenance.Start(); err != nil {
			logrus.Errorf("Failed to start maintenance service: %v", err)
		}
		defer maintenance.Stop()
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logrus.StandardLogger()))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(db, redisClient, adviceService, scoreHub)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, api.Dependencies{
		Session: session,
		Store:   store,
		Advice:  adviceService,
		Secrets: secrets,
	})

	// Live scoreboard feed at root level (not under /api/v1)
	router.GET("/ws", scoreHub.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
