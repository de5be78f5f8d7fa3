package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battery-arbitrage/internal/api/handlers"
	"battery-arbitrage/internal/api/middleware"
	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("API_ENV") != "production",
	})
	logger.SetGlobalLogger(log)

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	cacheTTL := time.Hour
	if v := os.Getenv("RESULT_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatal().Err(err).Str("value", v).Msg("invalid RESULT_CACHE_TTL")
		}
		cacheTTL = d
	}
	dirs := handlers.Dirs{
		Data:      handlers.ResolveDir("DATA_DIR", "data"),
		Batteries: handlers.ResolveDir("BATTERY_DIR", "batteries"),
	}
	log.Info().Str("data_dir", dirs.Data).Str("battery_dir", dirs.Batteries).Msg("resolved directories")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up Gin router
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	// Initialize handlers
	cache := backtest.NewResultCache(ctx, cacheTTL, cacheTTL/4)
	backtestHandler := handlers.NewBacktestHandler(backtest.New(log), cache, dirs, log)
	policyHandler := handlers.NewPolicyHandler(log)
	rankHandler := handlers.NewRankHandler(dirs, log)
	batteryHandler := handlers.NewBatteryHandler(dirs.Batteries, log)
	datasetHandler := handlers.NewDatasetHandler(dirs.Data, log)
	strategyHandler := handlers.NewStrategyHandler()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cached_results": cache.Len()})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/ledger", backtestHandler.GetLedger)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)

		api.POST("/policy/act", policyHandler.Act)
		api.POST("/reward/score", policyHandler.Score)

		api.POST("/profile", rankHandler.Profile)
		api.GET("/rank", rankHandler.RankDatasets)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/strategies", strategyHandler.ListStrategies)
		api.GET("/datasets", datasetHandler.ListDatasets)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
