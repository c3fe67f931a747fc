package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/staffmeal/validation-service/config"
	"github.com/staffmeal/validation-service/internal/database"
	"github.com/staffmeal/validation-service/internal/explain"
	"github.com/staffmeal/validation-service/internal/handlers"
	"github.com/staffmeal/validation-service/internal/inference"
	"github.com/staffmeal/validation-service/internal/middleware"
	"github.com/staffmeal/validation-service/internal/store"
	"github.com/staffmeal/validation-service/internal/sweepers"
	"github.com/staffmeal/validation-service/internal/telemetry"
	"github.com/staffmeal/validation-service/internal/validation"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting validation service")

	ctx := context.Background()

	shutdownTelemetry := telemetry.MustInit(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: telemetry.DefaultServiceName,
		Environment: cfg.Telemetry.Environment,
	})
	defer shutdownTelemetry(ctx)

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(ctx, database.Config{
		URL:             dbURL,
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	recordStore := store.NewPostgresStore(database.Pool())
	if err := recordStore.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure record schema")
	}

	provider, err := inference.NewProvider(cfg.Inference)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure inference provider")
	}
	logger.Info().Str("model", provider.ModelVersion()).Msg("Inference provider ready")

	explainer := explain.NewGeminiExplainer(cfg.Explain)
	validator := validation.NewService(recordStore, provider, *logger)
	api := handlers.NewAPI(recordStore, validator, explainer, cfg.Alerts)

	retention := time.Duration(cfg.Retention.RecordRetentionDays) * 24 * time.Hour
	sweeper := sweepers.NewRetentionSweeper(recordStore, *logger, cfg.Retention.SweepInterval, retention)
	go sweeper.Start(ctx)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.InternalAuthMiddleware(cfg.Auth.InternalAPIKey))
	v1.Use(middleware.RateLimitMiddleware())
	{
		validations := v1.Group("/validations")
		{
			validations.POST("", api.ValidateBag)
			validations.GET("", api.ListRecords)
			validations.POST("/explanation", api.ExplainValidation)
		}

		statsGroup := v1.Group("/stats")
		{
			statsGroup.GET("", api.GetStatistics)
			statsGroup.GET("/alerts", api.GetAlerts)
			statsGroup.GET("/export", api.ExportStatistics)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("/payload", api.EncodePayload)
			orders.POST("/payload/decode", api.DecodePayload)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "validation-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
