package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/infrastructure/logger"
	_ "github.com/janhq/notes-mcp/internal/infrastructure/metrics" // Register Prometheus metrics
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver"
	"github.com/janhq/notes-mcp/pkg/observability"
)

type Application struct {
	httpServer    *httpserver.HTTPServer
	observability *observability.Provider
	config        *config.Config
}

func init() {
	// Initialize logger with default settings
	logger.Init("info", "json")
}

// Start serves HTTP until ctx is cancelled and flushes telemetry afterwards
func (app *Application) Start(ctx context.Context) error {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := app.observability.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("failed to flush telemetry")
		}
	}()
	return app.httpServer.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.LoadEnvFiles()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Re-initialize logger with config settings
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Str("storage_backend", cfg.StorageBackend).
		Strs("allowed_domains", cfg.AllowedDomains()).
		Msg("Starting notes MCP service")

	application, err := CreateApplication(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server stopped")
}
