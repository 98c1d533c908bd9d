package main

//
//  @title           treasurypulse API
//  @version         1.0
//  @description     U.S. Treasury auction ingestion & analytics service.
//  @termsOfService  https://github.com/guttosm/treasurypulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/treasurypulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        analytics
//  @tag.description Volatility, correlation, anomaly, and stress-index endpoints
//
//  @tag.name        auctions
//  @tag.description Auction result listings
//
//  @tag.name        pipeline
//  @tag.description Ingestion runs and their audit log
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/treasurypulse/config"
	_ "github.com/guttosm/treasurypulse/docs" // swagger docs
	"github.com/guttosm/treasurypulse/internal/app"
	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/fiscal"
	"github.com/guttosm/treasurypulse/internal/logger"
	"github.com/guttosm/treasurypulse/internal/pipeline"
	"github.com/guttosm/treasurypulse/internal/scheduler"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the treasurypulse application.
//
// Modes (selected via --mode flag):
//   - pipeline:  Runs one fetch-and-upsert pass against the TreasuryDirect API.
//   - fiscal:    Loads the fiscal policy CSV exports into the database.
//   - scheduler: Blocks and runs the pipeline daily at the configured UTC time.
//   - api:       Starts the REST API exposing auction analytics.
//
// Flags:
//   - --mode: Execution mode. Default: "pipeline".
//   - --dir:  Directory containing fiscal CSV exports (fiscal mode).
//   - --port: Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "pipeline", "Mode: pipeline, fiscal, scheduler or api")
	dir := flag.String("dir", config.AppConfig.Fiscal.CSVDir, "Directory with fiscal CSV exports")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "pipeline":
		logger.L().Info().Msg("running ingestion pipeline")

		components, cleanup, err := app.InitComponents(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer cleanup()

		result := components.Orchestrator.Run(ctx, models.RunTypeManual)
		if result.Status != pipeline.StatusSuccess {
			logger.L().Fatal().Str("error", result.Error).Msg("pipeline run failed")
		}
		logger.L().Info().
			Int("fetched", result.Fetched).
			Int("inserted", result.Inserted).
			Int("updated", result.Updated).
			Int("errors", result.Errors).
			Msg("pipeline run completed")

	case "fiscal":
		logger.L().Info().Str("dir", *dir).Msg("loading fiscal policy data")

		components, cleanup, err := app.InitComponents(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer cleanup()

		result, err := fiscal.NewLoader(components.Repo, *dir).Run(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("fiscal load failed")
		}
		logger.L().Info().
			Int("articles_inserted", result.ArticlesInserted).
			Int("articles_updated", result.ArticlesUpdated).
			Int("indices_inserted", result.IndicesInserted).
			Int("phrases_inserted", result.PhrasesInserted).
			Msg("fiscal load completed")

	case "scheduler":
		logger.L().Info().Msg("starting daily scheduler")

		components, cleanup, err := app.InitComponents(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer cleanup()

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched := scheduler.New(
			components.Repo,
			components.Orchestrator,
			config.AppConfig.Scheduler.Hour,
			config.AppConfig.Scheduler.Minute,
		)
		sched.Start(sigCtx)
		logger.L().Info().Msg("scheduler stopped")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
