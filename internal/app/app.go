package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/treasurypulse/config"
	"github.com/guttosm/treasurypulse/internal/analytics"
	"github.com/guttosm/treasurypulse/internal/api"
	"github.com/guttosm/treasurypulse/internal/fetcher"
	"github.com/guttosm/treasurypulse/internal/pipeline"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// postgresOpener is an indirection for unit testing; defaults to InitPostgres.
var postgresOpener = InitPostgres

// Components bundles the shared dependencies every run mode needs: the open
// database handle, the repository over it, and the ingestion orchestrator.
type Components struct {
	DB           *sql.DB
	Repo         storage.AuctionsRepository
	Orchestrator *pipeline.Orchestrator
}

// InitComponents connects to PostgreSQL, ensures the schema exists, and wires
// the fetch-and-upsert pipeline.
//
// Returns:
//   - *Components: the shared dependency bundle.
//   - func(): cleanup function closing the database connection.
//   - error: any initialization error that occurred.
func InitComponents(ctx context.Context) (*Components, func(), error) {
	cfg := config.AppConfig

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	cleanup := func() {
		_ = db.Close()
	}

	repo := storage.NewAuctionsRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	client := fetcher.New(cfg.Treasury, cfg.Cache)
	orch := pipeline.NewOrchestrator(repo, client, cfg.Treasury.MaxRecords)

	return &Components{DB: db, Repo: repo, Orchestrator: orch}, cleanup, nil
}

// InitializeApp sets up all API-mode dependencies and returns a fully
// configured Gin router, a cleanup function for graceful shutdown, and any
// error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL and ensures the schema.
//   - Initializes the repository, analytics engine, and pipeline.
//   - Creates the HTTP handler layer and configures the Gin router.
//   - Registers health and readiness probes.
func InitializeApp(ctx context.Context) (*gin.Engine, func(), error) {
	components, cleanup, err := InitComponents(ctx)
	if err != nil {
		return nil, nil, err
	}

	engine := analytics.NewEngine(components.Repo)
	handler := api.NewHandler(engine, components.Repo, components.Orchestrator)
	router := api.NewRouter(handler)

	healthHandler := api.NewHealthHandler(components.DB.Ping)
	healthHandler.Register(router)

	return router, cleanup, nil
}
