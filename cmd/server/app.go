package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bskmedia/media-api/internal/config"
	"github.com/bskmedia/media-api/internal/generation"
	"github.com/bskmedia/media-api/internal/platform/gemini"
	"github.com/bskmedia/media-api/internal/platform/postgres"
	"github.com/bskmedia/media-api/internal/platform/renderer"
	"github.com/bskmedia/media-api/internal/service"
	"github.com/bskmedia/media-api/internal/storage"
	"github.com/bskmedia/media-api/internal/store"
	"github.com/bskmedia/media-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown. Every component is
// constructed exactly once here and injected where needed.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	requestStore store.RequestStore
	versionStore store.VersionStore
	catalogStore store.CatalogStore

	// Media production
	pipeline  generation.Pipeline
	fileStore *storage.FileStore

	// Services
	resolverService *service.ResolverService
	notifierService *service.NotifierService
	queueService    *service.QueueService

	// Task handling
	taskFactory *task.GenerationTaskFactory
	taskRunner  *task.Runner
}

// newApplication creates a new application instance with all
// dependencies initialized. It accepts core dependencies like
// configuration, logger, and database connection that must be
// established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize stores
	app.requestStore = postgres.NewPostgresRequestStore(db, logger)
	app.versionStore = postgres.NewPostgresVersionStore(db, logger)
	app.catalogStore = postgres.NewPostgresCatalogStore(db, logger)

	// Initialize the slide planning and rendering pipeline
	planner, err := gemini.NewSlidePlanner(ctx, logger.With("component", "slide_planner"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize slide planner: %w", err)
	}

	httpRenderer, err := renderer.NewHTTPRenderer(cfg.Renderer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}

	app.pipeline, err = generation.NewSlideDeckPipeline(planner, httpRenderer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation pipeline: %w", err)
	}
	logger.Info("Generation pipeline initialized", "model", cfg.LLM.ModelName)

	// Initialize artifact storage
	app.fileStore, err = storage.NewFileStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	// Initialize services
	app.resolverService, err = service.NewResolverService(app.catalogStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver service: %w", err)
	}

	app.notifierService, err = service.NewNotifierService(cfg.Push, app.requestStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier service: %w", err)
	}

	// Create task factory
	app.taskFactory, err = task.NewGenerationTaskFactory(
		app.requestStore,
		app.versionStore,
		app.fileStore,
		app.pipeline,
		app.notifierService,
		cfg.Queue.PipelineTimeout,
		cfg.Queue.PipelineRetries,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task factory: %w", err)
	}

	// Initialize and start the task runner
	app.taskRunner = task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Queue.WorkerCount,
		QueueSize:   cfg.Queue.QueueSize,
	}, logger)
	app.taskRunner.Start()

	// Initialize queue service
	app.queueService, err = service.NewQueueService(
		app.requestStore,
		app.resolverService,
		app.taskFactory,
		app.taskRunner,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue service: %w", err)
	}

	// Reconcile requests left over from a previous process. The status
	// writes run in one transaction so a crash mid-recovery leaves the
	// table untouched; requeueing only feeds the in-memory queue.
	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return task.RecoverInterrupted(ctx, app.requestStore.WithTx(tx), app.taskFactory, app.taskRunner, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recover interrupted requests: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop task runner first so in-flight jobs drain before the DB closes
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
