package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/datamorph/datamorph/internal/config"
	"github.com/datamorph/datamorph/internal/handler"
	"github.com/datamorph/datamorph/internal/llm"
	"github.com/datamorph/datamorph/internal/service"
	"github.com/datamorph/datamorph/internal/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	// External clients
	LLMClient   llm.Client
	ObjectStore *storage.MinIOStore

	// Services
	AuditSink       *service.AuditSink
	Telemetry       *service.TelemetryRecorder
	PipelineService *service.PipelineService

	// Handlers
	HealthHandler    *handler.HealthHandler
	TransformHandler *handler.TransformHandler
}

// initDependencies initializes all dependencies. The LLM and object store
// clients are created exactly once here and passed by reference into the
// components that need them; there is no ambient global client state.
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	ctx := context.Background()

	// Initialize the object store backing the audit trail. The audit trail is
	// best-effort, so a missing store degrades it instead of failing startup.
	store, err := storage.NewMinIOStore(ctx, cfg.MinIO)
	if err != nil {
		logger.Warn("failed to initialize object store, audit trail will be unavailable", zap.Error(err))
	}
	deps.ObjectStore = store

	// Initialize the chat completion client
	deps.LLMClient = llm.NewOpenAIClient(cfg.LLM)

	// Initialize services
	if store != nil {
		deps.AuditSink = service.NewAuditSink(store, logger)
	} else {
		deps.AuditSink = service.NewAuditSink(storage.Discard{}, logger)
	}
	deps.Telemetry = service.NewTelemetryRecorder(deps.AuditSink, logger)
	deps.PipelineService = service.NewPipelineService(deps.LLMClient, deps.Telemetry, logger)

	// Initialize handlers
	deps.HealthHandler = handler.NewHealthHandler(
		pingerOrNil(store),
		cfg.LLM.APIKey != "",
		appVersion,
	)
	deps.TransformHandler = handler.NewTransformHandler(
		deps.PipelineService,
		logger,
	)

	return deps, nil
}

// pingerOrNil avoids handing the health handler a typed nil.
func pingerOrNil(store *storage.MinIOStore) handler.Pinger {
	if store == nil {
		return nil
	}
	return store
}
