// Package app wires the engine together: configuration, logging, schema
// loading, the component registry, the artifact store, and the execution
// API consumed by the CLI and by embedding callers.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/ctxlog"
	"github.com/plexusml/plexus/internal/executor"
	"github.com/plexusml/plexus/internal/hclschema"
	"github.com/plexusml/plexus/internal/schema"
	"github.com/plexusml/plexus/internal/storage"
	"github.com/plexusml/plexus/internal/yamlschema"
	"github.com/plexusml/plexus/modules/message"
	"github.com/plexusml/plexus/modules/tokenizer"
)

// Loader turns a pipeline document on disk into the in-memory schema.
type Loader interface {
	Load(ctx context.Context, path string) (*schema.Schema, error)
}

// App owns one engine instance: an isolated logger, a registry of
// component providers, a validated schema, and an open artifact store.
type App struct {
	logger    *slog.Logger
	registry  *component.Registry
	store     *storage.Store
	validated *schema.Validated
	config    *Config
}

// New builds a fully initialized App. When no providers are passed the
// built-in component set is registered.
func New(outW io.Writer, cfg *Config, providers ...component.Provider) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured.")

	loader, err := loaderFor(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	s, err := loader.Load(ctx, cfg.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	validated, err := schema.Validate(s)
	if err != nil {
		return nil, err
	}
	logger.Debug("Schema validated.", "nodes", len(validated.Order), "targets", len(validated.Targets()))

	registry := component.NewRegistry()
	if len(providers) == 0 {
		providers = coreProviders()
	}
	for _, p := range providers {
		registry.Register(p)
	}
	if err := registry.Validate(validated); err != nil {
		return nil, err
	}
	logger.Debug("Component registry validated.", "providers", len(providers))

	store, err := storage.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Artifact store opened.", "root", store.Root())

	return &App{
		logger:    logger,
		registry:  registry,
		store:     store,
		validated: validated,
		config:    cfg,
	}, nil
}

// coreProviders is the built-in component set.
func coreProviders() []component.Provider {
	return []component.Provider{
		message.Provider{},
		tokenizer.TrainerProvider{},
		tokenizer.Provider{},
	}
}

// loaderFor picks the schema loader by document extension.
func loaderFor(path string) (Loader, error) {
	switch filepath.Ext(path) {
	case ".hcl":
		return hclschema.NewLoader(), nil
	case ".yaml", ".yml":
		return yamlschema.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported schema document format: %s", path)
	}
}

// Execute is the execution API: run the schema in the given mode with the
// given raw external inputs.
func (a *App) Execute(ctx context.Context, mode component.Mode, rawInputs map[string]any, cache executor.CachePolicy) (*executor.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	exec := executor.New(a.registry, a.store)
	return exec.Run(ctx, a.validated, executor.Options{
		Mode:           mode,
		ExternalInputs: rawInputs,
		Cache:          cache,
		Workers:        a.config.Workers,
	})
}

// Train runs the schema in training mode.
func (a *App) Train(ctx context.Context, cache executor.CachePolicy) (*executor.Result, error) {
	return a.Execute(ctx, component.ModeTrain, nil, cache)
}

// Predict runs the schema in prediction mode over one external input set.
func (a *App) Predict(ctx context.Context, rawInputs map[string]any, cache executor.CachePolicy) (*executor.Result, error) {
	return a.Execute(ctx, component.ModePredict, rawInputs, cache)
}

// Store exposes the artifact store, primarily for inspection commands and
// tests.
func (a *App) Store() *storage.Store {
	return a.store
}

// Schema returns the validated schema the app was built around.
func (a *App) Schema() *schema.Validated {
	return a.validated
}
