// Package app wires the engine together: it builds the logger, loads the
// experiment declaration, registers the lifecycle modules and runs the
// orchestrator.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/ctxlog"
	"github.com/specialistvlad/rungridgo/internal/lifecycle"
	"github.com/specialistvlad/rungridgo/modules/energibridge"
	"github.com/specialistvlad/rungridgo/modules/workload"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ExperimentPath string
	ResultsDir     string // overrides the declaration's results dir when set
	LogFormat      string
	LogLevel       string
	StatusPort     int
	DryRun         bool
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	registry   *lifecycle.Registry
	experiment *config.Experiment
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry. The
// default module set (workload + energibridge) is used unless the caller
// provides its own, which tests do.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...lifecycle.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	experiment, err := loader.Load(ctx, appConfig.ExperimentPath)
	if err != nil {
		// A failure to load the declaration is a fatal startup error.
		panic(fmt.Errorf("failed to load experiment: %w", err))
	}
	if appConfig.ResultsDir != "" {
		experiment.ResultsDir = appConfig.ResultsDir
	}
	logger.Debug("Experiment loaded.", "name", experiment.Name)

	registry := lifecycle.New()
	if len(modules) == 0 {
		modules = []lifecycle.Module{
			workload.New(experiment.Workload),
			energibridge.New(experiment.Profiler),
		}
	}
	for _, mod := range modules {
		mod.Register(registry)
	}
	logger.Debug("All lifecycle modules registered.", "count", len(modules))

	return &App{
		outW:       outW,
		logger:     logger,
		registry:   registry,
		experiment: experiment,
	}
}

// Experiment returns the loaded experiment model. This is primarily for testing.
func (a *App) Experiment() *config.Experiment {
	return a.experiment
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *lifecycle.Registry {
	return a.registry
}
