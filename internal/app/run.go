package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/rungridgo/internal/ctxlog"
	"github.com/specialistvlad/rungridgo/internal/orchestrator"
	"github.com/specialistvlad/rungridgo/internal/runtable"
)

// Run executes the experiment based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	seed := a.experiment.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	plan := runtable.GeneratePlan(a.experiment.Factors, a.experiment.Repetitions, a.experiment.Shuffle, rng)
	a.logger.Info("Run plan generated.", "runs", len(plan), "repetitions", a.experiment.Repetitions, "shuffle", a.experiment.Shuffle)

	if appConfig.DryRun {
		a.printPlan(plan)
		return nil
	}

	table := runtable.New(a.experiment.Factors, a.experiment.DataColumns, plan)

	expDir := filepath.Join(a.experiment.ResultsDir, a.experiment.Name)
	if err := os.MkdirAll(expDir, 0o755); err != nil {
		return fmt.Errorf("failed to create experiment directory %s: %w", expDir, err)
	}

	orch := orchestrator.New(a.experiment, a.registry, table, expDir)

	if appConfig.StatusPort > 0 {
		a.startStatusServer(appConfig.StatusPort, orch)
	}

	return orch.Run(ctx)
}

// printPlan writes the planned run sequence to the app's output without
// executing anything.
func (a *App) printPlan(plan []runtable.PlannedRun) {
	fmt.Fprintf(a.outW, "Experiment %q: %d planned runs\n", a.experiment.Name, len(plan))
	for _, run := range plan {
		fmt.Fprintf(a.outW, "  %s\n", run)
	}
}
