package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/ctxlog"
	"github.com/specialistvlad/rungridgo/internal/lifecycle"
	"github.com/specialistvlad/rungridgo/internal/runtable"
)

// ResultFileName is the name of the persisted result table inside the
// experiment directory.
const ResultFileName = "final_results.csv"

// Outcome classifies one run attempt.
type Outcome int

const (
	// OutcomeCompleted means the run produced a result row.
	OutcomeCompleted Outcome = iota
	// OutcomeNoMeasurement means the run finished its lifecycle but no
	// handler produced data; no row is recorded and that is not an error.
	OutcomeNoMeasurement
	// OutcomeFailed means a stage errored and the run was abandoned.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeNoMeasurement:
		return "no-measurement"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Orchestrator executes one experiment. Construct it with New; it is not
// reusable across experiments.
type Orchestrator struct {
	experiment *config.Experiment
	registry   *lifecycle.Registry
	table      *runtable.Table
	expDir     string

	// sleep is injectable so tests can observe the inter-run delay
	// without actually waiting.
	sleep func(time.Duration)

	done atomic.Int64
}

// New creates an orchestrator for the given experiment. expDir is the
// experiment directory under which run directories and the final table are
// created; it must already exist.
func New(experiment *config.Experiment, registry *lifecycle.Registry, table *runtable.Table, expDir string) *Orchestrator {
	return &Orchestrator{
		experiment: experiment,
		registry:   registry,
		table:      table,
		expDir:     expDir,
		sleep:      time.Sleep,
	}
}

// SetSleep replaces the inter-run delay function. Tests use this to count
// delays instead of waiting them out.
func (o *Orchestrator) SetSleep(fn func(time.Duration)) {
	o.sleep = fn
}

// Progress reports how many run attempts finished out of the total plan.
func (o *Orchestrator) Progress() (done, total int) {
	return int(o.done.Load()), o.table.Len()
}

// Run drives the experiment: BeforeExperiment, every planned run in order,
// AfterExperiment, then persistence. Per-run failures are logged and
// isolated; only a persistence failure is returned as an error. Cancelling
// the context stops scheduling new runs but still attempts to persist what
// was collected.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	plan := o.table.Plan()
	logger.Info("🚀 Starting experiment", "name", o.experiment.Name, "planned_runs", len(plan))

	if err := o.registry.Publish(ctx, lifecycle.BeforeExperiment); err != nil {
		return fmt.Errorf("experiment setup failed: %w", err)
	}

	for _, run := range plan {
		if ctx.Err() != nil {
			logger.Warn("Experiment cancelled, skipping remaining runs.", "completed_attempts", int(o.done.Load()))
			break
		}

		logger.Info("▶️ Starting run", "run", run.Index, "total", len(plan), "repetition", run.Repetition, "variation", run.Variation)
		outcome, err := o.executeRun(ctx, run)
		switch outcome {
		case OutcomeCompleted:
			logger.Info("✅ Run completed", "run", run.Index)
		case OutcomeNoMeasurement:
			logger.Warn("Run finished without a measurement; no result recorded.", "run", run.Index)
		case OutcomeFailed:
			logger.Error("Run failed; no result recorded.", "run", run.Index, "error", err)
		}
		o.done.Add(1)
	}

	if err := o.registry.Publish(ctx, lifecycle.AfterExperiment); err != nil {
		logger.Error("Experiment teardown failed.", "error", err)
	}

	resultPath := filepath.Join(o.expDir, ResultFileName)
	if err := o.table.WriteCSV(resultPath); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}
	logger.Info("🏁 Experiment finished", "results", resultPath, "rows", len(o.table.Records()))
	return nil
}

// executeRun performs one full run attempt. The inter-run delay is honored
// on every exit path, success or failure, so system state can settle
// before the next measurement; interactive mode skips it because the
// operator paces the runs.
func (o *Orchestrator) executeRun(ctx context.Context, run runtable.PlannedRun) (outcome Outcome, err error) {
	logger := ctxlog.FromContext(ctx)

	defer func() {
		if o.experiment.Mode == config.ModeAuto && o.experiment.TimeBetweenRuns > 0 {
			logger.Debug("Waiting before next run.", "delay", o.experiment.TimeBetweenRuns)
			o.sleep(o.experiment.TimeBetweenRuns)
		}
	}()

	runDir := filepath.Join(o.expDir, fmt.Sprintf("run_%03d", run.Index))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to create run directory: %w", err)
	}

	rc := &lifecycle.RunContext{
		Index:     run.Index,
		Dir:       runDir,
		Variation: run.Variation,
		Mode:      o.experiment.Mode,
	}

	for _, stage := range lifecycle.RunStages {
		if err := o.registry.PublishRun(ctx, stage, rc); err != nil {
			return OutcomeFailed, err
		}
	}

	data, err := o.registry.PublishData(ctx, rc)
	if err != nil {
		return OutcomeFailed, err
	}
	if data == nil {
		return OutcomeNoMeasurement, nil
	}

	if err := o.table.AddResult(run, data); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to record result: %w", err)
	}
	return OutcomeCompleted, nil
}
