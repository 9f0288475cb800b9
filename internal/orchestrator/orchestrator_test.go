package orchestrator

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/lifecycle"
	"github.com/specialistvlad/rungridgo/internal/runtable"
	"github.com/specialistvlad/rungridgo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExperiment() *config.Experiment {
	return &config.Experiment{
		Name:            "test",
		Repetitions:     2,
		Mode:            config.ModeAuto,
		TimeBetweenRuns: 10 * time.Millisecond,
		Factors: []runtable.Factor{
			{Name: "compiler", Levels: []string{"a", "b"}},
			{Name: "benchmark", Levels: []string{"x", "y"}},
		},
		DataColumns: []string{"metric"},
	}
}

// newTestOrchestrator builds an orchestrator over a fresh plan with a
// counting sleep function, so tests never actually pause.
func newTestOrchestrator(t *testing.T, exp *config.Experiment, reg *lifecycle.Registry) (*Orchestrator, *runtable.Table, string, *int) {
	t.Helper()
	plan := runtable.GeneratePlan(exp.Factors, exp.Repetitions, false, nil)
	table := runtable.New(exp.Factors, exp.DataColumns, plan)
	expDir := t.TempDir()

	orch := New(exp, reg, table, expDir)
	sleeps := 0
	orch.SetSleep(func(time.Duration) { sleeps++ })
	return orch, table, expDir, &sleeps
}

func readResults(t *testing.T, expDir string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(expDir, ResultFileName))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	reg := lifecycle.New()

	var stages []string
	for _, stage := range lifecycle.RunStages {
		s := stage
		reg.OnRun(s, func(ctx context.Context, rc *lifecycle.RunContext) error {
			stages = append(stages, s.String())
			return nil
		})
	}
	reg.OnData(func(ctx context.Context, rc *lifecycle.RunContext) (map[string]float64, error) {
		return map[string]float64{"metric": 1.0}, nil
	})

	orch, table, expDir, sleeps := newTestOrchestrator(t, exp, reg)
	require.NoError(t, orch.Run(testutil.Context()))

	// 2 factors x 2 levels x 2 repetitions = 8 runs, all recorded.
	assert.Len(t, table.Records(), 8)
	assert.Equal(t, 8, *sleeps, "delay honored after every run")

	rows := readResults(t, expDir)
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"compiler", "benchmark", "metric"}, rows[0])
	for _, row := range rows[1:] {
		assert.Equal(t, "1", row[2])
	}

	// Stage order is fixed per run and runs never interleave.
	require.Len(t, stages, 8*len(lifecycle.RunStages))
	for i, stage := range stages {
		assert.Equal(t, lifecycle.RunStages[i%len(lifecycle.RunStages)].String(), stage)
	}

	done, total := orch.Progress()
	assert.Equal(t, 8, done)
	assert.Equal(t, 8, total)
}

func TestRun_CreatesRunDirectories(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	reg := lifecycle.New()
	var dirs []string
	reg.OnRun(lifecycle.BeforeRun, func(ctx context.Context, rc *lifecycle.RunContext) error {
		info, err := os.Stat(rc.Dir)
		require.NoError(t, err, "run dir must exist before the first stage")
		require.True(t, info.IsDir())
		dirs = append(dirs, filepath.Base(rc.Dir))
		return nil
	})

	orch, _, _, _ := newTestOrchestrator(t, exp, reg)
	require.NoError(t, orch.Run(testutil.Context()))

	require.Len(t, dirs, 8)
	assert.Equal(t, "run_001", dirs[0])
	assert.Equal(t, "run_008", dirs[7])
}

func TestRun_FailedRunIsIsolated(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	reg := lifecycle.New()
	reg.OnRun(lifecycle.StartRun, func(ctx context.Context, rc *lifecycle.RunContext) error {
		if rc.Index == 2 {
			return errors.New("workload entry point not found")
		}
		return nil
	})
	var populated int
	reg.OnData(func(ctx context.Context, rc *lifecycle.RunContext) (map[string]float64, error) {
		populated++
		return map[string]float64{"metric": 1.0}, nil
	})

	orch, table, _, sleeps := newTestOrchestrator(t, exp, reg)
	require.NoError(t, orch.Run(testutil.Context()), "a failed run is not an experiment error")

	assert.Len(t, table.Records(), 7, "the failed run records no result")
	assert.Equal(t, 7, populated, "the failed run never reaches POPULATE_RUN_DATA")
	assert.Equal(t, 8, *sleeps, "delay honored even after a failure")
}

func TestRun_AbsentMeasurement(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	reg := lifecycle.New()
	reg.OnData(func(ctx context.Context, rc *lifecycle.RunContext) (map[string]float64, error) {
		if rc.Index == 1 {
			return nil, nil
		}
		return map[string]float64{"metric": 1.0}, nil
	})

	orch, table, _, sleeps := newTestOrchestrator(t, exp, reg)
	require.NoError(t, orch.Run(testutil.Context()))

	assert.Len(t, table.Records(), 7, "no row for the run without a measurement")
	assert.Equal(t, 8, *sleeps, "the experiment and the delay proceed normally")
}

func TestRun_InteractiveModeSkipsDelay(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	exp.Mode = config.ModeInteractive
	reg := lifecycle.New()
	reg.OnData(func(ctx context.Context, rc *lifecycle.RunContext) (map[string]float64, error) {
		return map[string]float64{"metric": 1.0}, nil
	})

	orch, _, _, sleeps := newTestOrchestrator(t, exp, reg)
	require.NoError(t, orch.Run(testutil.Context()))
	assert.Zero(t, *sleeps)
}

func TestRun_ExperimentScopedStages(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	reg := lifecycle.New()
	var events []string
	reg.OnExperiment(lifecycle.BeforeExperiment, func(ctx context.Context) error {
		events = append(events, "before")
		return nil
	})
	reg.OnRun(lifecycle.StartRun, func(ctx context.Context, rc *lifecycle.RunContext) error {
		if len(events) == 1 {
			events = append(events, "runs")
		}
		return nil
	})
	reg.OnExperiment(lifecycle.AfterExperiment, func(ctx context.Context) error {
		events = append(events, "after")
		return nil
	})

	orch, _, _, _ := newTestOrchestrator(t, exp, reg)
	require.NoError(t, orch.Run(testutil.Context()))
	assert.Equal(t, []string{"before", "runs", "after"}, events)
}

func TestRun_BeforeExperimentFailureIsFatal(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	reg := lifecycle.New()
	reg.OnExperiment(lifecycle.BeforeExperiment, func(ctx context.Context) error {
		return errors.New("setup failed")
	})

	orch, _, _, _ := newTestOrchestrator(t, exp, reg)
	assert.ErrorContains(t, orch.Run(testutil.Context()), "experiment setup failed")
}

func TestRun_CancellationStopsSchedulingButPersists(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	reg := lifecycle.New()

	ctx, cancel := context.WithCancel(testutil.Context())
	reg.OnData(func(ctx2 context.Context, rc *lifecycle.RunContext) (map[string]float64, error) {
		if rc.Index == 3 {
			cancel()
		}
		return map[string]float64{"metric": 1.0}, nil
	})

	orch, table, expDir, _ := newTestOrchestrator(t, exp, reg)
	require.NoError(t, orch.Run(ctx))

	assert.Len(t, table.Records(), 3)
	rows := readResults(t, expDir)
	assert.Len(t, rows, 4, "collected results are still persisted")
}

func TestRun_PersistFailureIsFatal(t *testing.T) {
	t.Parallel()

	exp := testExperiment()
	plan := runtable.GeneratePlan(exp.Factors, exp.Repetitions, false, nil)
	table := runtable.New(exp.Factors, exp.DataColumns, plan)

	// A plain file where the experiment directory should be: run dirs
	// cannot be created, so every run fails, and that alone is tolerated;
	// but the final table cannot be written either, and that is fatal.
	expDir := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(expDir, []byte("in the way"), 0o644))

	orch := New(exp, lifecycle.New(), table, expDir)
	orch.SetSleep(func(time.Duration) {})

	err := orch.Run(testutil.Context())
	require.ErrorContains(t, err, "failed to persist results")
}
