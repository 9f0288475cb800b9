// Package energibridge is the lifecycle module that drives the external
// profiler: it spawns it at StartMeasurement pointed at the run directory,
// stops it at StopMeasurement with a bounded wait followed by forced
// termination, and extracts the run's data columns from the capture file
// at PopulateRunData.
package energibridge

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/ctxlog"
	"github.com/specialistvlad/rungridgo/internal/lifecycle"
	"github.com/specialistvlad/rungridgo/internal/measure"
	"github.com/specialistvlad/rungridgo/internal/proc"
)

// Module implements the lifecycle.Module interface for this package.
type Module struct {
	cfg config.Profiler

	// profiler is run-scoped: set at StartMeasurement, cleared at
	// BeforeRun so a stale handle never outlives its run.
	profiler *proc.Handle

	// sleep is injectable so tests can skip the settle delay.
	sleep func(time.Duration)
}

// New creates the profiler module from the experiment's profiler settings.
func New(cfg config.Profiler) *Module {
	return &Module{cfg: cfg, sleep: time.Sleep}
}

// SetSleep replaces the settle-delay function, for tests.
func (m *Module) SetSleep(fn func(time.Duration)) {
	m.sleep = fn
}

// Register hooks the module's handlers into the registry.
func (m *Module) Register(r *lifecycle.Registry) {
	r.OnRun(lifecycle.BeforeRun, m.beforeRun)
	r.OnRun(lifecycle.StartMeasurement, m.startMeasurement)
	r.OnRun(lifecycle.StopMeasurement, m.stopMeasurement)
	r.OnData(m.populateRunData)
}

func (m *Module) beforeRun(ctx context.Context, rc *lifecycle.RunContext) error {
	m.profiler = nil
	return nil
}

// capturePath is where the profiler writes this run's telemetry.
func (m *Module) capturePath(rc *lifecycle.RunContext) string {
	return filepath.Join(rc.Dir, m.cfg.CaptureFile)
}

// startMeasurement spawns the profiler instructed to write into the run
// directory and to execute the measured command, then settles briefly so
// profiler startup overhead is not measured. A spawn failure is fatal to
// this run.
func (m *Module) startMeasurement(ctx context.Context, rc *lifecycle.RunContext) error {
	logger := ctxlog.FromContext(ctx)
	measured := config.Interpolate(m.cfg.Measured, rc.Vars())
	command := fmt.Sprintf("%s --output %s --summary %s", m.cfg.Command, m.capturePath(rc), measured)
	logger.Debug("Spawning profiler.", "command", command)

	handle, err := proc.Start(ctx, proc.Spec{Command: command})
	if err != nil {
		return fmt.Errorf("failed to start profiler: %w", err)
	}
	m.profiler = handle

	m.sleep(m.cfg.SettleDelay)
	return nil
}

// stopMeasurement waits for the profiler up to the configured bound, then
// sends a termination signal rather than blocking further. Neither a
// timeout nor a non-zero exit is fatal; an incomplete capture simply means
// less data at PopulateRunData.
func (m *Module) stopMeasurement(ctx context.Context, rc *lifecycle.RunContext) error {
	logger := ctxlog.FromContext(ctx)
	if m.profiler == nil {
		return nil
	}

	err := m.profiler.WaitTimeout(ctx, m.cfg.StopTimeout)
	switch {
	case err == nil:
	case errors.Is(err, proc.ErrWaitTimeout):
		logger.Warn("Profiler did not exit in time; terminating.", "run", rc.Index, "timeout", m.cfg.StopTimeout)
		if termErr := m.profiler.Terminate(); termErr != nil {
			logger.Error("Failed to terminate profiler.", "run", rc.Index, "error", termErr)
		}
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Warn("Profiler exited with non-zero status.", "run", rc.Index, "status", exitErr.ExitCode())
		} else {
			return fmt.Errorf("waiting for profiler: %w", err)
		}
	}
	return nil
}

// populateRunData parses the capture file. A nil map means no measurement
// was collected for this run, which the orchestrator records as a valid
// outcome rather than an error.
func (m *Module) populateRunData(ctx context.Context, rc *lifecycle.RunContext) (map[string]float64, error) {
	logger := ctxlog.FromContext(ctx)
	path := m.capturePath(rc)
	data := measure.ExtractRunData(path)
	if data == nil {
		logger.Warn("No usable capture file for run.", "run", rc.Index, "path", path)
		return nil, nil
	}
	return data, nil
}
