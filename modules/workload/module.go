// Package workload is the lifecycle module that manages the measured
// program: it spawns it at StartRun, blocks on its completion at Interact,
// and guarantees it is gone by the end of StopRun.
package workload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/ctxlog"
	"github.com/specialistvlad/rungridgo/internal/lifecycle"
	"github.com/specialistvlad/rungridgo/internal/proc"
)

// Module implements the lifecycle.Module interface for this package.
type Module struct {
	cfg config.Workload

	// target is run-scoped: set at StartRun, cleared at BeforeRun so a
	// stale handle from a previous run can never be waited on or killed.
	target *proc.Handle
	// stdout/stderr files for the current run, closed when the run ends
	// or, for abandoned runs, when the next run clears them.
	outputs []*os.File
}

// New creates the workload module from the experiment's workload settings.
func New(cfg config.Workload) *Module {
	return &Module{cfg: cfg}
}

// Register hooks the module's handlers into the registry.
func (m *Module) Register(r *lifecycle.Registry) {
	r.OnRun(lifecycle.BeforeRun, m.beforeRun)
	r.OnRun(lifecycle.StartRun, m.startRun)
	r.OnRun(lifecycle.Interact, m.interact)
	r.OnRun(lifecycle.StopRun, m.stopRun)
}

func (m *Module) beforeRun(ctx context.Context, rc *lifecycle.RunContext) error {
	m.target = nil
	m.closeOutputs()
	return nil
}

func (m *Module) closeOutputs() {
	for _, f := range m.outputs {
		f.Close()
	}
	m.outputs = nil
}

// startRun resolves the workload directory from the run's factor levels and
// spawns the process. A missing entry point is fatal to this run.
func (m *Module) startRun(ctx context.Context, rc *lifecycle.RunContext) error {
	logger := ctxlog.FromContext(ctx)
	vars := rc.Vars()

	dir := config.Interpolate(m.cfg.Dir, vars)
	if m.cfg.Entrypoint != "" {
		entry := filepath.Join(dir, m.cfg.Entrypoint)
		if _, err := os.Stat(entry); err != nil {
			return fmt.Errorf("workload entry point not found: %s", entry)
		}
	}

	command := config.Interpolate(m.cfg.Command, vars)
	logger.Debug("Spawning workload.", "command", command, "dir", dir)

	// Workload output lands in the run directory next to the capture file.
	stdout, err := os.Create(filepath.Join(rc.Dir, "workload.out"))
	if err != nil {
		return fmt.Errorf("failed to create workload output file: %w", err)
	}
	stderr, err := os.Create(filepath.Join(rc.Dir, "workload.err"))
	if err != nil {
		stdout.Close()
		return fmt.Errorf("failed to create workload output file: %w", err)
	}

	handle, err := proc.Start(ctx, proc.Spec{
		Command: command,
		Dir:     dir,
		Stdout:  stdout,
		Stderr:  stderr,
	})
	if err != nil {
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("failed to start workload: %w", err)
	}
	m.target = handle
	m.outputs = []*os.File{stdout, stderr}
	return nil
}

// interact blocks until the workload exits. Without a configured timeout
// the wait is unbounded. A non-zero exit status is logged, not treated as
// a run failure; the capture file decides whether the run yields data.
func (m *Module) interact(ctx context.Context, rc *lifecycle.RunContext) error {
	logger := ctxlog.FromContext(ctx)
	if m.target == nil {
		return nil
	}

	var err error
	if m.cfg.Timeout > 0 {
		err = m.target.WaitTimeout(ctx, m.cfg.Timeout)
		if errors.Is(err, proc.ErrWaitTimeout) {
			logger.Warn("Workload exceeded its timeout; it will be terminated at STOP_RUN.", "run", rc.Index, "timeout", m.cfg.Timeout)
			return nil
		}
	} else {
		err = m.target.Wait(ctx)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		logger.Warn("Workload exited with non-zero status.", "run", rc.Index, "status", exitErr.ExitCode())
	default:
		return fmt.Errorf("waiting for workload: %w", err)
	}
	return nil
}

// stopRun force-terminates the workload if it is still alive. This is
// unconditional cleanup, not a failure signal.
func (m *Module) stopRun(ctx context.Context, rc *lifecycle.RunContext) error {
	logger := ctxlog.FromContext(ctx)
	defer m.closeOutputs()
	if m.target == nil || !m.target.Alive() {
		return nil
	}
	logger.Warn("Workload still alive at STOP_RUN; terminating.", "run", rc.Index, "pid", m.target.Pid())
	if err := m.target.Terminate(); err != nil {
		logger.Error("Failed to terminate workload.", "run", rc.Index, "error", err)
	}
	return nil
}
