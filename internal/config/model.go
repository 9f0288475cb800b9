package config

import (
	"fmt"
	"time"

	"github.com/specialistvlad/rungridgo/internal/runtable"
)

// OperationMode selects how the orchestrator paces an experiment.
type OperationMode string

const (
	// ModeAuto runs unattended and honors the inter-run delay.
	ModeAuto OperationMode = "auto"
	// ModeInteractive is for manually supervised sessions; the inter-run
	// delay is skipped because the operator controls the pacing.
	ModeInteractive OperationMode = "interactive"
)

// Experiment is the unified representation of one experiment declaration.
type Experiment struct {
	Name            string
	ResultsDir      string
	Repetitions     int
	Shuffle         bool
	Seed            int64 // 0 means seed from the clock
	Mode            OperationMode
	TimeBetweenRuns time.Duration
	Factors         []runtable.Factor
	DataColumns     []string
	Workload        Workload
	Profiler        Profiler
}

// Workload describes how to locate and launch the measured program for one
// run. Dir and Command are templates; ${name} placeholders are substituted
// with the run's factor levels plus run_dir and run_index.
type Workload struct {
	Dir        string
	Entrypoint string
	Command    string
	// Timeout bounds the wait for workload completion. Zero means wait
	// forever, matching the unbounded baseline behavior.
	Timeout time.Duration
}

// Profiler describes the external telemetry process. Measured is a template
// for the command the profiler should execute and measure.
type Profiler struct {
	Command     string
	Measured    string
	CaptureFile string
	SettleDelay time.Duration
	StopTimeout time.Duration
}

// Validate checks the structural invariants of a loaded experiment. It is
// called once at startup; a failure here is fatal.
func (e *Experiment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("experiment name must not be empty")
	}
	if e.Repetitions < 1 {
		return fmt.Errorf("repetitions must be at least 1, got %d", e.Repetitions)
	}
	if e.Mode != ModeAuto && e.Mode != ModeInteractive {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeAuto, ModeInteractive, e.Mode)
	}
	if len(e.Factors) == 0 {
		return fmt.Errorf("experiment declares no factors")
	}
	seen := make(map[string]struct{}, len(e.Factors))
	for _, f := range e.Factors {
		if f.Name == "" {
			return fmt.Errorf("factor name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate factor %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if len(f.Levels) == 0 {
			return fmt.Errorf("factor %q declares no levels", f.Name)
		}
	}
	if e.Workload.Command == "" {
		return fmt.Errorf("workload command must not be empty")
	}
	if e.Profiler.Command == "" {
		return fmt.Errorf("profiler command must not be empty")
	}
	return nil
}
