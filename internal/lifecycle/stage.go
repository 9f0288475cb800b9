package lifecycle

import (
	"fmt"
	"strconv"

	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/runtable"
)

// Stage names one phase of the experiment lifecycle.
type Stage int

const (
	BeforeExperiment Stage = iota
	BeforeRun
	StartRun
	StartMeasurement
	Interact
	StopMeasurement
	StopRun
	PopulateRunData
	AfterExperiment
)

var stageNames = map[Stage]string{
	BeforeExperiment: "BEFORE_EXPERIMENT",
	BeforeRun:        "BEFORE_RUN",
	StartRun:         "START_RUN",
	StartMeasurement: "START_MEASUREMENT",
	Interact:         "INTERACT",
	StopMeasurement:  "STOP_MEASUREMENT",
	StopRun:          "STOP_RUN",
	PopulateRunData:  "POPULATE_RUN_DATA",
	AfterExperiment:  "AFTER_EXPERIMENT",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// RunStages is the fixed per-run publish order, up to and including
// StopRun. PopulateRunData follows but is published separately because it
// returns a value.
var RunStages = []Stage{
	BeforeRun,
	StartRun,
	StartMeasurement,
	Interact,
	StopMeasurement,
	StopRun,
}

// RunContext is the immutable per-run descriptor handed to every run-scoped
// handler. Index is 1-based and contiguous in execution order. Dir is the
// dedicated run directory, created before BeforeRun fires and never reused.
type RunContext struct {
	Index     int
	Dir       string
	Variation runtable.Variation
	Mode      config.OperationMode
}

// Vars returns the substitution map for command and path templates: every
// factor level of this run, plus run_dir and run_index.
func (rc *RunContext) Vars() map[string]string {
	vars := make(map[string]string, len(rc.Variation)+2)
	for factor, level := range rc.Variation {
		vars[factor] = level
	}
	vars["run_dir"] = rc.Dir
	vars["run_index"] = strconv.Itoa(rc.Index)
	return vars
}
