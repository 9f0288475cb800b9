package hcl

import (
	"fmt"
	"time"

	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/measure"
	"github.com/specialistvlad/rungridgo/internal/runtable"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Loader defaults, matching the reference measurement setup.
const (
	defaultResultsDir      = "experiments"
	defaultCaptureFile     = "energibridge.csv"
	defaultTimeBetweenRuns = time.Second
	defaultSettleDelay     = 500 * time.Millisecond
	defaultStopTimeout     = 5 * time.Second
)

// translate converts a decoded experiment block into the config model,
// applying defaults. Structural validation beyond what decoding enforces
// lives in config.Experiment.Validate.
func (l *Loader) translate(block *experimentBlock) (*config.Experiment, error) {
	experiment := &config.Experiment{
		Name:            block.Name,
		ResultsDir:      block.Results,
		Repetitions:     block.Repetitions,
		Shuffle:         block.Shuffle,
		Seed:            block.Seed,
		Mode:            config.OperationMode(block.Mode),
		DataColumns:     block.DataColumns,
		TimeBetweenRuns: defaultTimeBetweenRuns,
	}
	if experiment.ResultsDir == "" {
		experiment.ResultsDir = defaultResultsDir
	}
	if experiment.Repetitions == 0 {
		experiment.Repetitions = 1
	}
	if experiment.Mode == "" {
		experiment.Mode = config.ModeAuto
	}
	if len(experiment.DataColumns) == 0 {
		experiment.DataColumns = []string{
			measure.ColExecutionTime,
			measure.ColCPUUsage,
			measure.ColMemoryUsage,
			measure.ColEnergy,
		}
	}
	if err := parseDuration(block.TimeBetweenRuns, &experiment.TimeBetweenRuns, "time_between_runs"); err != nil {
		return nil, err
	}

	for _, fb := range block.Factors {
		levels, err := translateLevels(fb)
		if err != nil {
			return nil, err
		}
		experiment.Factors = append(experiment.Factors, runtable.Factor{Name: fb.Name, Levels: levels})
	}

	if block.Workload == nil {
		return nil, fmt.Errorf("missing workload block")
	}
	experiment.Workload = config.Workload{
		Dir:        block.Workload.Dir,
		Entrypoint: block.Workload.Entrypoint,
		Command:    block.Workload.Command,
	}
	if experiment.Workload.Dir == "" {
		experiment.Workload.Dir = "."
	}
	if err := parseDuration(block.Workload.Timeout, &experiment.Workload.Timeout, "workload timeout"); err != nil {
		return nil, err
	}

	if block.Profiler == nil {
		return nil, fmt.Errorf("missing profiler block")
	}
	experiment.Profiler = config.Profiler{
		Command:     block.Profiler.Command,
		Measured:    block.Profiler.Measured,
		CaptureFile: block.Profiler.CaptureFile,
		SettleDelay: defaultSettleDelay,
		StopTimeout: defaultStopTimeout,
	}
	if experiment.Profiler.Measured == "" {
		experiment.Profiler.Measured = experiment.Workload.Command
	}
	if experiment.Profiler.CaptureFile == "" {
		experiment.Profiler.CaptureFile = defaultCaptureFile
	}
	if err := parseDuration(block.Profiler.SettleDelay, &experiment.Profiler.SettleDelay, "settle_delay"); err != nil {
		return nil, err
	}
	if err := parseDuration(block.Profiler.StopTimeout, &experiment.Profiler.StopTimeout, "stop_timeout"); err != nil {
		return nil, err
	}

	if err := experiment.Validate(); err != nil {
		return nil, err
	}
	return experiment, nil
}

// translateLevels evaluates a factor's levels expression and normalizes
// every element to a string, so levels may be written as strings or
// numbers.
func translateLevels(fb *factorBlock) ([]string, error) {
	value, diags := fb.Levels.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("factor %q levels: %w", fb.Name, diags)
	}
	if !value.CanIterateElements() {
		return nil, fmt.Errorf("factor %q levels must be a list, got %s", fb.Name, value.Type().FriendlyName())
	}

	var levels []string
	for it := value.ElementIterator(); it.Next(); {
		_, element := it.Element()
		str, err := convert.Convert(element, cty.String)
		if err != nil {
			return nil, fmt.Errorf("factor %q level is not convertible to string: %w", fb.Name, err)
		}
		if str.IsNull() {
			return nil, fmt.Errorf("factor %q contains a null level", fb.Name)
		}
		levels = append(levels, str.AsString())
	}
	return levels, nil
}

// parseDuration overwrites dst when raw is non-empty, keeping the caller's
// default otherwise.
func parseDuration(raw string, dst *time.Duration, attr string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", attr, raw, err)
	}
	*dst = d
	return nil
}
