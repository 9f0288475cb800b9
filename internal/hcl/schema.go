package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is the decode target for any declaration file.
type fileRoot struct {
	Experiments []*experimentBlock `hcl:"experiment,block"`
	Remain      hcl.Body           `hcl:",remain"`
}

// experimentBlock represents an `experiment` block. Duration attributes are
// strings in time.ParseDuration syntax; translation parses them.
type experimentBlock struct {
	Name            string         `hcl:"name,label"`
	Results         string         `hcl:"results,optional"`
	Repetitions     int            `hcl:"repetitions,optional"`
	Shuffle         bool           `hcl:"shuffle,optional"`
	Seed            int64          `hcl:"seed,optional"`
	Mode            string         `hcl:"mode,optional"`
	TimeBetweenRuns string         `hcl:"time_between_runs,optional"`
	DataColumns     []string       `hcl:"data_columns,optional"`
	Factors         []*factorBlock `hcl:"factor,block"`
	Workload        *workloadBlock `hcl:"workload,block"`
	Profiler        *profilerBlock `hcl:"profiler,block"`
}

// factorBlock declares one independent variable. Levels stays an expression
// so strings and numbers are both accepted; translation normalizes them to
// strings.
type factorBlock struct {
	Name   string         `hcl:"name,label"`
	Levels hcl.Expression `hcl:"levels"`
}

type workloadBlock struct {
	Dir        string `hcl:"dir,optional"`
	Entrypoint string `hcl:"entrypoint,optional"`
	Command    string `hcl:"command"`
	Timeout    string `hcl:"timeout,optional"`
}

type profilerBlock struct {
	Command     string `hcl:"command"`
	Measured    string `hcl:"measured,optional"`
	CaptureFile string `hcl:"capture_file,optional"`
	SettleDelay string `hcl:"settle_delay,optional"`
	StopTimeout string `hcl:"stop_timeout,optional"`
}
