package measure

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"
)

// Canonical data column names, matching the energibridge capture schema.
const (
	ColExecutionTime = "execution_time (s)"
	ColCPUUsage      = "cpu_usage (%)"
	ColMemoryUsage   = "memory_usage (MB)"
	ColEnergy        = "energy_consumption (J)"
)

// Capture column markers.
const (
	timeColumn     = "Time"
	cpuUsageMarker = "CPU_USAGE"
	memoryColumn   = "USED_MEMORY"
	powerColumn    = "SYSTEM_POWER (Watts)"
	energyMarker   = "ENERGY"
)

// capture holds the numeric columns of a parsed capture file. Columns with
// any non-numeric cell are dropped entirely.
type capture struct {
	header []string
	cols   map[string][]float64
}

// ExtractRunData reads the capture file at path and computes the derived
// metrics. It returns nil when the file is missing, unreadable or lacks
// usable samples: that is recorded upstream as a run without a
// measurement, not as a failure. All values are rounded to 3 decimals.
func ExtractRunData(path string) map[string]float64 {
	c, ok := readCapture(path)
	if !ok {
		return nil
	}

	times, ok := c.cols[timeColumn]
	if !ok || len(times) == 0 {
		return nil
	}

	data := map[string]float64{
		// Capture timestamps are milliseconds.
		ColExecutionTime: round3((times[len(times)-1] - times[0]) / 1000),
		ColCPUUsage:      round3(c.averageCPU()),
		ColEnergy:        round3(c.energy()),
	}
	if mem, ok := c.cols[memoryColumn]; ok && len(mem) > 0 {
		// USED_MEMORY samples are kilobytes.
		data[ColMemoryUsage] = round3(mean(mem) / 1024)
	}
	return data
}

// averageCPU is the mean over all per-core usage columns, averaged again
// across those columns. No matching column yields 0.
func (c *capture) averageCPU() float64 {
	var sum float64
	var n int
	for _, name := range c.header {
		if !strings.Contains(name, cpuUsageMarker) {
			continue
		}
		if col, ok := c.cols[name]; ok && len(col) > 0 {
			sum += mean(col)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// energy prefers the mean of the power summary column; without one it
// falls back to the growth of the first cumulative energy counter, and
// reports 0 when neither is present.
func (c *capture) energy() float64 {
	if power, ok := c.cols[powerColumn]; ok && len(power) > 0 {
		return mean(power)
	}
	for _, name := range c.header {
		if name == powerColumn || !strings.Contains(name, energyMarker) {
			continue
		}
		if counter, ok := c.cols[name]; ok && len(counter) > 0 {
			return counter[len(counter)-1] - counter[0]
		}
	}
	return 0
}

// readCapture parses the CSV at path into numeric columns. Any read or
// format problem makes the whole capture unusable (ok=false); the caller
// treats that as measurement-absent.
func readCapture(path string) (*capture, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil, false
	}

	header := rows[0]
	cols := make(map[string][]float64, len(header))
	numeric := make(map[string]bool, len(header))
	for _, name := range header {
		cols[name] = make([]float64, 0, len(rows)-1)
		numeric[name] = true
	}

	for _, row := range rows[1:] {
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			name := header[i]
			if !numeric[name] {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				numeric[name] = false
				delete(cols, name)
				continue
			}
			cols[name] = append(cols[name], value)
		}
	}

	return &capture{header: header, cols: cols}, true
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
