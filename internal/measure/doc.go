// Package measure parses the profiler's capture file and derives the
// numeric result columns of a run. The capture is a row-oriented CSV of
// telemetry samples over time with at least a monotonic Time column;
// per-core CPU usage, used-memory and power/energy columns are optional.
// A missing or unreadable capture is a valid "no measurement" outcome,
// never an error.
package measure
