// Package orchestrator drives one experiment end to end: it publishes the
// experiment-scoped stages, walks the planned run sequence, publishes the
// per-run stages in their fixed order, collects results, and persists the
// final table.
//
// Runs never overlap: exactly one run is active at any time, because
// concurrent runs would corrupt CPU and energy measurements through
// cross-run contention. Each run attempt is isolated: any stage failure
// abandons that run without a result and the next planned run proceeds.
// Only a failure to persist the final table is fatal to the experiment.
package orchestrator
