// Package proc wraps child process control for the measurement lifecycle:
// spawning from a shell-style command string, blocking waits, bounded waits
// and signal-based termination. Exactly one goroutine reaps each process;
// all waits observe the same completion channel, so a handle is safe to
// wait on and signal from the orchestrator thread.
package proc
