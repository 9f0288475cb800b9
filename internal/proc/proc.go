package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/shlex"
	"github.com/specialistvlad/rungridgo/internal/ctxlog"
)

// ErrWaitTimeout is returned by WaitTimeout when the process is still
// running after the bound expires.
var ErrWaitTimeout = errors.New("proc: wait timed out")

// Spec describes a child process to spawn. Command is a shell-style string
// split with shlex rules, so quoted arguments survive. Dir is the working
// directory; empty means inherit. Stdout/Stderr default to discarding.
type Spec struct {
	Command string
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Handle is a live child process. It is run-scoped state: the owner must
// drop it before the next run begins so a stale handle is never waited on
// or signalled.
type Handle struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Start spawns the process described by spec. The returned handle's reaper
// goroutine is already running.
func Start(ctx context.Context, spec Spec) (*Handle, error) {
	logger := ctxlog.FromContext(ctx)

	argv, err := shlex.Split(spec.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to split command %q: %w", spec.Command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = spec.Dir
	if spec.Stdout != nil {
		cmd.Stdout = spec.Stdout
	}
	if spec.Stderr != nil {
		cmd.Stderr = spec.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", argv[0], err)
	}
	logger.Debug("Process started.", "command", argv[0], "pid", cmd.Process.Pid, "dir", spec.Dir)

	h := &Handle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

// Pid returns the OS process id.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Alive reports whether the process has not yet been reaped.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exits or the context is cancelled. A
// non-zero exit status is returned as an *exec.ExitError.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout blocks up to d for the process to exit. On expiry it returns
// ErrWaitTimeout and leaves the process running; termination is the
// caller's decision.
func (h *Handle) WaitTimeout(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.done:
		return h.waitErr
	case <-timer.C:
		return ErrWaitTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Terminate sends SIGTERM. Signalling an already-exited process is not an
// error worth surfacing, so that case returns nil.
func (h *Handle) Terminate() error {
	if !h.Alive() {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("failed to terminate pid %d: %w", h.Pid(), err)
	}
	return nil
}

// Kill sends SIGKILL for processes that ignore SIGTERM.
func (h *Handle) Kill() error {
	if !h.Alive() {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill pid %d: %w", h.Pid(), err)
	}
	return nil
}
