package launch

import (
	"os"
	"syscall"
	"time"
)

// FallbackExitCode is reported when the child's wait status is neither a
// normal exit nor a terminating signal.
const FallbackExitCode = 125

// ExitStatus is the decoded outcome of waiting on the child.
type ExitStatus struct {
	// Code is the exit code to propagate: the child's own code on a
	// normal exit, 128+signal on a signal death, FallbackExitCode
	// otherwise.
	Code int

	// Signal is the terminating signal, or -1.
	Signal syscall.Signal
}

// Handle identifies the running child and owns the parent-side pipe ends
// until Close or the process is reaped.
type Handle struct {
	Pid   int
	Pipes *PipeSet

	proc    *os.Process
	started time.Time
}

// Started reports when the child was launched.
func (h *Handle) Started() time.Time { return h.started }

// Signal delivers sig to the child.
func (h *Handle) Signal(sig os.Signal) error {
	return h.proc.Signal(sig)
}

// Wait reaps the child and decodes its wait status. The parent-side pipe
// ends are not closed here; readers may still be draining them.
func (h *Handle) Wait() (ExitStatus, error) {
	state, err := h.proc.Wait()
	if err != nil {
		return ExitStatus{Code: FallbackExitCode, Signal: -1}, err
	}

	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		return ExitStatus{Code: FallbackExitCode, Signal: -1}, nil
	}

	switch {
	case ws.Exited():
		return ExitStatus{Code: ws.ExitStatus(), Signal: -1}, nil
	case ws.Signaled():
		return ExitStatus{Code: 128 + int(ws.Signal()), Signal: ws.Signal()}, nil
	default:
		return ExitStatus{Code: FallbackExitCode, Signal: -1}, nil
	}
}

// Close releases the parent-side pipe ends. Idempotent.
func (h *Handle) Close() error {
	return h.Pipes.Close()
}
