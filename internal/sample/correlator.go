// Package sample correlates a child's stack-sample file with the live
// render.
//
// A cooperating runtime appends one sample record to a per-pid file in the
// scratch workspace each time it receives SIGUSR1. The correlator polls on
// a coarse cadence: probe the file, request a refresh, then read the
// second-to-last record. The last record is always treated as in-flight
// and unreliable; ignoring it is what lets parent and child share the file
// with no locking.
package sample

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// State tracks whether the child is known to maintain a sample file.
type State int

const (
	// StateUnknown means existence has not been probed yet.
	StateUnknown State = iota

	// StateAvailable means the file exists; polls actively request
	// refreshes.
	StateAvailable

	// StateUnavailable means the file is absent; re-probed every cycle,
	// since a runtime may create it only after some startup delay.
	StateUnavailable
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Placeholder is displayed when the sample file exists but holds no
// complete record yet.
const Placeholder = "?"

// tailReadLimit bounds how much of the sample file is read per cycle. The
// interesting records are always at the end.
const tailReadLimit = 64 * 1024

// Correlator polls one child's sample file.
type Correlator struct {
	dir    string
	pid    int
	logger *slog.Logger
	signal func(pid int) error

	state   State
	current string
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithSignal overrides the refresh-request delivery. Used in tests.
func WithSignal(f func(pid int) error) Option {
	return func(c *Correlator) { c.signal = f }
}

// New creates a correlator for the sample file of pid inside dir.
func New(dir string, pid int, logger *slog.Logger, opts ...Option) *Correlator {
	c := &Correlator{
		dir:    dir,
		pid:    pid,
		logger: logger,
		state:  StateUnknown,
		signal: func(pid int) error {
			return unix.Kill(pid, unix.SIGUSR1)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the correlator's current state.
func (c *Correlator) State() State { return c.state }

// Current returns the most recently read sample without polling.
func (c *Correlator) Current() string { return c.current }

// Poll runs one sampling cycle and returns the sample to display, or ""
// when the child has no sample file. Errors never escalate past a
// placeholder; sampling is best-effort by contract.
func (c *Correlator) Poll() string {
	path := c.path()
	exists := fileExists(path)

	switch c.state {
	case StateUnknown, StateUnavailable:
		if !exists {
			c.state = StateUnavailable
			return ""
		}
		c.state = StateAvailable
	case StateAvailable:
		if !exists {
			// Process exited or support was torn down.
			c.state = StateUnavailable
			c.current = ""
			return ""
		}
	}

	if err := c.signal(c.pid); err != nil {
		// The child may be gone between the probe and the signal.
		c.logger.Debug("sample_refresh_signal_failed",
			"pid", c.pid,
			"error", err,
		)
	}

	if rec, ok := tailPenultimate(path); ok {
		c.current = rec
	} else {
		c.current = Placeholder
	}
	return c.current
}

func (c *Correlator) path() string {
	return filepath.Join(c.dir, strconv.Itoa(c.pid))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// tailPenultimate reads the second-to-last newline-delimited record of the
// file. The last record is assumed in-progress and skipped.
func tailPenultimate(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", false
	}

	offset := info.Size() - tailReadLimit
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", false
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", false
	}

	records := bytes.Split(data, []byte{'\n'})
	// A window that opens mid-file can start inside a record; its first
	// element is a fragment, never reported as a sample.
	if offset > 0 {
		records = records[1:]
	}
	// A trailing newline leaves an empty final element; that is not a
	// record.
	if n := len(records); n > 0 && len(records[n-1]) == 0 {
		records = records[:n-1]
	}
	// The newest record is dropped as in-flight; a lone record is not
	// trusted either.
	if len(records) < 2 {
		return "", false
	}
	rec := records[len(records)-2]
	if len(rec) == 0 {
		return "", false
	}
	return string(rec), true
}
