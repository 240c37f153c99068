// Package workspace manages the scratch directory shared with the child.
//
// The directory holds the instrumentation payload a cooperating Python
// runtime picks up via PYTHONPATH, and receives the per-pid sample files
// that runtime writes back. It is created before launch and removed
// recursively on shutdown regardless of how the run went.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "embed"
)

//go:embed payload/sitecustomize.py
var payload []byte

// PayloadName is the file name the Python import machinery looks for.
const PayloadName = "sitecustomize.py"

// Environment variable names in the contract with the child.
const (
	// EnvSampleDir tells the payload where to write its sample file.
	EnvSampleDir = "PROFLOG_STACKTRACE_DIR"

	// EnvPythonPath is the interpreter's module search path; the
	// workspace is prepended so the payload is found first.
	EnvPythonPath = "PYTHONPATH"

	// Payload tuning knobs, passed through when the caller sets them.
	EnvTraceExtra    = "PROFLOG_STACKTRACE_EXTRA"
	EnvTraceSize     = "PROFLOG_STACKTRACE_SIZE"
	EnvTracePackages = "PROFLOG_STACKTRACE_PYTHON_PACKAGES"
)

// maxSuffix bounds the collision-avoidance loop.
const maxSuffix = 10000

// Workspace is a uniquely named scratch directory.
type Workspace struct {
	Dir string

	logger      *slog.Logger
	cleanupOnce sync.Once
}

// Create makes a collision-avoided scratch directory under base (the
// system temp directory when base is empty) and installs the
// instrumentation payload into it.
func Create(base string, logger *slog.Logger) (*Workspace, error) {
	if base == "" {
		base = os.TempDir()
	}

	var dir string
	for i := 0; ; i++ {
		if i >= maxSuffix {
			return nil, fmt.Errorf("workspace: no free directory name under %s", base)
		}
		dir = filepath.Join(base, fmt.Sprintf("proflog-%d", i))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("workspace: creating %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, PayloadName), payload, 0o644); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("workspace: installing payload: %w", err)
	}

	return &Workspace{Dir: dir, logger: logger}, nil
}

// Env returns a copy of base with the child-side contract applied: the
// workspace prepended to the module search path and the sample directory
// named directly.
func (w *Workspace) Env(base []string) []string {
	out := make([]string, 0, len(base)+2)
	pythonPath := w.Dir

	for _, kv := range base {
		switch {
		case strings.HasPrefix(kv, EnvPythonPath+"="):
			if rest := kv[len(EnvPythonPath)+1:]; rest != "" {
				pythonPath = w.Dir + string(os.PathListSeparator) + rest
			}
		case strings.HasPrefix(kv, EnvSampleDir+"="):
			// Replaced below.
		default:
			out = append(out, kv)
		}
	}

	out = append(out,
		EnvPythonPath+"="+pythonPath,
		EnvSampleDir+"="+w.Dir,
	)
	return out
}

// Cleanup removes the workspace recursively. Idempotent: only the first
// call can report an error. A failure is a warning, never fatal.
func (w *Workspace) Cleanup() error {
	var err error
	w.cleanupOnce.Do(func() {
		err = os.RemoveAll(w.Dir)
		if err != nil {
			w.logger.Warn("workspace_cleanup_failed",
				"dir", w.Dir,
				"error", err,
			)
		}
	})
	return err
}
