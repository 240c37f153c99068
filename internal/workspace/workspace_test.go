package workspace

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateAvoidsCollisions(t *testing.T) {
	base := t.TempDir()

	w1, err := Create(base, testLogger())
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	w2, err := Create(base, testLogger())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if w1.Dir == w2.Dir {
		t.Errorf("both workspaces at %s", w1.Dir)
	}
	if filepath.Base(w1.Dir) != "proflog-0" || filepath.Base(w2.Dir) != "proflog-1" {
		t.Errorf("unexpected suffixes: %s, %s", w1.Dir, w2.Dir)
	}
}

func TestCreateInstallsPayload(t *testing.T) {
	w, err := Create(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(w.Dir, PayloadName))
	if err != nil {
		t.Fatalf("payload missing: %v", err)
	}
	if !strings.Contains(string(data), EnvSampleDir) {
		t.Error("payload does not reference the sample directory variable")
	}
}

func TestEnvInjection(t *testing.T) {
	w := &Workspace{Dir: "/scratch/proflog-0", logger: testLogger()}

	base := []string{"HOME=/home/u", "PYTHONPATH=/opt/lib", "TERM=xterm"}
	env := w.Env(base)

	sep := string(os.PathListSeparator)
	wantPath := EnvPythonPath + "=/scratch/proflog-0" + sep + "/opt/lib"
	if !slices.Contains(env, wantPath) {
		t.Errorf("env %v missing %q", env, wantPath)
	}
	if !slices.Contains(env, EnvSampleDir+"=/scratch/proflog-0") {
		t.Errorf("env %v missing sample dir", env)
	}
	if !slices.Contains(env, "HOME=/home/u") || !slices.Contains(env, "TERM=xterm") {
		t.Errorf("env %v dropped unrelated variables", env)
	}

	// Exactly one PYTHONPATH entry survives.
	count := 0
	for _, kv := range env {
		if strings.HasPrefix(kv, EnvPythonPath+"=") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("PYTHONPATH entries = %d, want 1", count)
	}
}

func TestEnvWithoutExistingPythonPath(t *testing.T) {
	w := &Workspace{Dir: "/scratch/proflog-3", logger: testLogger()}

	env := w.Env([]string{"HOME=/home/u"})
	if !slices.Contains(env, EnvPythonPath+"=/scratch/proflog-3") {
		t.Errorf("env %v missing bare PYTHONPATH", env)
	}
}

func TestCleanupIdempotent(t *testing.T) {
	w, err := Create(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := w.Cleanup(); err != nil {
		t.Errorf("first Cleanup: %v", err)
	}
	if _, err := os.Stat(w.Dir); !os.IsNotExist(err) {
		t.Error("workspace still exists after Cleanup")
	}
	if err := w.Cleanup(); err != nil {
		t.Errorf("second Cleanup reported an error: %v", err)
	}
}
