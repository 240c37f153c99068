package sample

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSampleFile(t *testing.T, dir string, pid int, content string) string {
	t.Helper()
	path := filepath.Join(dir, strconv.Itoa(pid))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing sample file: %v", err)
	}
	return path
}

func TestPollFileNeverAppears(t *testing.T) {
	dir := t.TempDir()
	signals := 0
	c := New(dir, 4242, testLogger(), WithSignal(func(int) error {
		signals++
		return nil
	}))

	if got := c.State(); got != StateUnknown {
		t.Fatalf("initial state = %v, want unknown", got)
	}

	for i := 0; i < 5; i++ {
		if got := c.Poll(); got != "" {
			t.Errorf("Poll() = %q, want empty", got)
		}
		if got := c.State(); got != StateUnavailable {
			t.Errorf("state = %v, want unavailable", got)
		}
	}

	if signals != 0 {
		t.Errorf("signalled %d times with no sample file", signals)
	}
}

func TestPollFileAppearsMidRun(t *testing.T) {
	dir := t.TempDir()
	const pid = 4242
	signals := 0
	c := New(dir, pid, testLogger(), WithSignal(func(p int) error {
		if p != pid {
			t.Errorf("signalled pid %d, want %d", p, pid)
		}
		signals++
		return nil
	}))

	// Absent at first.
	if got := c.Poll(); got != "" {
		t.Fatalf("Poll() = %q before file exists", got)
	}

	// Two records: the newest is assumed in-flight and skipped.
	writeSampleFile(t, dir, pid, "run() ← main()\nsleep() ← run() ← main()\n")

	if got := c.Poll(); got != "run() ← main()" {
		t.Errorf("Poll() = %q, want the second-to-last record", got)
	}
	if got := c.State(); got != StateAvailable {
		t.Errorf("state = %v, want available", got)
	}
	if signals != 1 {
		t.Errorf("signals = %d, want 1", signals)
	}
}

func TestPollFileDisappears(t *testing.T) {
	dir := t.TempDir()
	const pid = 99
	path := writeSampleFile(t, dir, pid, "a\nb\nc\n")
	c := New(dir, pid, testLogger(), WithSignal(func(int) error { return nil }))

	if got := c.Poll(); got != "b" {
		t.Fatalf("Poll() = %q, want %q", got, "b")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if got := c.Poll(); got != "" {
		t.Errorf("Poll() = %q after file removal, want empty", got)
	}
	if got := c.State(); got != StateUnavailable {
		t.Errorf("state = %v, want unavailable", got)
	}
	if got := c.Current(); got != "" {
		t.Errorf("Current() = %q after file removal, want empty", got)
	}
}

func TestPollSignalFailureStillReads(t *testing.T) {
	dir := t.TempDir()
	const pid = 7
	writeSampleFile(t, dir, pid, "old\nnew\n")
	c := New(dir, pid, testLogger(), WithSignal(func(int) error {
		return os.ErrPermission
	}))

	if got := c.Poll(); got != "old" {
		t.Errorf("Poll() = %q, want %q despite signal failure", got, "old")
	}
}

func TestTailPenultimate(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"empty", "", "", false},
		{"single incomplete", "partial", "", false},
		{"single complete", "only\n", "", false},
		{"two complete", "first\nsecond\n", "first", true},
		{"two with partial tail", "first\nsecond\npart", "second", true},
		{"three complete", "a\nb\nc\n", "b", true},
		{"blank penultimate", "\n\n", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "1")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, ok := tailPenultimate(path)
			if ok != tc.ok || got != tc.want {
				t.Errorf("tailPenultimate() = (%q, %v), want (%q, %v)",
					got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestPollReturnsColoredRecordVerbatim(t *testing.T) {
	dir := t.TempDir()
	const pid = 12

	// Records arrive as SGR-colored frame chains; they pass through
	// untouched.
	const rec = "\x1b[0;34msleep()\x1b[0m \x1b[0;34m←\x1b[0m \x1b[0;34mrun()\x1b[0m"
	writeSampleFile(t, dir, pid, rec+"\nnewer\n")
	c := New(dir, pid, testLogger(), WithSignal(func(int) error { return nil }))

	if got := c.Poll(); got != rec {
		t.Errorf("Poll() = %q, want the colored record verbatim %q", got, rec)
	}
}

func TestTailPenultimateWindowedRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1")

	// The file is larger than the read window; complete records at the
	// tail are still resolved.
	content := strings.Repeat("x", tailReadLimit) + "\na\nb\nc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := tailPenultimate(path)
	if !ok || got != "b" {
		t.Errorf("tailPenultimate() = (%q, %v), want (%q, true)", got, ok, "b")
	}
}

func TestTailPenultimateOversizedRecordNotReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1")

	// The record preceding the in-flight one is longer than the read
	// window, so only its tail is visible. A fragment must not be
	// reported as a sample.
	content := strings.Repeat("x", tailReadLimit+10) + "\ninflight"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if got, ok := tailPenultimate(path); ok {
		t.Errorf("tailPenultimate() = (%q, true), want no record", got)
	}
}

func TestPollMalformedFileDegradesToPlaceholder(t *testing.T) {
	dir := t.TempDir()
	const pid = 31
	writeSampleFile(t, dir, pid, "lonely-record\n")
	c := New(dir, pid, testLogger(), WithSignal(func(int) error { return nil }))

	if got := c.Poll(); got != Placeholder {
		t.Errorf("Poll() = %q, want placeholder %q", got, Placeholder)
	}
}

func TestStateString(t *testing.T) {
	testCases := []struct {
		s    State
		want string
	}{
		{StateUnknown, "unknown"},
		{StateAvailable, "available"},
		{StateUnavailable, "unavailable"},
	}
	for _, tc := range testCases {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
