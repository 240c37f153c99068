// Package stats aggregates per-run counters and the distribution of gaps
// between displayed lines, for the optional exit summary.
package stats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// Tracker accumulates counters over one run. Safe for concurrent use; the
// reader goroutines and the consumer loop both touch it.
type Tracker struct {
	mu          sync.Mutex
	digest      *tdigest.TDigest
	lines       int64
	stderrLines int64
	bytes       int64
	samples     int64
	maxGap      time.Duration
	start       time.Time
}

// NewTracker creates a tracker with the clock started.
func NewTracker() *Tracker {
	return &Tracker{
		digest: tdigest.NewWithCompression(100),
		start:  time.Now(),
	}
}

// RecordLine counts one finalized line. gap is how long the line was the
// live render, which is the gap to the next line (or to end of stream).
func (t *Tracker) RecordLine(byteLen int, stderr bool, gap time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lines++
	if stderr {
		t.stderrLines++
	}
	t.bytes += int64(byteLen)
	t.digest.Add(gap.Seconds(), 1)
	if gap > t.maxGap {
		t.maxGap = gap
	}
}

// RecordSample counts one stack sample spliced into the render.
func (t *Tracker) RecordSample() {
	t.mu.Lock()
	t.samples++
	t.mu.Unlock()
}

// Summary is a point-in-time snapshot for display.
type Summary struct {
	ExitCode    int
	Lines       int64
	StderrLines int64
	Bytes       int64
	Samples     int64
	Duration    time.Duration
	GapP50      time.Duration
	GapP95      time.Duration
	GapMax      time.Duration
}

// Summarize snapshots the tracker.
func (t *Tracker) Summarize(exitCode int) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		ExitCode:    exitCode,
		Lines:       t.lines,
		StderrLines: t.stderrLines,
		Bytes:       t.bytes,
		Samples:     t.samples,
		Duration:    time.Since(t.start),
		GapMax:      t.maxGap,
	}
	if t.lines > 0 {
		s.GapP50 = quantileDuration(t.digest, 0.50)
		s.GapP95 = quantileDuration(t.digest, 0.95)
	}
	return s
}

func quantileDuration(d *tdigest.TDigest, q float64) time.Duration {
	return time.Duration(d.Quantile(q) * float64(time.Second))
}

// Format renders the summary block printed at exit.
func (s Summary) Format() string {
	var b strings.Builder

	rule := strings.Repeat("─", 60)
	b.WriteString("\n" + rule + "\n")
	b.WriteString("proflog run summary\n")
	b.WriteString(rule + "\n")

	fmt.Fprintf(&b, "  exit code:     %d\n", s.ExitCode)
	fmt.Fprintf(&b, "  duration:      %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  lines:         %d (%d stderr)\n", s.Lines, s.StderrLines)
	fmt.Fprintf(&b, "  bytes:         %d\n", s.Bytes)
	fmt.Fprintf(&b, "  stack samples: %d\n", s.Samples)
	if s.Lines > 0 {
		fmt.Fprintf(&b, "  line gaps:     p50 %s  p95 %s  max %s\n",
			s.GapP50.Round(time.Millisecond),
			s.GapP95.Round(time.Millisecond),
			s.GapMax.Round(time.Millisecond),
		)
	}
	b.WriteString(rule + "\n")

	return b.String()
}
