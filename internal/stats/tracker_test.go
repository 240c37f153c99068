package stats

import (
	"strings"
	"testing"
	"time"
)

func TestTrackerCounts(t *testing.T) {
	tr := NewTracker()

	tr.RecordLine(5, false, 10*time.Millisecond)
	tr.RecordLine(7, true, 30*time.Millisecond)
	tr.RecordLine(3, false, 20*time.Millisecond)
	tr.RecordSample()
	tr.RecordSample()

	s := tr.Summarize(0)

	if s.Lines != 3 {
		t.Errorf("Lines = %d, want 3", s.Lines)
	}
	if s.StderrLines != 1 {
		t.Errorf("StderrLines = %d, want 1", s.StderrLines)
	}
	if s.Bytes != 15 {
		t.Errorf("Bytes = %d, want 15", s.Bytes)
	}
	if s.Samples != 2 {
		t.Errorf("Samples = %d, want 2", s.Samples)
	}
	if s.GapMax != 30*time.Millisecond {
		t.Errorf("GapMax = %v, want 30ms", s.GapMax)
	}
}

func TestTrackerQuantilesOrdered(t *testing.T) {
	tr := NewTracker()
	for i := 1; i <= 100; i++ {
		tr.RecordLine(1, false, time.Duration(i)*time.Millisecond)
	}

	s := tr.Summarize(0)
	if s.GapP50 <= 0 {
		t.Errorf("GapP50 = %v, want > 0", s.GapP50)
	}
	if s.GapP95 < s.GapP50 {
		t.Errorf("GapP95 (%v) < GapP50 (%v)", s.GapP95, s.GapP50)
	}
	if s.GapMax < s.GapP95 {
		t.Errorf("GapMax (%v) < GapP95 (%v)", s.GapMax, s.GapP95)
	}
}

func TestSummaryFormat(t *testing.T) {
	tr := NewTracker()
	tr.RecordLine(11, false, 50*time.Millisecond)
	s := tr.Summarize(137)

	out := s.Format()
	for _, want := range []string{
		"proflog run summary",
		"exit code:     137",
		"lines:         1 (0 stderr)",
		"line gaps:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryFormatNoLines(t *testing.T) {
	s := NewTracker().Summarize(0)
	if strings.Contains(s.Format(), "line gaps:") {
		t.Error("gap row rendered with zero lines")
	}
}
