package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestQuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", false)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged in quiet mode: %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warning suppressed: %q", buf.String())
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", true)

	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug suppressed in verbose mode: %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "json", false)

	logger.Warn("structured", "key", "value")
	out := buf.String()
	if !strings.Contains(out, `"msg":"structured"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("not JSON output: %q", out)
	}
}
