// Package render owns the single mutable terminal line that shows the
// child's most recent output with its elapsed-time annotation.
//
// The renderer is a small stateful cursor protocol: a live line is
// overwritten in place on every refresh, then finalized (scrolled) when
// the next line arrives. Only the rendered copy is ever truncated; callers
// keep the full line content.
package render

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Line is one display line.
type Line struct {
	Text   string
	Stderr bool
}

// eraseLine moves to column zero and clears the current terminal line.
const eraseLine = "\r\x1b[2K"

// defaultWidth is used when the terminal width cannot be determined.
const defaultWidth = 80

// Renderer writes annotated lines to a terminal, overwriting the live line
// in place until it is finalized.
type Renderer struct {
	w           io.Writer
	interactive bool
	color       bool
	width       func() int
	liveShown   bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithInteractive forces in-place live updates on or off.
func WithInteractive(v bool) Option {
	return func(r *Renderer) { r.interactive = v }
}

// WithColor forces styling on or off.
func WithColor(v bool) Option {
	return func(r *Renderer) { r.color = v }
}

// WithWidth overrides terminal width detection.
func WithWidth(f func() int) Option {
	return func(r *Renderer) { r.width = f }
}

// New creates a renderer writing to w. When w is a terminal, live in-place
// updates and color are enabled and the width is queried per render so
// resizes are picked up.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w, width: func() int { return defaultWidth }}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.interactive = true
		r.color = true
		fd := int(f.Fd())
		r.width = func() int {
			if cols, _, err := term.GetSize(fd); err == nil && cols > 0 {
				return cols
			}
			return defaultWidth
		}
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interactive reports whether live in-place updates are enabled.
func (r *Renderer) Interactive() bool { return r.interactive }

// Live redraws the current line in place with its elapsed time and an
// optional stack sample. A no-op on non-interactive writers, where
// intermediate states would just scroll.
func (r *Renderer) Live(l Line, elapsed time.Duration, sample string) {
	if !r.interactive {
		return
	}
	fmt.Fprint(r.w, eraseLine+r.compose(l, elapsed, sample))
	r.liveShown = true
}

// Finalize overwrites any live render with the line's final form and
// scrolls it. The elapsed annotation freezes at the value it had when the
// line was superseded.
func (r *Renderer) Finalize(l Line, elapsed time.Duration, sample string) {
	if r.liveShown {
		fmt.Fprint(r.w, eraseLine)
		r.liveShown = false
	}
	fmt.Fprintln(r.w, r.compose(l, elapsed, sample))
}

// Clear removes a live line without finalizing it.
func (r *Renderer) Clear() {
	if r.liveShown {
		fmt.Fprint(r.w, eraseLine)
		r.liveShown = false
	}
}

// compose builds one rendered line, truncated to the terminal width.
func (r *Renderer) compose(l Line, elapsed time.Duration, sample string) string {
	prefix := "[" + FormatElapsed(elapsed) + "] "

	avail := r.width() - runewidth.StringWidth(prefix)
	if avail < 1 {
		avail = 1
	}

	// Child lines and sample records can carry their own SGR sequences,
	// so widths count cells, not escape bytes, and a cut never lands
	// inside a sequence.
	text := l.Text
	if sample != "" {
		// The sample gets at most half the remaining room.
		sampleBudget := avail / 2
		if w := ansi.StringWidth(sample); w < sampleBudget {
			sampleBudget = w
		}
		textBudget := avail - sampleBudget - 2
		if textBudget < 1 {
			textBudget = 1
		}
		text = ansi.Truncate(text, textBudget, "…")
		sample = ansi.Truncate(sample, sampleBudget, "…")
	} else {
		text = ansi.Truncate(text, avail, "…")
	}

	if r.color {
		prefix = elapsedStyle.Render(prefix)
		if l.Stderr {
			text = stderrStyle.Render(text)
		}
		if sample != "" {
			sample = sampleStyle.Render(sample)
		}
	}

	out := prefix + text
	if sample != "" {
		out += "  " + sample
	}
	return out
}

// FormatElapsed renders a duration as mm:ss.mmm.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d / time.Minute)
	s := int(d/time.Second) % 60
	ms := int(d/time.Millisecond) % 1000
	return fmt.Sprintf("%02d:%02d.%03d", m, s, ms)
}
