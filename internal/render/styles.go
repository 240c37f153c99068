package render

import "github.com/charmbracelet/lipgloss"

// The sample color matches the blue the instrumentation payload uses for
// its frame separators, so spliced samples read as one piece.
var (
	colorElapsed = lipgloss.Color("8")  // dim gray
	colorStderr  = lipgloss.Color("1")  // red
	colorSample  = lipgloss.Color("4")  // blue
)

var (
	elapsedStyle = lipgloss.NewStyle().
			Foreground(colorElapsed)

	stderrStyle = lipgloss.NewStyle().
			Foreground(colorStderr)

	sampleStyle = lipgloss.NewStyle().
			Foreground(colorSample).
			Italic(true)
)
