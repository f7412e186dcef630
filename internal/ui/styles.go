package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 179 // amber
	colorError  = 203 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderOutcome colors a router outcome class: green for ok, amber for
// caller-side problems (denied, invalid, stale, payload_missing), red for
// delivery and internal failures.
func RenderOutcome(outcome string) string {
	switch outcome {
	case "ok":
		return render(colorOK, outcome)
	case "denied", "invalid", "stale", "payload_missing":
		return render(colorWarn, outcome)
	default:
		return render(colorError, outcome)
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
