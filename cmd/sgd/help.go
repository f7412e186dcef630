package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/signalgate/internal/ui"
)

// helpRule restyles every match of re in Cobra's plain help text.
type helpRule struct {
	re    *regexp.Regexp
	style func(groups []string) string
}

var helpRules = []helpRule{
	// Section headers such as "Events:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), func(g []string) string {
		return ui.RenderAccent(strings.TrimSpace(g[1]))
	}},
	// Command names in the "Available Commands" and group listings.
	{regexp.MustCompile(`(?m)^(  )(\S+)(  )`), func(g []string) string {
		return g[1] + ui.RenderCommand(g[2]) + g[3]
	}},
	// Flag value types, e.g. "--http-url string".
	{regexp.MustCompile(`(--?\S+\s+)(string|strings|int|int64|duration)\b`), func(g []string) string {
		return g[1] + ui.RenderMuted(g[2])
	}},
	// Defaults, but not [command] or [flags].
	{regexp.MustCompile(`\(default "[^"]*"\)`), func(g []string) string {
		return ui.RenderMuted(g[0])
	}},
	// Environment variables named in long descriptions.
	{regexp.MustCompile(`\bSIGNALGATE_[A-Z0-9_]+\b`), func(g []string) string {
		return ui.RenderAccent(g[0])
	}},
}

// colorizedHelpFunc returns a Cobra help function that post-processes the
// default help text with ANSI colors when the terminal supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		if cmd.Long != "" {
			fmt.Fprintf(&buf, "%s\n\n", strings.TrimSpace(cmd.Long))
		}
		_ = cmd.Usage()
		cmd.SetOut(out)

		text := buf.String()
		if !noColor && ui.ShouldUseColor() {
			text = colorizeHelpOutput(text)
		}
		fmt.Fprint(out, text)
	}
}

// colorizeHelpOutput applies every help rule in order.
func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			return rule.style(rule.re.FindStringSubmatch(match))
		})
	}
	return s
}
