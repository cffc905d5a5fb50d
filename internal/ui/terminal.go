// Package ui provides terminal styling for shiftcrew CLI output.
package ui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsAgentMode reports whether output is being consumed by automation
// (SHIFTCREW_AGENT set). Agent mode suppresses markdown rendering and
// other decoration that would pollute machine parsing.
func IsAgentMode() bool {
	return os.Getenv("SHIFTCREW_AGENT") != ""
}

// ShouldUseColor decides whether to emit ANSI colors, honoring the
// conventional environment variables in precedence order:
//
//	NO_COLOR        disables color (wins over everything)
//	CLICOLOR_FORCE  enables color even when stdout is not a TTY
//	CLICOLOR=0      disables color
//
// With none of those set, color is used when stdout is a terminal that
// advertises at least basic ANSI support.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return IsTerminal() && termenv.ColorProfile() != termenv.Ascii
}
