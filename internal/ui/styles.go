// Package ui renders terminal output for the hubd CLI.
package ui

import (
	"fmt"
	"sync/atomic"
)

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorWarn   = 178 // amber
)

var noColor atomic.Bool

func render(code int, s string) string {
	if noColor.Load() {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent color. Used for section headers and
// action names.
func RenderAccent(s string) string {
	return render(colorAccent, s)
}

// RenderMuted returns s in the muted color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

// RenderCommand returns s styled as a command name.
func RenderCommand(s string) string {
	return render(colorCmd, s)
}

// RenderWarn returns s in the warning color.
func RenderWarn(s string) string {
	return render(colorWarn, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor.Store(true)
}
