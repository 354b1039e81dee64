package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alfredjeanlab/nethub/internal/ui"
)

const sampleHelp = `Push a single event to the hub.

Examples:
  hubd push --node-id 3 --action reader_registered

Usage:
  hubd push [flags]

Events:
  events      List the event log
  push        Push an event

Flags:
      --action string     action name
      --data string       event data as a JSON object (default "{}")
      --node-id int64     originating node ID
`

func TestColorizeHelp_PreservesText(t *testing.T) {
	// With color forced off every rule must reproduce its match verbatim.
	ui.ForceNoColor()
	if got := colorizeHelp(sampleHelp); got != sampleHelp {
		t.Errorf("colorizeHelp changed plain text:\n%s", got)
	}
}

func TestRootHelp(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	colorizedHelpFunc()(rootCmd, nil)

	out := buf.String()
	for _, want := range []string{"Network hub server and client", "Events:", "System:", "push", "serve"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q:\n%s", want, out)
		}
	}
}
