package main

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/nethub/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule styles every match of re. Submatch 1 and the last submatch are
// kept as-is; everything between them is passed to style.
type helpRule struct {
	re    *regexp.Regexp
	style func(string) string
}

var helpRules = []helpRule{
	// Section headers such as "Events:" or "Flags:".
	{regexp.MustCompile(`(?m)^()([A-Z][A-Za-z ]*:)([ \t]*)$`), ui.RenderAccent},
	// Command names in the command list.
	{regexp.MustCompile(`(?m)^(  )([a-z][a-z-]*)( {2,})`), ui.RenderCommand},
	// Example invocations in Long text.
	{regexp.MustCompile(`(?m)^(  )(hubd [^\n]*)()$`), ui.RenderCommand},
	// Flag value types.
	{regexp.MustCompile(`(--[a-z-]+ )(string|int64|int|duration)()\b`), ui.RenderMuted},
	{regexp.MustCompile(`()(\(default [^)]*\))()`), ui.RenderMuted},
}

// colorizedHelpFunc prints the long description followed by cobra's usage
// text, styled when the terminal supports color.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()

		var buf bytes.Buffer
		if desc := strings.TrimSpace(cmd.Long); desc != "" {
			buf.WriteString(desc + "\n\n")
		} else if cmd.Short != "" {
			buf.WriteString(cmd.Short + "\n\n")
		}
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)

		writeHelp(out, buf.String(), ui.ShouldUseColor())
	}
}

func writeHelp(w io.Writer, text string, color bool) {
	if color {
		text = colorizeHelp(text)
	}
	fmt.Fprint(w, text)
}

func colorizeHelp(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			parts := r.re.FindStringSubmatch(match)
			if len(parts) != 4 {
				return match
			}
			return parts[1] + r.style(parts[2]) + parts[3]
		})
	}
	return s
}
