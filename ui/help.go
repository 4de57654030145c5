package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const helpMarkdown = `# Soundboard

Press a clip's key to play it. Starting a clip stops the one before it.

| Key | Action |
| --- | --- |
| *clip key* | play clip |
| alt + *clip key* | preview the first two seconds |
| ←/→/↑/↓ | select a button |
| enter | play the selected clip |
| ctrl+p | preview the selected clip |
| space | stop playback |
| + / - | volume up / down |
| ctrl+n | mute |
| / | filter clips |
| ctrl+y | copy the selected clip's path |
| ctrl+e | dismiss the error banner |
| ? | toggle this help |
| q, ctrl+c | quit |

Keys bound to a clip take precedence over the shortcuts above.
`

// renderHelp renders the help screen with glamour at the given width.
func renderHelp(style string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug("unable to create help renderer", "error", err)
		return plainHelp()
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		log.Debug("unable to render help", "error", err)
		return plainHelp()
	}
	return out
}

func plainHelp() string {
	return fmt.Sprintf("\n%s\n", strings.TrimSpace(helpMarkdown))
}
