package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/soundboard/internal/catalog"
)

const minButtonWidth = 8

// buttonState is how a single button is drawn.
type buttonState int

const (
	buttonIdle buttonState = iota
	buttonSelected
	buttonPlaying
	buttonPreview
	buttonFailed
	buttonPressed
)

func (s buttonState) style() lipgloss.Style {
	switch s {
	case buttonSelected:
		return selectedButtonStyle
	case buttonPlaying:
		return playingButtonStyle
	case buttonPreview:
		return previewButtonStyle
	case buttonFailed:
		return failedButtonStyle
	case buttonPressed:
		return pressedButtonStyle
	default:
		return buttonStyle
	}
}

// soundSource adapts a catalog for fuzzy matching on label and key.
type soundSource []catalog.Sound

func (s soundSource) String(i int) string { return s[i].Label() + " " + s[i].KeyBinding }
func (s soundSource) Len() int            { return len(s) }

// filterSounds returns the indexes of the sounds matching query, best match
// first. An empty query keeps catalog order.
func filterSounds(sounds []catalog.Sound, query string) []int {
	query = strings.TrimSpace(query)
	if query == "" {
		idx := make([]int, len(sounds))
		for i := range sounds {
			idx[i] = i
		}
		return idx
	}

	matches := fuzzy.FindFrom(query, soundSource(sounds))
	idx := make([]int, len(matches))
	for i, m := range matches {
		idx[i] = m.Index
	}
	return idx
}

// fit truncates s to n cells.
func fit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= n {
		return s
	}
	return truncate.StringWithTail(s, uint(n), ellipsis) //nolint:gosec
}

// renderButton draws one clip. badge is shown next to the key, typically a
// spinner frame or a playback marker.
func renderButton(s catalog.Sound, width int, st buttonState, badge string) string {
	width = max(width, minButtonWidth)
	inner := width - 4 // border and padding

	key := strings.ToUpper(strings.TrimSpace(s.KeyBinding))
	if key == "" {
		key = "·"
	}
	top := keyStyle.Render(key)
	if badge != "" {
		gap := inner - lipgloss.Width(top) - lipgloss.Width(badge)
		top += strings.Repeat(" ", max(gap, 1)) + badge
	}

	body := lipgloss.JoinVertical(lipgloss.Left, top, fit(s.Label(), inner))
	return st.style().Width(width - 2).Render(body)
}

// gridColumns is how many buttons fit across the terminal.
func gridColumns(termWidth, buttonWidth int) int {
	if termWidth <= 0 || buttonWidth <= 0 {
		return 1
	}
	return max(1, termWidth/buttonWidth)
}

// renderGrid lays buttons out in rows of cols.
func renderGrid(buttons []string, cols int) string {
	if len(buttons) == 0 {
		return ""
	}
	cols = max(cols, 1)
	var rows []string
	for i := 0; i < len(buttons); i += cols {
		end := min(i+cols, len(buttons))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, buttons[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// volumeBar renders v in [0,1] as a row of n cells.
func volumeBar(v float64, muted bool, n int) string {
	if muted {
		return volumeOffStyle.Render("muted")
	}
	filled := int(v*float64(n) + 0.5)
	filled = min(max(filled, 0), n)
	return volumeOnStyle.Render(strings.Repeat("▮", filled)) +
		volumeOffStyle.Render(strings.Repeat("▯", n-filled))
}
