package ui

import (
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/soundboard/internal/keys"
)

// shiftedDigits are the labels a US layout produces for Shift+1..9.
const shiftedDigits = "!@#$%^&*("

// keyEvent converts a terminal key press into a dispatcher event. The second
// return value is false for keys that carry no label, like arrows.
func keyEvent(msg tea.KeyMsg) (keys.Event, bool) {
	switch {
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		r := msg.Runes[0]
		return keys.Event{
			Key:  string(r),
			Code: keyCode(r),
			Alt:  msg.Alt,
		}, true

	case msg.Type == tea.KeySpace:
		return keys.Event{Key: " ", Code: "Space", Alt: msg.Alt}, true

	case msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ &&
		msg.Type != tea.KeyTab && msg.Type != tea.KeyEnter:
		// The terminal folds ctrl+letter into a control code.
		letter := rune('a' + int(msg.Type-tea.KeyCtrlA))
		return keys.Event{
			Key:  string(letter),
			Code: keyCode(letter),
			Ctrl: true,
			Alt:  msg.Alt,
		}, true
	}
	return keys.Event{}, false
}

// keyCode returns a physical key name for r in the form browsers report.
func keyCode(r rune) string {
	switch {
	case r >= '0' && r <= '9':
		return "Digit" + string(r)
	case strings.ContainsRune(shiftedDigits, r):
		return "Digit" + string(rune('1'+strings.IndexRune(shiftedDigits, r)))
	case unicode.IsLetter(r) && r < unicode.MaxASCII:
		return "Key" + string(unicode.ToUpper(r))
	}
	return ""
}
