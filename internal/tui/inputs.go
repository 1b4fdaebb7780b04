package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 32
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newPasswordInput(placeholder string) textinput.Model {
	ti := newInput(placeholder, 128)
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	return ti
}

// focusOnly focuses inputs[idx] and blurs the rest. idx out of range
// blurs everything.
func focusOnly(inputs []*textinput.Model, idx int) tea.Cmd {
	var cmd tea.Cmd
	for i, in := range inputs {
		if i == idx {
			cmd = in.Focus()
			continue
		}
		in.Blur()
	}
	return cmd
}

// wrapIndex moves i by delta inside [0, n).
func wrapIndex(i, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}
