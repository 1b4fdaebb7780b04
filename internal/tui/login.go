package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginForm struct {
	email      textinput.Model
	password   textinput.Model
	focus      int
	submitting bool
	err        string
}

func newLoginForm() loginForm {
	f := loginForm{
		email:    newInput("you@example.com", 254),
		password: newPasswordInput("password"),
	}
	f.email.Focus()
	return f
}

func (f *loginForm) inputs() []*textinput.Model {
	return []*textinput.Model{&f.email, &f.password}
}

// updateLogin handles keys on the login view. Enter on the email field moves
// to the password, enter on the password submits.
func (m Model) updateLogin(msg tea.KeyMsg) (Model, tea.Cmd) {
	f := &m.login
	if f.submitting {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		f.focus = wrapIndex(f.focus, 1, 2)
		return m, focusOnly(f.inputs(), f.focus)
	case "shift+tab", "up":
		f.focus = wrapIndex(f.focus, -1, 2)
		return m, focusOnly(f.inputs(), f.focus)
	case "enter":
		if f.focus == 0 {
			f.focus = 1
			return m, focusOnly(f.inputs(), f.focus)
		}
		email := strings.TrimSpace(f.email.Value())
		if email == "" || f.password.Value() == "" {
			// та же проверка есть в Session.Login, здесь без лишнего круга
			f.err = "Email and password are required"
			return m, nil
		}
		f.submitting = true
		f.err = ""
		return m, tea.Batch(loginCmd(m.ctx, m.auth, email, f.password.Value()), m.spinner.Tick)
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return m, cmd
}

func (m Model) viewLogin() string {
	st := m.styles
	f := m.login

	var b strings.Builder
	b.WriteString(st.Title.Render("Facebook Media Aggregator") + "\n")
	b.WriteString(st.Subtle.Render("Sign in to your account") + "\n\n")

	label := func(name string, idx int) string {
		if f.focus == idx {
			return st.Focused.Render("› " + name)
		}
		return st.Subtle.Render("  " + name)
	}
	b.WriteString(label("Email", 0) + "\n  " + f.email.View() + "\n\n")
	b.WriteString(label("Password", 1) + "\n  " + f.password.View() + "\n\n")

	switch {
	case f.submitting:
		b.WriteString(m.spinner.View() + " Signing in...\n")
	case f.err != "":
		b.WriteString(st.Error.Render(f.err) + "\n")
	default:
		b.WriteString(st.Subtle.Render("enter  sign in · tab  next field · ctrl+c  quit") + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + m.statusView() + "\n")
	}
	return b.String()
}
