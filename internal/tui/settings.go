package tui

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ButyrinIA/postboard/internal/api"
	"github.com/ButyrinIA/postboard/internal/session"
	"github.com/ButyrinIA/postboard/internal/settings"
)

type settingsTab int

const (
	tabProfile settingsTab = iota
	tabSecurity
	tabOther
	tabCount
)

func (t settingsTab) String() string {
	switch t {
	case tabProfile:
		return "Profile"
	case tabSecurity:
		return "Security"
	}
	return "Other"
}

var preferenceOrder = []settings.Preference{
	settings.PrefNotifications,
	settings.PrefEmailAlerts,
	settings.PrefDarkMode,
}

type settingsForm struct {
	tab   settingsTab
	focus int

	name  textinput.Model
	email textinput.Model

	current textinput.Model
	next    textinput.Model
	confirm textinput.Model

	saving  bool
	message string
	err     string
}

func (m Model) newSettingsForm() settingsForm {
	f := settingsForm{
		name:    newInput("Your name", 100),
		email:   newInput("you@example.com", 254),
		current: newPasswordInput("Current password"),
		next:    newPasswordInput("New password"),
		confirm: newPasswordInput("Confirm new password"),
	}
	if u, ok := m.auth.User(); ok {
		f.name.SetValue(u.Name)
		f.email.SetValue(u.Email)
	}
	f.name.Focus()
	return f
}

func (f *settingsForm) inputs() []*textinput.Model {
	switch f.tab {
	case tabProfile:
		return []*textinput.Model{&f.name, &f.email}
	case tabSecurity:
		return []*textinput.Model{&f.current, &f.next, &f.confirm}
	}
	return nil
}

func (f *settingsForm) fields() int {
	if f.tab == tabOther {
		return len(preferenceOrder)
	}
	return len(f.inputs())
}

func (f *settingsForm) switchTab(delta int) tea.Cmd {
	for _, in := range f.inputs() {
		in.Blur()
	}
	f.tab = settingsTab(wrapIndex(int(f.tab), delta, int(tabCount)))
	f.focus = 0
	f.message, f.err = "", ""
	return focusOnly(f.inputs(), f.focus)
}

func (m Model) updateSettings(msg tea.KeyMsg) (Model, tea.Cmd) {
	f := &m.settingsForm
	switch msg.String() {
	case "esc":
		m.route = session.RouteDashboard
		return m, nil
	case "tab":
		return m, f.switchTab(1)
	case "shift+tab":
		return m, f.switchTab(-1)
	case "down":
		f.focus = wrapIndex(f.focus, 1, f.fields())
		return m, focusOnly(f.inputs(), f.focus)
	case "up":
		f.focus = wrapIndex(f.focus, -1, f.fields())
		return m, focusOnly(f.inputs(), f.focus)
	}

	switch f.tab {
	case tabProfile:
		if msg.String() == "enter" {
			return m.submitProfile()
		}
	case tabSecurity:
		if msg.String() == "enter" {
			m.submitPassword()
			return m, nil
		}
	case tabOther:
		switch msg.String() {
		case "enter", " ":
			return m.togglePreference(preferenceOrder[f.focus])
		}
		return m, nil
	}

	inputs := f.inputs()
	if f.focus >= len(inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	*inputs[f.focus], cmd = inputs[f.focus].Update(msg)
	return m, cmd
}

func (m Model) submitProfile() (Model, tea.Cmd) {
	f := &m.settingsForm
	if f.saving {
		return m, nil
	}
	if strings.TrimSpace(f.email.Value()) == "" {
		f.err = "Email is required"
		f.message = ""
		return m, nil
	}
	f.saving = true
	f.message, f.err = "", ""
	return m, tea.Batch(saveProfileCmd(m.ctx, m.settings, f.name.Value(), f.email.Value()), m.spinner.Tick)
}

// submitPassword only validates: there is no endpoint to send the change to.
func (m *Model) submitPassword() {
	f := &m.settingsForm
	err := settings.ValidatePasswordChange(f.current.Value(), f.next.Value(), f.confirm.Value())
	f.message = ""
	switch {
	case errors.Is(err, settings.ErrPasswordChangeUnsupported):
		f.err = "Password change is not available yet"
	case err != nil:
		f.err = capitalize(err.Error())
	}
}

func (m Model) applyProfile(msg profileSavedMsg) (Model, tea.Cmd) {
	f := &m.settingsForm
	f.saving = false
	if msg.err != nil {
		f.err = api.Message(msg.err, "Failed to update profile")
		return m, nil
	}
	if msg.res.LoggedOut {
		// сессия уже сброшена, охрана маршрутов отправит на /login
		m.loaded = false
		return m.setStatus(msg.res.Message+" Please sign in with your new email.", false)
	}
	f.message = msg.res.Message
	return m, nil
}

func (m Model) togglePreference(p settings.Preference) (Model, tea.Cmd) {
	m.prefs = m.prefs.Toggle(p)
	if p == settings.PrefDarkMode {
		m.styles = DefaultStyles(m.prefs.DarkMode)
		m.spinner.Style = m.styles.Spinner
	}
	return m, savePrefsCmd(m.ctx, m.settings, m.prefs)
}

func (m Model) applyPrefsSaved(msg prefsSavedMsg) Model {
	if msg.err != nil {
		slog.Warn("failed to save preferences", "error", msg.err)
		m.settingsForm.err = "Failed to save settings"
		return m
	}
	m.settingsForm.err = ""
	m.settingsForm.message = "Settings saved"
	return m
}

func (m Model) viewSettings() string {
	st := m.styles
	f := m.settingsForm

	var b strings.Builder
	b.WriteString(st.Title.Render("Settings") + "\n\n")

	tabs := make([]string, 0, tabCount)
	for t := settingsTab(0); t < tabCount; t++ {
		if t == f.tab {
			tabs = append(tabs, st.TabActive.Render(t.String()))
		} else {
			tabs = append(tabs, st.Tab.Render(t.String()))
		}
	}
	b.WriteString(strings.Join(tabs, " ") + "\n\n")

	row := func(idx int, label, value string) {
		marker := "  "
		if f.focus == idx {
			marker = st.Focused.Render("› ")
		}
		b.WriteString(marker + st.Label.Render(label) + value + "\n")
	}

	switch f.tab {
	case tabProfile:
		row(0, "Name", f.name.View())
		row(1, "Email", f.email.View())
		b.WriteString("\n" + st.Subtle.Render("Changing the email signs you out.") + "\n")
	case tabSecurity:
		row(0, "Current", f.current.View())
		row(1, "New", f.next.View())
		row(2, "Confirm", f.confirm.View())
		b.WriteString("\n" + st.Subtle.Render("At least 8 characters.") + "\n")
	case tabOther:
		for i, p := range preferenceOrder {
			box := "[ ]"
			if m.prefs.Get(p) {
				box = "[x]"
			}
			row(i, p.Label(), box)
		}
	}

	b.WriteString("\n")
	switch {
	case f.saving:
		b.WriteString(m.spinner.View() + " Saving...\n")
	case f.err != "":
		b.WriteString(st.Error.Render(f.err) + "\n")
	case f.message != "":
		b.WriteString(st.Status.Render(f.message) + "\n")
	}
	b.WriteString(st.Subtle.Render("tab  next tab · ↑/↓  field · enter  save · esc  back"))
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
