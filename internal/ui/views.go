package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current view.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case DashboardView:
		return m.renderDashboard()
	case SettingsView:
		return m.renderSettings()
	default:
		return m.renderLoading()
	}
}

func (m *Model) renderLoading() string {
	return fmt.Sprintf("\n  %s Restoring session...\n", m.spin.View())
}

func (m *Model) renderLogin() string {
	var b strings.Builder

	title := "Sign in"
	if m.registerMode {
		title = "Create account"
	}
	b.WriteString(styles.title.Render("TCB Sync · "+title) + "\n\n")

	b.WriteString("  " + m.loginInputs[loginUsername].View() + "\n")
	b.WriteString("  " + m.loginInputs[loginPassword].View() + "\n\n")

	if m.signingIn {
		b.WriteString("  " + m.spin.View() + " authenticating...\n")
	} else if m.authErr != "" {
		b.WriteString("  " + styles.err.Render(m.authErr) + "\n")
	}

	mode := "ctrl+r: switch to register"
	if m.registerMode {
		mode = "ctrl+r: switch to sign in"
	}
	b.WriteString("\n" + styles.help.Render("  enter: submit · tab: next field · "+mode+" · ctrl+c: quit") + "\n")
	return b.String()
}

func (m *Model) renderDashboard() string {
	var b strings.Builder

	user := ""
	if u := m.session.CurrentUser(); u != nil {
		user = u.Username
	}
	b.WriteString(styles.title.Render("TCB Sync · Dashboard") +
		styles.help.Render("  signed in as "+user) + "\n\n")

	state := m.currentState()
	if state == "" {
		b.WriteString("  " + m.spin.View() + " waiting for first status...\n")
	} else {
		b.WriteString("  " + styles.stateBadge(state) + "\n")
	}

	if state.WaitingOTP() {
		b.WriteString("  " + styles.warn.Render("Approve the login in your banking app (press o for the live view)") + "\n")
	}
	if m.snapshot != nil && m.snapshot.LastError != "" {
		b.WriteString("  " + styles.err.Render("Last error: "+m.snapshot.LastError) + "\n")
	}
	if m.pollErr != "" {
		b.WriteString("  " + styles.warn.Render("Status unavailable: "+m.pollErr) + "\n")
	}

	b.WriteString("\n  " + m.renderDateRange() + "\n\n")

	b.WriteString(styles.help.Render("  Activity log") + "\n")
	if m.logView.Width > 0 {
		b.WriteString(m.logView.View() + "\n")
	} else {
		b.WriteString(m.renderLogs() + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n  " + styles.warn.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m *Model) renderDateRange() string {
	if m.dateFocus >= 0 {
		return fmt.Sprintf("From %s  To %s  %s",
			m.dateInputs[0].View(), m.dateInputs[1].View(),
			styles.help.Render("(enter: apply · esc: cancel)"))
	}
	label := fmt.Sprintf("Range %s → %s", m.dateRange.FromString(), m.dateRange.ToString())
	if m.currentState().Running() {
		return label + styles.help.Render("  (locked while running)")
	}
	return label
}

func (m *Model) renderLogs() string {
	if m.snapshot == nil || len(m.snapshot.Logs) == 0 {
		return styles.help.Render("  no activity yet")
	}
	lines := make([]string, 0, len(m.snapshot.Logs))
	for _, line := range m.snapshot.Logs {
		lines = append(lines, "  "+styles.logLine(line))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSettings() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("TCB Sync · Settings") + "\n\n")

	labels := []string{
		"Bank username", "Bank password", "Actual server URL",
		"Actual password", "Budget ID", "Budget encryption password",
	}
	for i, label := range labels {
		cursor := "  "
		if m.settingsFocus == i {
			cursor = styles.ok.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%-28s %s\n", cursor, label, m.fieldInputs[i].View()))
	}

	b.WriteString("\n" + styles.help.Render("  Account mappings") + "\n")
	for i, entry := range m.mappings {
		cursor := "  "
		if m.focusedMapping() == i {
			cursor = styles.ok.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s → %s  %s\n",
			cursor, entry.Name, valueOr(entry.ActualID, "(no account)"),
			styles.help.Render(strings.Join(entry.ArrangementIDs, ", "))))
	}
	addCursor := "  "
	if m.settingsFocus == m.settingsRowCount()-1 {
		addCursor = styles.ok.Render("> ")
	}
	b.WriteString(addCursor + styles.help.Render("[ add mapping ]") + "\n")

	if m.editingMapping {
		b.WriteString("\n" + m.renderMappingEditor() + "\n")
	}

	if m.settingsMsg != "" {
		style := styles.ok
		if strings.HasPrefix(m.settingsMsg, "Error") || strings.HasPrefix(m.settingsMsg, "Failed") {
			style = styles.err
		}
		b.WriteString("\n  " + style.Render(m.settingsMsg) + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n  " + styles.warn.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + styles.help.Render("  tab/↑/↓: move · enter: edit mapping · a: add · d: delete · ctrl+s: save · esc: back") + "\n")
	return b.String()
}

func (m *Model) renderMappingEditor() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	body := fmt.Sprintf("Name            %s\nActual account  %s\nArrangements    %s\n%s",
		m.mappingInputs[mapName].View(),
		m.mappingInputs[mapActualID].View(),
		m.mappingInputs[mapArrangements].View(),
		styles.help.Render("enter: apply · tab: next · esc: cancel"))
	return box.Render(body)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
